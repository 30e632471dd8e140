package multigath_test

import (
	"testing"

	"github.com/programme-lv/itester/internal/gatherer/multigath"
	"github.com/programme-lv/itester/internal/gatherer/respbuilder"
	"github.com/programme-lv/itester/internal/tester"
	"github.com/stretchr/testify/assert"
)

func TestForwardsToAll(t *testing.T) {
	a, b := respbuilder.New(), respbuilder.New()
	g := multigath.New(a, nil, b)
	assert.Len(t, g, 2)

	g.StartJob(tester.JobInfo{RunID: "r"})
	g.FinishJob([]tester.ProgramResult{{Name: "sol"}})

	for _, x := range []*respbuilder.Builder{a, b} {
		s := x.Summary()
		assert.Equal(t, "r", s.RunID)
		assert.Len(t, s.Programs, 1)
	}
}
