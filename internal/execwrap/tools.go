package execwrap

import (
	"os/exec"
	"runtime"
)

// Tools names the OS utilities the wrapper depends on.
type Tools struct {
	Shell        string
	Date         string
	Time         string
	Timeout      string
	MemUnlimited string
}

func DefaultTools() Tools {
	if runtime.GOOS == "darwin" {
		return Tools{
			Shell:        "bash",
			Date:         "gdate",
			Time:         "gtime",
			Timeout:      "gtimeout",
			MemUnlimited: "hard",
		}
	}
	return Tools{
		Shell:        "bash",
		Date:         "date",
		Time:         "/usr/bin/time",
		Timeout:      "timeout",
		MemUnlimited: "unlimited",
	}
}

// Missing lists utilities that cannot be found in PATH.
func (t Tools) Missing() []string {
	var res []string
	for _, cmd := range []string{t.Shell, t.Date, t.Time, t.Timeout} {
		if _, err := exec.LookPath(cmd); err != nil {
			res = append(res, cmd)
		}
	}
	return res
}

func (t Tools) HasTime() bool {
	_, err := exec.LookPath(t.Time)
	return err == nil
}
