package execwrap

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Metrics struct {
	Wall   time.Duration
	User   time.Duration
	System time.Duration
	HasCPU bool
}

// ParseTimeFile reads the start timestamp, an optional "elapsed user
// system" line from GNU time and the end timestamp.
func ParseTimeFile(content []byte) (*Metrics, error) {
	fields := strings.Fields(string(content))
	if len(fields) != 2 && len(fields) != 5 {
		return nil, fmt.Errorf("unexpected time file layout: %d fields", len(fields))
	}

	start, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start timestamp: %w", err)
	}
	end, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end timestamp: %w", err)
	}
	if end < start {
		return nil, fmt.Errorf("end timestamp %d before start %d", end, start)
	}

	m := &Metrics{Wall: time.Duration(end - start)}
	if len(fields) == 5 {
		secs := make([]float64, 3)
		for i := range secs {
			secs[i], err = strconv.ParseFloat(fields[1+i], 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse cpu time: %w", err)
			}
		}
		m.User = seconds(secs[1])
		m.System = seconds(secs[2])
		m.HasCPU = true
	}
	return m, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
