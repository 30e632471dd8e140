package execwrap

import (
	"fmt"
	"strings"
	"time"
)

// Constraints applied to one run. Zero values mean unlimited.
type Constraints struct {
	WallTime  time.Duration
	MemoryKiB int64
	// CPUTime asks GNU time for user and system time.
	CPUTime bool
}

func (c *Constraints) memoryArg(tools Tools) string {
	if c.MemoryKiB <= 0 {
		return tools.MemUnlimited
	}
	return fmt.Sprintf("%d", c.MemoryKiB)
}

// UlimitCmd limits address space, data segment and stack.
func (c *Constraints) UlimitCmd(tools Tools) string {
	mem := c.memoryArg(tools)
	if c.MemoryKiB <= 0 {
		return fmt.Sprintf("ulimit -s %s", mem)
	}
	return fmt.Sprintf("ulimit -v %s; ulimit -d %s; ulimit -s %s", mem, mem, mem)
}

// TimeoutCmd keeps timeout(1) in the wrapper's process group so that
// killing the group reaches the program too.
func (c *Constraints) TimeoutCmd(tools Tools) string {
	if c.WallTime <= 0 {
		return ""
	}
	return fmt.Sprintf("%s --foreground %g", tools.Timeout, c.WallTime.Seconds())
}

func (c *Constraints) TimeCmd(tools Tools, timeFile string) string {
	if !c.CPUTime {
		return ""
	}
	return fmt.Sprintf(`%s -f "%%e %%U %%S" -a -o %s -q`, tools.Time, Quote(timeFile))
}

// Script builds the shell wrapper. The wall clock is bracketed by two
// nanosecond timestamps appended to timeFile.
func (c *Constraints) Script(tools Tools, timeFile, runCmd string, args []string, stdin, stdout string) string {
	date := fmt.Sprintf("%s +%%s%%N >> %s", tools.Date, Quote(timeFile))

	prog := []string{c.TimeCmd(tools, timeFile), c.TimeoutCmd(tools), runCmd}
	for _, a := range args {
		prog = append(prog, Quote(a))
	}
	progCmd := joinNonEmpty(prog) + fmt.Sprintf(" < %s > %s", Quote(stdin), Quote(stdout))

	return fmt.Sprintf("%s; %s; %s; rc=$?; %s; exit $rc", c.UlimitCmd(tools), date, progCmd, date)
}

func joinNonEmpty(parts []string) string {
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			res = append(res, p)
		}
	}
	return strings.Join(res, " ")
}

// Quote makes s a single shell word.
func Quote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./+=:,@%", r)
}
