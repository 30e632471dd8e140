package verdict

import (
	"fmt"
)

// Kind is the base outcome of one run.
type Kind int

const (
	Pass Kind = iota
	WrongOutput
	Timeout
	RuntimeError
	CompileError // reserved, no run produces it yet
	InternalError
	ValidatorPass
)

// nearLimit tracks the "close to time limit" warning. It is only
// meaningful for kinds that can finish in time.
type nearLimit uint8

const (
	nearNotApplicable nearLimit = iota
	nearNo
	nearYes
)

// Verdict is a Kind plus an optional near-limit warning flag.
// Two verdicts are equal when their kinds are equal.
type Verdict struct {
	kind Kind
	near nearLimit
}

func New(kind Kind) Verdict {
	if carriesNearLimit(kind) {
		return Verdict{kind: kind, near: nearNo}
	}
	return Verdict{kind: kind, near: nearNotApplicable}
}

func carriesNearLimit(kind Kind) bool {
	switch kind {
	case Pass, WrongOutput, RuntimeError:
		return true
	case Timeout, CompileError, InternalError, ValidatorPass:
		return false
	}
	panic(fmt.Sprintf("unknown verdict kind %d", int(kind)))
}

func (v Verdict) Kind() Kind { return v.kind }

// Is reports whether v has the given base kind.
func (v Verdict) Is(kind Kind) bool { return v.kind == kind }

// Equal compares base kinds only.
func (v Verdict) Equal(other Verdict) bool { return v.kind == other.kind }

// NearLimit returns the warning flag. ok is false for kinds that
// do not carry one.
func (v Verdict) NearLimit() (near bool, ok bool) {
	switch v.near {
	case nearYes:
		return true, true
	case nearNo:
		return false, true
	}
	return false, false
}

// WithNearLimit returns a copy with the flag set. Kinds without the
// flag are returned unchanged.
func (v Verdict) WithNearLimit(near bool) Verdict {
	if v.near == nearNotApplicable {
		return v
	}
	if near {
		v.near = nearYes
	} else {
		v.near = nearNo
	}
	return v
}

// Short is the single letter used in per-batch summaries.
func (v Verdict) Short() string {
	return v.WithNearLimit(false).String()[:1]
}

func (v Verdict) String() string {
	near := v.near == nearYes
	switch v.kind {
	case Pass:
		if near {
			return "tOK"
		}
		return "OK"
	case WrongOutput:
		if near {
			return "tWA"
		}
		return "WA"
	case Timeout:
		return "TLE"
	case RuntimeError:
		if near {
			return "tEXC"
		}
		return "EXC"
	case CompileError:
		return "CE"
	case InternalError:
		return "ERR"
	case ValidatorPass:
		return "VALID"
	}
	return fmt.Sprintf("Verdict(%d)", int(v.kind))
}

func Parse(s string) (Verdict, error) {
	switch s {
	case "OK":
		return New(Pass), nil
	case "tOK":
		return New(Pass).WithNearLimit(true), nil
	case "WA":
		return New(WrongOutput), nil
	case "tWA":
		return New(WrongOutput).WithNearLimit(true), nil
	case "TLE":
		return New(Timeout), nil
	case "EXC":
		return New(RuntimeError), nil
	case "tEXC":
		return New(RuntimeError).WithNearLimit(true), nil
	case "CE":
		return New(CompileError), nil
	case "ERR":
		return New(InternalError), nil
	case "VALID":
		return New(ValidatorPass), nil
	}
	return Verdict{}, fmt.Errorf("unknown verdict %q", s)
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromExitCode maps the exit status of the execution wrapper.
// 124 is reserved by timeout(1).
func FromExitCode(code int) Verdict {
	switch {
	case code == 0:
		return New(Pass)
	case code == 124:
		return New(Timeout)
	case code > 0:
		return New(RuntimeError)
	}
	return New(InternalError)
}
