package verdict

// Policy decides how repeated observations of one program collapse
// into a single verdict.
type Policy interface {
	// Initial is the verdict before anything was observed.
	Initial() Verdict
	// Merge combines the running verdict with a new observation.
	Merge(original, next Verdict) Verdict
}

// SolutionPolicy lets the first non-passing observation claim the slot.
type SolutionPolicy struct{}

func (SolutionPolicy) Initial() Verdict { return New(Pass) }

func (SolutionPolicy) Merge(original, next Verdict) Verdict {
	if original.Is(InternalError) || next.Is(InternalError) {
		return New(InternalError)
	}
	if original.Is(Pass) {
		return next
	}
	return original
}

// ValidatorPolicy is SolutionPolicy with ValidatorPass as the neutral
// verdict. A plain Pass coming from a fresh slot counts as ValidatorPass.
type ValidatorPolicy struct{}

func (ValidatorPolicy) Initial() Verdict { return New(ValidatorPass) }

func (ValidatorPolicy) Merge(original, next Verdict) Verdict {
	if original.Is(Pass) {
		original = New(ValidatorPass)
	}
	if original.Is(InternalError) || next.Is(InternalError) {
		return New(InternalError)
	}
	if original.Is(ValidatorPass) {
		return next
	}
	return original
}

// Fold merges next into running. When the observation repeats the kind
// of the running verdict, its near-limit flag is kept sticky so one slow
// run marks the whole slot.
func Fold(p Policy, running, next Verdict) Verdict {
	merged := p.Merge(running, next)
	if !running.Equal(next) || !merged.Equal(next) {
		return merged
	}
	nextNear, ok := next.NearLimit()
	if !ok {
		return merged
	}
	runningNear, _ := running.NearLimit()
	return merged.WithNearLimit(nextNear || runningNear)
}
