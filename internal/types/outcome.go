package types

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeUnavailable
	OutcomeMalformed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Outcome is what a backed strategy hands back to the orchestrator. Only the
// field matching Kind is meaningful.
type Outcome struct {
	Kind   OutcomeKind
	Result MatchResult
	Reason string
	Raw    string
}

// Success wraps a parsed assessment.
func Success(r MatchResult) Outcome {
	return Outcome{Kind: OutcomeSuccess, Result: r}
}

// Unavailable reports a backend that could not answer.
func Unavailable(reason string) Outcome {
	return Outcome{Kind: OutcomeUnavailable, Reason: reason}
}

// Malformed keeps the raw reply of a backend that answered with an unparseable shape.
func Malformed(raw string) Outcome {
	return Outcome{Kind: OutcomeMalformed, Raw: raw}
}

// OK reports whether the outcome carries a result.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
