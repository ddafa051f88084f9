// Package scoring turns questionnaire answers into a qualification verdict.
package scoring

import "github.com/inforum/diagnostico/internal/domain/questionnaire"

// Default rule thresholds.
const (
	defaultQualifyAt    = 3
	defaultDisqualifyAt = 3
)

// Result texts, selected only by the boolean verdict.
const (
	TextQualifies      = "Sí califica"
	TextDoesNotQualify = "No califica"
)

const (
	scoreLow  = 1
	scoreHigh = 2
)

// Branch names the rule that produced a verdict. Disqualified and
// Inconclusive share the same boolean outcome but are kept apart for logs
// and notes.
type Branch string

// Rule branches in precedence order.
const (
	BranchQualified    Branch = "qualified"
	BranchDisqualified Branch = "disqualified"
	BranchInconclusive Branch = "inconclusive"
)

// Result is the outcome of evaluating an answer set.
type Result struct {
	Score1Count int
	Score2Count int
	Qualifies   bool
	Branch      Branch
	ResultText  string
}

// Option applies a configuration option to Rules.
type Option func(*Rules)

// WithQualifyAt sets how many score=2 answers qualify a respondent.
func WithQualifyAt(n int) Option {
	return func(r *Rules) {
		if n > 0 {
			r.qualifyAt = n
		}
	}
}

// WithDisqualifyAt sets how many score=1 answers explicitly disqualify.
func WithDisqualifyAt(n int) Option {
	return func(r *Rules) {
		if n > 0 {
			r.disqualifyAt = n
		}
	}
}

// Rules holds the thresholds of the qualification rule. The zero value is
// not usable; build one with New.
type Rules struct {
	qualifyAt    int
	disqualifyAt int
}

// New returns Rules with default thresholds and the given options applied.
func New(opts ...Option) Rules {
	r := Rules{qualifyAt: defaultQualifyAt, disqualifyAt: defaultDisqualifyAt}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Evaluate applies the rules to answers. The score=2 rule takes precedence
// over the score=1 rule. Only counts matter, so ordering never changes the
// verdict.
func (r Rules) Evaluate(answers []questionnaire.Answer) Result {
	var res Result
	for _, a := range answers {
		switch a.Score {
		case scoreLow:
			res.Score1Count++
		case scoreHigh:
			res.Score2Count++
		}
	}

	switch {
	case res.Score2Count >= r.qualifyAt:
		res.Qualifies, res.Branch = true, BranchQualified
	case res.Score1Count >= r.disqualifyAt:
		res.Qualifies, res.Branch = false, BranchDisqualified
	default:
		res.Qualifies, res.Branch = false, BranchInconclusive
	}
	res.ResultText = Text(res.Qualifies)
	return res
}

// Evaluate applies the default rules.
func Evaluate(answers []questionnaire.Answer) Result {
	return New().Evaluate(answers)
}

// Text returns the fixed human string for a verdict.
func Text(qualifies bool) string {
	if qualifies {
		return TextQualifies
	}
	return TextDoesNotQualify
}
