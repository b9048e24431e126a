package engine

import "fmt"

// DefaultMaxSteps is the default maximum number of locator reads per
// episode. Placeholder substitution and table references both bottom out in
// reads, so the quota bounds any evaluation.
const DefaultMaxSteps = 10000

// StepQuota counts locator reads within one episode and enforces a limit.
// A limit of zero or less disables the check.
type StepQuota struct {
	maxSteps int
	current  int
}

// NewStepQuota creates a quota with the given limit.
func NewStepQuota(maxSteps int) *StepQuota {
	return &StepQuota{maxSteps: maxSteps}
}

// Check increments the counter and fails once the limit is passed.
func (q *StepQuota) Check() error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &EvaluationError{
			Code:    ErrCodeStepsExceeded,
			Message: fmt.Sprintf("episode exceeded max steps (%d > %d)", q.current, q.maxSteps),
			Details: map[string]string{
				"steps":     fmt.Sprintf("%d", q.current),
				"max_steps": fmt.Sprintf("%d", q.maxSteps),
			},
		}
	}
	return nil
}

// Current returns the number of reads so far.
func (q *StepQuota) Current() int {
	return q.current
}

// MaxSteps returns the limit.
func (q *StepQuota) MaxSteps() int {
	return q.maxSteps
}
