package harness

import "github.com/roach88/dtable/internal/ir"

// TraceEvent is one trace entry of one episode, flattened so a scenario's
// whole run reads as a single list.
type TraceEvent struct {
	Episode   string       `json:"episode"`
	Seq       int64        `json:"seq"` // episode seq
	Step      int64        `json:"step"`
	Operation ir.Operation `json:"operation"`
	Target    string       `json:"target"`
	Kind      string       `json:"kind"`
	Message   string       `json:"message"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every episode's trace entries in episode order.
	Trace []TraceEvent `json:"trace"`

	// Episodes are the stored episodes, read back from the store.
	Episodes []ir.Episode `json:"episodes"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the session state after the last step.
	State map[string]map[string]string `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Episodes: []ir.Episode{},
		Errors:   []string{},
		State:    map[string]map[string]string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEpisode appends a stored episode and its trace entries.
func (r *Result) AddEpisode(ep ir.Episode) {
	r.Episodes = append(r.Episodes, ep)
	for _, rec := range ep.Trace {
		r.Trace = append(r.Trace, TraceEvent{
			Episode:   ep.ID,
			Seq:       ep.Seq,
			Step:      rec.Seq,
			Operation: ep.Operation,
			Target:    ep.Target,
			Kind:      rec.Kind,
			Message:   rec.Message,
		})
	}
}
