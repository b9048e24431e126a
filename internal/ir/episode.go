package ir

import "errors"

// Operation names what an episode did.
type Operation string

const (
	// OpDecide computed a table outcome.
	OpDecide Operation = "decide"
	// OpPerform performed a table's selected rule or a command.
	OpPerform Operation = "perform"
	// OpSet wrote a single field through the context.
	OpSet Operation = "set"
	// OpReset re-parsed the tables and cleared one locator.
	OpReset Operation = "reset"
)

// ErrEpisodeNotFound is returned by stores when no episode has the given ID.
var ErrEpisodeNotFound = errors.New("episode not found")

// TraceRecord is the stored form of one evaluation trace entry.
type TraceRecord struct {
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Episode is the stored record of one public operation on a session.
//
// Episodes are ordered by Seq, a logical clock that never uses wall time.
// StateHash is the StateHash of the stored state after the operation.
type Episode struct {
	ID            string                       `json:"id"`
	Seq           int64                        `json:"seq"`
	Operation     Operation                    `json:"operation"`
	Target        string                       `json:"target"`
	Request       map[string]map[string]string `json:"request,omitempty"`
	Outcome       map[string]string            `json:"outcome,omitempty"`
	Error         string                       `json:"error,omitempty"`
	StateHash     string                       `json:"state_hash"`
	EngineVersion string                       `json:"engine_version"`
	IRVersion     string                       `json:"ir_version"`
	Trace         []TraceRecord                `json:"trace,omitempty"`
}
