package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/dtable/internal/ir"
	"github.com/roach88/dtable/internal/session"
	"github.com/roach88/dtable/internal/source"
	"github.com/roach88/dtable/internal/store"
	"github.com/roach88/dtable/internal/testutil"
)

// Harness runs one scenario against one session.
type Harness struct {
	store   *store.Store
	session *session.Session
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// sequential episode IDs so traces are reproducible.
//
// Execution flow:
//  1. Load the specs directory and open a session over it
//  2. Execute steps, checking expect and expect_error clauses
//  3. Read every episode back from the store
//  4. Evaluate assertions against the trace and the persisted state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	specs := source.Dir(scenario.Specs)
	bundle, err := specs.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // suppress logs in tests
	opts := []session.Option{
		session.WithStore(st),
		session.WithSource(specs),
		session.WithEpisodeIDs(testutil.NewSequentialEpisodeGenerator(scenario.EpisodePrefix)),
		session.WithLogger(logger),
	}
	for _, name := range ir.SortedKeys(scenario.Locators) {
		opts = append(opts, session.WithLocator(name, scenario.Locators[name]))
	}

	sess, err := session.New(ctx, *bundle, opts...)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer sess.Close()

	h := &Harness{store: st, session: sess, logger: logger}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to read episodes: %w", err)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one step. Failures are recorded on the result so the
// remaining steps still run.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	op, target := step.Operation()
	req := session.Request(step.Request)

	var err error
	switch op {
	case ir.OpDecide:
		_, err = h.session.DecisionFor(ctx, target, req)
	case ir.OpPerform:
		err = h.session.Perform(ctx, target, req)
	case ir.OpSet:
		loc, field, _ := strings.Cut(target, ir.Separator)
		err = h.session.SetValueFor(ctx, loc, field, step.Value)
	case ir.OpReset:
		err = h.session.ResetComputationState(ctx, target)
	}

	label := fmt.Sprintf("steps[%d] %s %s", i, op, target)
	switch {
	case step.ExpectError != "" && err == nil:
		result.AddError(fmt.Sprintf("%s: expected error %q, got none", label, step.ExpectError))
		return
	case step.ExpectError != "" && !strings.Contains(err.Error(), step.ExpectError):
		result.AddError(fmt.Sprintf("%s: expected error %q, got %v", label, step.ExpectError, err))
		return
	case step.ExpectError != "":
		h.logger.Info("step failed as expected", "step", i, "error", err)
		return
	case err != nil:
		result.AddError(fmt.Sprintf("%s: %v", label, err))
		return
	}

	ep, _ := h.session.LastEpisode()
	for _, field := range ir.SortedKeys(step.Expect) {
		want := step.Expect[field]
		got, ok := ep.Outcome[field]
		if !ok {
			result.AddError(fmt.Sprintf("%s: expected %s = %q, field missing from outcome %v", label, field, want, ep.Outcome))
			continue
		}
		if got != want {
			result.AddError(fmt.Sprintf("%s: expected %s = %q, got %q", label, field, want, got))
		}
	}

	h.logger.Info("step completed", "step", i, "operation", string(op), "target", target, "episode", ep.ID)
}

// collect reads every episode back from the store, with its trace, and
// snapshots the session state.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	episodes, err := h.store.ListEpisodes(ctx)
	if err != nil {
		return err
	}
	for _, listed := range episodes {
		ep, err := h.store.ReadEpisode(ctx, listed.ID)
		if err != nil {
			return err
		}
		result.AddEpisode(ep)
	}
	result.State = h.session.State()
	return nil
}
