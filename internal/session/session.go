package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/dtable/internal/compiler"
	"github.com/roach88/dtable/internal/engine"
	"github.com/roach88/dtable/internal/ir"
	"github.com/roach88/dtable/internal/source"
)

// ErrReservedLocator is returned when a request or seeded locator uses a
// name owned by the constant locator or a table.
var ErrReservedLocator = errors.New("reserved locator name")

// Session evaluates tables and commands against long-lived state.
//
// Thread-safety: every public method takes the session lock, so episodes
// never interleave.
type Session struct {
	mu sync.Mutex

	bundle   ir.Bundle
	catalog  *compiler.Catalog
	source   source.Source
	state    map[string]*engine.MemoryLocator
	seeded   map[string]bool
	store    StateStore
	ids      EpisodeIDGenerator
	clock    *Clock
	maxSteps int
	logger   *slog.Logger
	trackers []*engine.Tracker
	last     *ir.Episode
}

// Option configures a Session.
type Option func(*Session)

// WithStore persists state locators and episodes. State found in the store
// is loaded on New and overrides seeded locators of the same name.
func WithStore(st StateStore) Option {
	return func(s *Session) {
		s.store = st
	}
}

// WithLocator seeds a state locator. With a store attached, a seeded
// locator the store does not hold yet is saved by New.
func WithLocator(name string, fields map[string]string) Option {
	return func(s *Session) {
		s.state[name] = engine.NewMemoryLocator(fields)
		s.seeded[name] = true
	}
}

// WithEpisodeIDs sets the episode ID generator.
//
// Default: UUIDv7Generator.
func WithEpisodeIDs(gen EpisodeIDGenerator) Option {
	return func(s *Session) {
		s.ids = gen
	}
}

// WithMaxSteps sets the per-episode locator-read quota.
//
// Default: engine.DefaultMaxSteps. Zero disables the quota.
func WithMaxSteps(n int) Option {
	return func(s *Session) {
		s.maxSteps = n
	}
}

// WithLogger sets the diagnostic logger.
//
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithSource sets where ResetComputationState re-parses tables from.
// Without a source the tables are rebuilt from the bundle given to New.
func WithSource(src source.Source) Option {
	return func(s *Session) {
		s.source = src
	}
}

// New builds the bundle and creates a session over it.
func New(ctx context.Context, bundle ir.Bundle, opts ...Option) (*Session, error) {
	catalog, err := compiler.Build(bundle)
	if err != nil {
		return nil, fmt.Errorf("build tables: %w", err)
	}

	s := &Session{
		bundle:   bundle,
		catalog:  catalog,
		state:    make(map[string]*engine.MemoryLocator),
		seeded:   make(map[string]bool),
		ids:      UUIDv7Generator{},
		clock:    NewClock(),
		maxSteps: engine.DefaultMaxSteps,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for name := range s.state {
		if err := s.checkName(name); err != nil {
			return nil, err
		}
	}

	if s.store != nil {
		stored, err := s.store.LoadState(ctx)
		if err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		for _, name := range ir.SortedKeys(s.state) {
			if _, ok := stored[name]; ok {
				continue
			}
			if err := s.store.SaveLocator(ctx, name, s.state[name].Fields()); err != nil {
				return nil, fmt.Errorf("save seeded locator %s: %w", name, err)
			}
		}
		for name, fields := range stored {
			if err := s.checkName(name); err != nil {
				return nil, err
			}
			s.state[name] = engine.NewMemoryLocator(fields)
		}
		last, err := s.store.LastSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("load clock: %w", err)
		}
		s.clock = NewClockAt(last)
	}

	s.logger.Debug("session ready",
		"tables", len(catalog.TableNames()),
		"commands", len(catalog.CommandNames()),
		"locators", len(s.state),
		"seq", s.clock.Current())
	return s, nil
}

// Catalog returns the table and command templates.
func (s *Session) Catalog() *compiler.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// DecisionFor computes the outcome of the named table.
func (s *Session) DecisionFor(ctx context.Context, table string, req Request) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(ctx, ir.OpDecide, table, req, func(cc *engine.ComputationContext) (map[string]string, error) {
		loc, ok := cc.Tables().Lookup(table)
		if !ok {
			return nil, engine.NewUnknownTargetError(table)
		}
		return loc.(*engine.DecisionTable).Outcome(cc)
	})
}

// Perform performs the selected rule of the named table, or the named
// command. Tables win over commands of the same name.
func (s *Session) Perform(ctx context.Context, name string, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.run(ctx, ir.OpPerform, name, req, func(cc *engine.ComputationContext) (map[string]string, error) {
		if loc, ok := cc.Tables().Lookup(name); ok {
			return nil, loc.(*engine.DecisionTable).Perform(cc)
		}
		tmpl, ok := s.catalog.Command(name)
		if !ok {
			return nil, engine.NewUnknownTargetError(name)
		}
		applied, err := tmpl.Clone().Perform(cc)
		if err != nil {
			return nil, err
		}
		return map[string]string{"applied": fmt.Sprint(applied)}, nil
	})
	return err
}

// ValueFor reads one field through a fresh context. Reading a table field
// computes the table. Reads are not recorded as episodes.
func (s *Session) ValueFor(ctx context.Context, src, field string, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cc, err := s.newContext(req, nil)
	if err != nil {
		return "", err
	}
	return cc.ValueFor(src, field)
}

// SetValueFor writes one field of a state locator. Constant, request and
// table locators reject the write.
func (s *Session) SetValueFor(ctx context.Context, src, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := src + ir.Separator + field
	_, err := s.run(ctx, ir.OpSet, target, nil, func(cc *engine.ComputationContext) (map[string]string, error) {
		if err := cc.SetValueFor(src, field, value); err != nil {
			return nil, err
		}
		return map[string]string{field: value}, nil
	})
	return err
}

// StartTracking attaches a tracker that receives the entries of every
// following episode until StopTracking.
func (s *Session) StartTracking() *engine.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := engine.NewTracker()
	s.trackers = append(s.trackers, t)
	return t
}

// StopTracking detaches a tracker. Its accumulated entries stay readable.
func (s *Session) StopTracking(t *engine.Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trackers = slices.DeleteFunc(s.trackers, func(x *engine.Tracker) bool { return x == t })
}

// State returns a snapshot of every state locator.
func (s *Session) State() map[string]map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// LastEpisode returns the most recent episode, if any.
func (s *Session) LastEpisode() (ir.Episode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return ir.Episode{}, false
	}
	return *s.last, true
}

// ResetComputationState re-parses the tables and clears the named state
// locator. A locator that was not seeded on this session, such as one left
// in the store by an earlier project file, is dropped instead.
func (s *Session) ResetComputationState(ctx context.Context, locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bundle := s.bundle
	if s.source != nil {
		b, err := s.source.Load()
		if err != nil {
			return fmt.Errorf("reload tables: %w", err)
		}
		bundle = *b
	}
	catalog, err := compiler.Build(bundle)
	if err != nil {
		return fmt.Errorf("rebuild tables: %w", err)
	}
	s.bundle = bundle
	s.catalog = catalog

	_, err = s.run(ctx, ir.OpReset, locator, nil, func(cc *engine.ComputationContext) (map[string]string, error) {
		loc, ok := s.state[locator]
		if !ok {
			return nil, engine.NewLocatorNotFoundError(locator)
		}
		if !s.seeded[locator] {
			delete(s.state, locator)
			return nil, nil
		}
		loc.Clear()
		return nil, nil
	})
	return err
}

// Close closes the attached store, if any.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// run executes one episode: evaluate, persist changed locators, record.
// The evaluation error is returned unwrapped so callers can inspect it.
func (s *Session) run(
	ctx context.Context,
	op ir.Operation,
	target string,
	req Request,
	eval func(*engine.ComputationContext) (map[string]string, error),
) (map[string]string, error) {
	episodeTrace := engine.NewTracker()
	cc, err := s.newContext(req, episodeTrace)
	if err != nil {
		return nil, err
	}

	before := s.snapshot()
	outcome, evalErr := eval(cc)
	after := s.snapshot()

	ep := ir.Episode{
		ID:            s.ids.Generate(),
		Seq:           s.clock.Next(),
		Operation:     op,
		Target:        target,
		Request:       req.clone(),
		Outcome:       outcome,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	if evalErr != nil {
		ep.Error = evalErr.Error()
	}
	ep.StateHash, err = ir.StateHash(after)
	if err != nil {
		return nil, err
	}
	for _, e := range episodeTrace.Events() {
		ep.Trace = append(ep.Trace, ir.TraceRecord{Seq: e.Seq, Kind: string(e.Kind), Message: e.Message})
	}
	s.last = &ep

	log := s.logger.With("episode", ep.ID, "seq", ep.Seq, "operation", string(op), "target", target)
	if evalErr != nil {
		log.Debug("episode failed", "error", evalErr)
	} else {
		log.Debug("episode complete", "steps", cc.Steps(), "trace", len(ep.Trace))
	}

	if s.store != nil {
		if err := s.persist(ctx, before, after, ep); err != nil {
			return nil, err
		}
	}
	return outcome, evalErr
}

// persist saves every locator whose fields changed, deletes every locator
// the episode dropped, then writes the episode.
func (s *Session) persist(ctx context.Context, before, after map[string]map[string]string, ep ir.Episode) error {
	for _, name := range ir.SortedKeys(before) {
		if _, ok := after[name]; ok {
			continue
		}
		if err := s.store.DeleteLocator(ctx, name); err != nil {
			return fmt.Errorf("persist episode %s: %w", ep.ID, err)
		}
	}
	for _, name := range ir.SortedKeys(after) {
		if old, ok := before[name]; ok && maps.Equal(old, after[name]) {
			continue
		}
		if err := s.store.SaveLocator(ctx, name, after[name]); err != nil {
			return fmt.Errorf("persist episode %s: %w", ep.ID, err)
		}
	}
	if err := s.store.WriteEpisode(ctx, ep); err != nil {
		return fmt.Errorf("persist episode %s: %w", ep.ID, err)
	}
	return nil
}

// newContext merges constant, state and request locators and registers a
// fresh clone of every table.
func (s *Session) newContext(req Request, episodeTrace *engine.Tracker) (*engine.ComputationContext, error) {
	for name := range req {
		if err := s.checkName(name); err != nil {
			return nil, err
		}
	}

	tables := engine.NewLocators()
	for _, tmpl := range s.catalog.Tables() {
		tables.Register(tmpl.Name(), tmpl.Clone())
	}

	constant := engine.NewLocators().Register(ir.ConstantSource, engine.NewConstantLocator())
	state := engine.NewLocators()
	for _, name := range ir.SortedKeys(s.state) {
		state.Register(name, s.state[name])
	}

	opts := []engine.ContextOption{engine.WithMaxSteps(s.maxSteps), engine.WithTracker(episodeTrace)}
	for _, t := range s.trackers {
		opts = append(opts, engine.WithTracker(t))
	}
	return engine.NewComputationContext(tables, constant.MergedWith(state, req.locators()), opts...), nil
}

// checkName rejects names that the constant locator or a table owns.
func (s *Session) checkName(name string) error {
	if name == ir.ConstantSource {
		return fmt.Errorf("%w: %s", ErrReservedLocator, name)
	}
	if _, ok := s.catalog.Table(name); ok {
		return fmt.Errorf("%w: %s is a table", ErrReservedLocator, name)
	}
	return nil
}

func (s *Session) snapshot() map[string]map[string]string {
	out := make(map[string]map[string]string, len(s.state))
	for name, loc := range s.state {
		out[name] = loc.Fields()
	}
	return out
}
