package engine

// ComputationContext is the merged, queryable and mutable view over all
// locators for one evaluation episode.
//
// It holds two namespaces. Reads look in the table namespace first and fall
// back to the state namespace; writes only ever reach the state namespace.
// The state namespace is where the constant locator, stored application
// state and per-request locators are merged.
//
// The context also fans trace entries out to its trackers and carries the
// episode's recursion guard and step quota.
type ComputationContext struct {
	tables   *Locators
	state    *Locators
	trackers []*Tracker
	seq      int64
	guard    *RecursionGuard
	quota    *StepQuota
}

// ContextOption configures a ComputationContext.
type ContextOption func(*ComputationContext)

// WithTracker attaches an existing tracker.
func WithTracker(t *Tracker) ContextOption {
	return func(cc *ComputationContext) {
		if t != nil {
			cc.trackers = append(cc.trackers, t)
		}
	}
}

// WithMaxSteps sets the episode's locator-read quota.
//
// Default: DefaultMaxSteps. Zero disables the quota.
func WithMaxSteps(n int) ContextOption {
	return func(cc *ComputationContext) {
		cc.quota = NewStepQuota(n)
	}
}

// NewComputationContext creates a context over a table namespace and a state
// namespace. Either may be nil.
func NewComputationContext(tables, state *Locators, opts ...ContextOption) *ComputationContext {
	if tables == nil {
		tables = NewLocators()
	}
	if state == nil {
		state = NewLocators()
	}
	cc := &ComputationContext{
		tables: tables,
		state:  state,
		guard:  NewRecursionGuard(),
		quota:  NewStepQuota(DefaultMaxSteps),
	}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// Tables returns the table namespace.
func (cc *ComputationContext) Tables() *Locators {
	return cc.tables
}

// State returns the state namespace.
func (cc *ComputationContext) State() *Locators {
	return cc.state
}

// Locator returns the locator a read of source would reach.
func (cc *ComputationContext) Locator(source string) (Locator, error) {
	if loc, ok := cc.tables.Lookup(source); ok {
		return loc, nil
	}
	if loc, ok := cc.state.Lookup(source); ok {
		return loc, nil
	}
	return nil, NewLocatorNotFoundError(source)
}

// ValueFor reads field from the locator named source. An unknown source is
// an error, never a default.
func (cc *ComputationContext) ValueFor(source, field string) (string, error) {
	loc, err := cc.Locator(source)
	if err != nil {
		return "", err
	}
	if err := cc.quota.Check(); err != nil {
		return "", err
	}
	return loc.Read(field, cc)
}

// SetValueFor writes value to field of the state locator named source.
// Table locators are never writable through the context.
func (cc *ComputationContext) SetValueFor(source, field, value string) error {
	loc, ok := cc.state.Lookup(source)
	if !ok {
		return NewLocatorNotFoundError(source)
	}
	return loc.Write(field, value)
}

// StartTracking attaches a new tracker and returns it.
func (cc *ComputationContext) StartTracking() *Tracker {
	t := NewTracker()
	cc.trackers = append(cc.trackers, t)
	return t
}

// Tracking reports whether any tracker is attached.
func (cc *ComputationContext) Tracking() bool {
	return len(cc.trackers) > 0
}

// LogComputation publishes one entry to every attached tracker. Without
// trackers it does nothing.
func (cc *ComputationContext) LogComputation(kind TraceKind, message string) {
	if len(cc.trackers) == 0 {
		return
	}
	cc.seq++
	entry := TraceEntry{Seq: cc.seq, Kind: kind, Message: message}
	for _, t := range cc.trackers {
		t.Record(entry)
	}
}

// Steps returns the number of locator reads performed so far.
func (cc *ComputationContext) Steps() int {
	return cc.quota.Current()
}

func (cc *ComputationContext) enterTable(name string) error {
	return cc.guard.Enter(name)
}

func (cc *ComputationContext) leaveTable(name string) {
	cc.guard.Leave(name)
}
