package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/dtable/internal/config"
	"github.com/roach88/dtable/internal/ir"
	"github.com/roach88/dtable/internal/session"
	"github.com/roach88/dtable/internal/source"
	"github.com/roach88/dtable/internal/store"
	"github.com/roach88/dtable/internal/store/boltstore"
)

// loadProject reads the project file and applies flag overrides.
func loadProject(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load project file", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// specsDir returns the positional specs directory, or the project's.
func specsDir(cfg config.Config, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.Specs
}

// openStore opens the configured state database. It returns nil when no
// database is configured.
func openStore(cfg config.Config) (session.StateStore, error) {
	if cfg.Database == "" {
		return nil, nil
	}
	slog.Debug("opening database", "path", cfg.Database, "backend", cfg.Backend)

	var (
		st  session.StateStore
		err error
	)
	switch cfg.Backend {
	case config.BackendBolt:
		st, err = boltstore.Open(cfg.Database)
	default:
		st, err = store.Open(cfg.Database)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// requireStore is openStore for commands that only make sense with a
// database.
func requireStore(cfg config.Config) (session.StateStore, error) {
	if cfg.Database == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set database in "+config.DefaultFile)
	}
	return openStore(cfg)
}

// openSession loads the specs directory and opens a session over it with
// the configured store and seeded locators.
func openSession(ctx context.Context, cfg config.Config, dir string) (*session.Session, error) {
	specs := source.Dir(dir)
	bundle, err := specs.Load()
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{
		session.WithSource(specs),
		session.WithLogger(slog.Default()),
	}
	if st != nil {
		opts = append(opts, session.WithStore(st))
	}
	if cfg.MaxSteps > 0 {
		opts = append(opts, session.WithMaxSteps(cfg.MaxSteps))
	}
	for _, name := range ir.SortedKeys(cfg.Locators) {
		opts = append(opts, session.WithLocator(name, cfg.Locators[name]))
	}

	sess, err := session.New(ctx, *bundle, opts...)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	return sess, nil
}
