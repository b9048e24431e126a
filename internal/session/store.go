package session

import (
	"context"

	"github.com/roach88/dtable/internal/ir"
)

// StateStore persists state locators and the episode log.
// Implemented by store.Store (SQLite) and boltstore.Store (bbolt).
type StateStore interface {
	LoadState(ctx context.Context) (map[string]map[string]string, error)
	SaveLocator(ctx context.Context, name string, fields map[string]string) error
	DeleteLocator(ctx context.Context, name string) error
	WriteEpisode(ctx context.Context, ep ir.Episode) error
	ReadEpisode(ctx context.Context, id string) (ir.Episode, error)
	ListEpisodes(ctx context.Context) ([]ir.Episode, error)
	LastSeq(ctx context.Context) (int64, error)
	Close() error
}
