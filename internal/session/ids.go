package session

import "github.com/google/uuid"

// EpisodeIDGenerator issues episode identifiers.
// Implemented by UUIDv7Generator (production) and
// testutil.FixedEpisodeGenerator (tests).
type EpisodeIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 episode IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
