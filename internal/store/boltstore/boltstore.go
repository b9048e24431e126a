// Package boltstore is a bbolt-backed implementation of the session state
// and episode log contract. It stores the same data as package store in a
// single bbolt file and suits deployments that cannot link cgo.
//
// Layout:
//
//	locators/<name>/<field> = value      one nested bucket per locator
//	episodes/<seq big-endian> = JSON     ordered by logical clock
//	episode_ids/<id> = <seq big-endian>  idempotency index
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/roach88/dtable/internal/ir"
)

var (
	bucketLocators   = []byte("locators")
	bucketEpisodes   = []byte("episodes")
	bucketEpisodeIDs = []byte("episode_ids")
)

// Store is a bbolt-backed state and episode store.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the bbolt file at path and ensures the top-level
// buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketLocators, bucketEpisodes, bucketEpisodeIDs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadState returns every stored locator with its fields.
func (s *Store) LoadState(ctx context.Context) (map[string]map[string]string, error) {
	state := make(map[string]map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketLocators)
		return root.ForEach(func(name, v []byte) error {
			// Nested buckets are the only entries and carry a nil value.
			if v != nil {
				return nil
			}
			fields := map[string]string{}
			if err := root.Bucket(name).ForEach(func(k, v []byte) error {
				fields[string(k)] = string(v)
				return nil
			}); err != nil {
				return err
			}
			state[string(name)] = fields
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return state, nil
}

// SaveLocator replaces the stored fields of one locator.
func (s *Store) SaveLocator(ctx context.Context, name string, fields map[string]string) error {
	slog.Debug("bolt save locator", "locator", name, "fields", len(fields))
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketLocators)
		if root.Bucket([]byte(name)) != nil {
			if err := root.DeleteBucket([]byte(name)); err != nil {
				return fmt.Errorf("save locator %s: %w", name, err)
			}
		}
		b, err := root.CreateBucket([]byte(name))
		if err != nil {
			return fmt.Errorf("save locator %s: %w", name, err)
		}
		for field, value := range fields {
			if err := b.Put([]byte(field), []byte(value)); err != nil {
				return fmt.Errorf("save locator %s field %s: %w", name, field, err)
			}
		}
		return nil
	})
}

// DeleteLocator removes a locator. Deleting an unknown locator is not an
// error.
func (s *Store) DeleteLocator(ctx context.Context, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketLocators).DeleteBucket([]byte(name))
		if err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("delete locator %s: %w", name, err)
		}
		return nil
	})
}

// WriteEpisode appends an episode. Writing an ID that already exists is a
// no-op; writing a new ID under a used seq fails.
func (s *Store) WriteEpisode(ctx context.Context, ep ir.Episode) error {
	data, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("write episode: %w", err)
	}
	key := seqKey(ep.Seq)

	return s.db.Update(func(tx *bolt.Tx) error {
		ids := tx.Bucket(bucketEpisodeIDs)
		if ids.Get([]byte(ep.ID)) != nil {
			return nil
		}
		episodes := tx.Bucket(bucketEpisodes)
		if episodes.Get(key) != nil {
			return fmt.Errorf("write episode %s: seq %d already used", ep.ID, ep.Seq)
		}
		if err := episodes.Put(key, data); err != nil {
			return fmt.Errorf("write episode %s: %w", ep.ID, err)
		}
		return ids.Put([]byte(ep.ID), key)
	})
}

// ReadEpisode returns one episode with its trace, or an error wrapping
// ir.ErrEpisodeNotFound.
func (s *Store) ReadEpisode(ctx context.Context, id string) (ir.Episode, error) {
	var ep ir.Episode
	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucketEpisodeIDs).Get([]byte(id))
		if key == nil {
			return ir.ErrEpisodeNotFound
		}
		return json.Unmarshal(tx.Bucket(bucketEpisodes).Get(key), &ep)
	})
	if err != nil {
		return ir.Episode{}, fmt.Errorf("read episode %s: %w", id, err)
	}
	if ep.Trace == nil {
		ep.Trace = []ir.TraceRecord{}
	}
	return ep, nil
}

// ListEpisodes returns every episode in seq order without traces.
func (s *Store) ListEpisodes(ctx context.Context) ([]ir.Episode, error) {
	episodes := []ir.Episode{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEpisodes).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ep ir.Episode
			if err := json.Unmarshal(v, &ep); err != nil {
				return fmt.Errorf("decode episode at seq %d: %w", binary.BigEndian.Uint64(k), err)
			}
			ep.Trace = nil
			episodes = append(episodes, ep)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return episodes, nil
}

// LastSeq returns the highest stored episode seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.View(func(tx *bolt.Tx) error {
		k, _ := tx.Bucket(bucketEpisodes).Cursor().Last()
		if k != nil {
			seq = int64(binary.BigEndian.Uint64(k))
		}
		return nil
	})
	return seq, err
}

// seqKey encodes a seq so that byte order matches numeric order.
func seqKey(seq int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(seq))
	return key
}
