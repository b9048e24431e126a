package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/dtable/internal/ir"
)

// WriteEpisode inserts an episode and its trace entries.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteEpisode(ctx context.Context, ep ir.Episode) error {
	request, err := marshalRequest(ep.Request)
	if err != nil {
		return fmt.Errorf("write episode: %w", err)
	}
	outcome, err := marshalOutcome(ep.Outcome)
	if err != nil {
		return fmt.Errorf("write episode: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO episodes
			(id, seq, operation, target, request, outcome, error, state_hash, engine_version, ir_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			ep.ID,
			ep.Seq,
			string(ep.Operation),
			ep.Target,
			request,
			outcome,
			ep.Error,
			ep.StateHash,
			ep.EngineVersion,
			ep.IRVersion,
		)
		if err != nil {
			return fmt.Errorf("write episode: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		for _, e := range ep.Trace {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO trace_entries (episode_id, seq, kind, message)
				VALUES (?, ?, ?, ?)
			`, ep.ID, e.Seq, e.Kind, e.Message); err != nil {
				return fmt.Errorf("write trace entry %d: %w", e.Seq, err)
			}
		}
		return nil
	})
}

// ReadEpisode returns one episode with its full trace, or an error wrapping
// ir.ErrEpisodeNotFound.
func (s *Store) ReadEpisode(ctx context.Context, id string) (ir.Episode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, operation, target, request, outcome, error, state_hash, engine_version, ir_version
		FROM episodes
		WHERE id = ?
	`, id)

	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Episode{}, fmt.Errorf("read episode %s: %w", id, ir.ErrEpisodeNotFound)
	}
	if err != nil {
		return ir.Episode{}, fmt.Errorf("read episode %s: %w", id, err)
	}

	ep.Trace, err = s.readTrace(ctx, id)
	if err != nil {
		return ir.Episode{}, err
	}
	return ep, nil
}

// ListEpisodes returns every episode without its trace.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no episodes exist.
func (s *Store) ListEpisodes(ctx context.Context) ([]ir.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, operation, target, request, outcome, error, state_hash, engine_version, ir_version
		FROM episodes
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	episodes := []ir.Episode{}
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}

// LastSeq returns the highest stored episode seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM episodes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) readTrace(ctx context.Context, episodeID string) ([]ir.TraceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, message
		FROM trace_entries
		WHERE episode_id = ?
		ORDER BY seq ASC
	`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	trace := []ir.TraceRecord{}
	for rows.Next() {
		var e ir.TraceRecord
		if err := rows.Scan(&e.Seq, &e.Kind, &e.Message); err != nil {
			return nil, fmt.Errorf("scan trace entry: %w", err)
		}
		trace = append(trace, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return trace, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row scanner) (ir.Episode, error) {
	var ep ir.Episode
	var op, request, outcome string
	if err := row.Scan(
		&ep.ID,
		&ep.Seq,
		&op,
		&ep.Target,
		&request,
		&outcome,
		&ep.Error,
		&ep.StateHash,
		&ep.EngineVersion,
		&ep.IRVersion,
	); err != nil {
		return ir.Episode{}, err
	}
	ep.Operation = ir.Operation(op)

	var err error
	if ep.Request, err = unmarshalRequest(request); err != nil {
		return ir.Episode{}, err
	}
	if ep.Outcome, err = unmarshalOutcome(outcome); err != nil {
		return ir.Episode{}, err
	}
	return ep, nil
}
