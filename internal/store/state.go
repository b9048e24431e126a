package store

import (
	"context"
	"database/sql"
	"fmt"
)

// LoadState returns every stored locator with its fields. Locators without
// fields are included with an empty map.
func (s *Store) LoadState(ctx context.Context) (map[string]map[string]string, error) {
	state := make(map[string]map[string]string)

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM locators ORDER BY name COLLATE BINARY`)
	if err != nil {
		return nil, fmt.Errorf("query locators: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan locator: %w", err)
		}
		state[name] = map[string]string{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locators: %w", err)
	}

	fields, err := s.db.QueryContext(ctx, `
		SELECT name, field, value
		FROM locator_fields
		ORDER BY name COLLATE BINARY, field COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("query locator fields: %w", err)
	}
	defer fields.Close()

	for fields.Next() {
		var name, field, value string
		if err := fields.Scan(&name, &field, &value); err != nil {
			return nil, fmt.Errorf("scan locator field: %w", err)
		}
		state[name][field] = value
	}
	if err := fields.Err(); err != nil {
		return nil, fmt.Errorf("iterate locator fields: %w", err)
	}
	return state, nil
}

// SaveLocator replaces the stored fields of one locator in a single
// transaction, creating the locator if needed.
func (s *Store) SaveLocator(ctx context.Context, name string, fields map[string]string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO locators (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("save locator %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM locator_fields WHERE name = ?`, name); err != nil {
			return fmt.Errorf("save locator %s: %w", name, err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO locator_fields (name, field, value) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("save locator %s: %w", name, err)
		}
		defer stmt.Close()
		for field, value := range fields {
			if _, err := stmt.ExecContext(ctx, name, field, value); err != nil {
				return fmt.Errorf("save locator %s field %s: %w", name, field, err)
			}
		}
		return nil
	})
}

// DeleteLocator removes a locator and its fields. Deleting an unknown
// locator is not an error.
func (s *Store) DeleteLocator(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM locators WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete locator %s: %w", name, err)
	}
	return nil
}

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
