package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainState = "dtable/state/v1"
	DomainTable = "dtable/table/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash computes a content hash of a state snapshot
// (locator name -> field -> value).
//
// Two snapshots with the same content hash identically regardless of map
// iteration order, which is what lets a recorded episode be compared with a
// replayed one.
func StateHash(state map[string]map[string]string) (string, error) {
	if state == nil {
		state = map[string]map[string]string{}
	}
	canonical, err := MarshalCanonical(state)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// TableHash computes a content hash of a table definition's rows. Source
// line numbers are not part of the hash.
func TableHash(def TableDef) (string, error) {
	rows := make([]any, len(def.Rows))
	for i, r := range def.Rows {
		rows[i] = map[string]any{
			"kind":  string(r.Kind),
			"cells": r.Cells,
		}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"name": def.Name,
		"rows": rows,
	})
	if err != nil {
		return "", fmt.Errorf("TableHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTable, canonical), nil
}

// MustStateHash is like StateHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStateHash(state map[string]map[string]string) string {
	h, err := StateHash(state)
	if err != nil {
		panic(err)
	}
	return h
}
