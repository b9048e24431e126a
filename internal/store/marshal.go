package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/dtable/internal/ir"
)

// marshalRequest converts per-request locators to canonical JSON TEXT.
func marshalRequest(req map[string]map[string]string) (string, error) {
	if req == nil {
		req = map[string]map[string]string{}
	}
	data, err := ir.MarshalCanonical(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	return string(data), nil
}

// marshalOutcome converts an outcome map to canonical JSON TEXT.
func marshalOutcome(out map[string]string) (string, error) {
	if out == nil {
		out = map[string]string{}
	}
	data, err := ir.MarshalCanonical(out)
	if err != nil {
		return "", fmt.Errorf("marshal outcome: %w", err)
	}
	return string(data), nil
}

// unmarshalRequest parses canonical JSON TEXT. An empty object yields nil so
// that a round trip of a nil request stays nil.
func unmarshalRequest(data string) (map[string]map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var req map[string]map[string]string
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	return req, nil
}

// unmarshalOutcome parses canonical JSON TEXT. An empty object yields nil.
func unmarshalOutcome(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal outcome: %w", err)
	}
	return out, nil
}
