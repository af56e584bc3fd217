// Package store holds what the store backends share.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

// RunsCollection is where import history is kept.
const RunsCollection = "import_runs"

// KeyString encodes a natural key as a stable string. Map keys are sorted
// by encoding/json, so equal keys always encode identically.
func KeyString(key core.Record) (string, error) {
	if len(key) == 0 {
		return "", fmt.Errorf("empty natural key")
	}
	b, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("encode natural key: %w", err)
	}
	return string(b), nil
}
