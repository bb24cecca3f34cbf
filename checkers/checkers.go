// Package checkers ships example Checker implementations exercising the
// shovel.Checker contract. They are reference material, not part of the
// core engine: a project can implement its own checkers against the same
// interface without depending on this package at all.
package checkers

import (
	"os"
	"path/filepath"
)

// StateDir is the builder directory checkers in this package persist their
// fingerprints under, one file per checker named by its ID().
var StateDir = ".builder"

// statePath returns the persisted-state file path for a checker ID.
func statePath(id string) string {
	return filepath.Join(StateDir, id)
}

// readState returns the previously saved fingerprint for id, or ("", false)
// if nothing has been saved yet.
func readState(id string) (string, bool) {
	data, err := os.ReadFile(statePath(id))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// writeState persists fingerprint under id, creating StateDir if needed.
func writeState(id, fingerprint string) error {
	if err := os.MkdirAll(StateDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(statePath(id), []byte(fingerprint), 0o644)
}
