package checkers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"slices"

	"github.com/fredrikaverpil/shovel"
)

// EnvVar is a Checker whose fingerprint is the combined value of a set of
// environment variables, useful for tasks whose output depends on build
// flags or credentials rather than files.
type EnvVar struct {
	id      string
	names   []string
	clone   bool
	snapped string
}

// NewEnvVar returns an EnvVar checker over names, deriving a stable ID from
// the sorted variable names.
func NewEnvVar(names ...string) *EnvVar {
	return NewEnvVarWithID(deriveID("envvar", names), names...)
}

// NewEnvVarWithID returns an EnvVar checker with an explicit ID.
func NewEnvVarWithID(id string, names ...string) *EnvVar {
	return &EnvVar{id: id, names: append([]string(nil), names...)}
}

func (e *EnvVar) ID() string { return e.id }

func (e *EnvVar) digest() string {
	names := append([]string(nil), e.names...)
	slices.Sort(names)
	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "\x00%s=%s\x00", name, os.Getenv(name))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone snapshots the live environment now.
func (e *EnvVar) Clone() shovel.Checker {
	return &EnvVar{id: e.id, names: e.names, clone: true, snapped: e.digest()}
}

// Check reports whether the clone's snapshotted digest matches the last
// saved one.
func (e *EnvVar) Check() (bool, error) {
	current := e.snapped
	if !e.clone {
		current = e.digest()
	}
	saved, ok := readState(e.id)
	if !ok {
		return false, nil
	}
	return saved == current, nil
}

// Save persists the clone's snapshotted digest.
func (e *EnvVar) Save() error {
	fingerprint := e.snapped
	if !e.clone {
		fingerprint = e.digest()
	}
	return writeState(e.id, fingerprint)
}
