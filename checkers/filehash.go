package checkers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/fredrikaverpil/shovel"
)

// FileHash is a Checker whose fingerprint is the combined sha256 digest of
// a set of files. Check reports true when the live digest matches what was
// last saved; a missing file contributes a sentinel digest rather than
// erroring, so "files not yet produced" reads as "checker fails" instead of
// aborting the probe.
type FileHash struct {
	id      string
	files   []string
	clone   bool
	snapped string // fingerprint captured at Clone time, used by Check/Save
}

// NewFileHash returns a FileHash over files, deriving a stable ID from the
// sorted file list so the same set of files always persists under the same
// .builder/<id> filename across process runs.
func NewFileHash(files ...string) *FileHash {
	return NewFileHashWithID(deriveID("filehash", files), files...)
}

// NewFileHashWithID returns a FileHash with an explicit, caller-chosen ID.
func NewFileHashWithID(id string, files ...string) *FileHash {
	return &FileHash{id: id, files: append([]string(nil), files...)}
}

func deriveID(kind string, parts []string) string {
	sorted := append([]string(nil), parts...)
	slices.Sort(sorted)
	return kind + "-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(sorted, "|"))).String()
}

// ID implements shovel.Checker.
func (f *FileHash) ID() string { return f.id }

func (f *FileHash) digest() string {
	h := sha256.New()
	for _, path := range f.files {
		fmt.Fprintf(h, "\x00%s\x00", path)
		file, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(h, "missing")
			continue
		}
		_, _ = io.Copy(h, file)
		file.Close()
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone snapshots the live digest now, so a later Save writes exactly what
// Check observed even if the task body goes on to rewrite these files.
func (f *FileHash) Clone() shovel.Checker {
	return &FileHash{id: f.id, files: f.files, clone: true, snapped: f.digest()}
}

// Check reports whether the clone's snapshotted digest matches the last
// saved one. Calling Check on a non-clone is a programming error (the
// engine always operates on clones) and snapshots on the fly instead of
// panicking.
func (f *FileHash) Check() (bool, error) {
	current := f.snapped
	if !f.clone {
		current = f.digest()
	}
	saved, ok := readState(f.id)
	if !ok {
		return false, nil
	}
	return saved == current, nil
}

// Save persists the clone's snapshotted digest.
func (f *FileHash) Save() error {
	fingerprint := f.snapped
	if !f.clone {
		fingerprint = f.digest()
	}
	return writeState(f.id, fingerprint)
}
