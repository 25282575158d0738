package pyext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/magefile/mage/sh"
)

// ManifestFileName is the packaging tool's inclusion manifest.
const ManifestFileName = "MANIFEST.in"

// InclusionManifest lists files, relative to the package directory, that the
// portable package must bundle. Entries keep discovery order and are unique.
type InclusionManifest struct {
	entries []string
	seen    map[string]struct{}
}

// NewInclusionManifest returns an empty manifest.
func NewInclusionManifest() *InclusionManifest {
	return &InclusionManifest{seen: make(map[string]struct{})}
}

// Add appends entry unless it is already present. It reports whether the
// entry was added.
func (m *InclusionManifest) Add(entry string) bool {
	entry = path.Clean(strings.ReplaceAll(entry, "\\", "/"))
	if _, ok := m.seen[entry]; ok {
		return false
	}
	m.seen[entry] = struct{}{}
	m.entries = append(m.entries, entry)
	return true
}

// Entries returns a copy of the manifest entries.
func (m *InclusionManifest) Entries() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.entries...)
}

// Len returns the number of entries.
func (m *InclusionManifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Render formats the manifest as MANIFEST.in directives, one per line.
func (m *InclusionManifest) Render(packageName string) string {
	var sb strings.Builder
	for _, entry := range m.Entries() {
		fmt.Fprintf(&sb, "include %s\n", path.Join(packageName, entry))
	}
	return sb.String()
}

// Materialize writes the manifest to file for the single call that needs it.
//
// The returned release func undoes the write: a file that did not exist is
// removed, a pre-existing manifest gets its original content back. Callers
// defer release right away so the manifest never outlives the call.
func (m *InclusionManifest) Materialize(file, packageName string) (release func() error, err error) {
	original, readErr := os.ReadFile(file)
	existed := readErr == nil
	if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read existing manifest %s: %w", file, readErr)
	}

	content := m.Render(packageName)
	if existed {
		content = string(original) + "\n" + content
	}

	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest %s: %w", file, err)
	}

	release = func() error {
		if existed {
			return os.WriteFile(file, original, 0o644)
		}
		return sh.Rm(file)
	}
	return release, nil
}
