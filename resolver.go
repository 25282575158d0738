package pyext

import "path/filepath"

// LibrarySearcher is the library search function exposed by a metadata unit.
// *Metadata implements it.
type LibrarySearcher interface {
	// FindLibPath returns candidate library paths in priority order.
	FindLibPath(extraDirs ...string) []string
	// SearchPaths returns every location that was considered, for diagnostics.
	SearchPaths(extraDirs ...string) []string
}

// ResolveLibrary calls the search function and selects the canonical library.
//
// Candidates that do not exist (or are not regular files) are dropped; the
// first survivor becomes the primary library with its path unchanged. If no
// candidate survives, a *LibraryNotFoundError lists what was searched.
// Resolution reads only the filesystem and caches nothing.
func ResolveLibrary(search LibrarySearcher, extraDirs ...string) (*LibrarySet, error) {
	candidates := search.FindLibPath(extraDirs...)

	set := &LibrarySet{}
	for _, path := range candidates {
		if !isRegularFile(path) {
			continue
		}
		set.Candidates = append(set.Candidates, LibraryDescriptor{
			Path: path,
			Name: filepath.Base(path),
		})
	}

	if len(set.Candidates) == 0 {
		searched := candidates
		if len(searched) == 0 {
			searched = search.SearchPaths(extraDirs...)
		}
		return nil, &LibraryNotFoundError{Searched: searched}
	}

	set.Primary = set.Candidates[0]
	return set, nil
}
