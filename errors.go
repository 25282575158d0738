package pyext

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMetadataLoad is returned when the metadata unit cannot be loaded.
	ErrMetadataLoad = errors.New("metadata load failed")
	// ErrLibraryNotFound is returned when no native library exists on disk.
	ErrLibraryNotFound = errors.New("native library not found")
	// ErrArtifactCopy is returned when a library cannot be staged into the package tree.
	ErrArtifactCopy = errors.New("artifact copy failed")
	// ErrDistribution is returned when the final distribution call fails.
	ErrDistribution = errors.New("distribution failed")
)

// MetadataLoadError reports a missing, unreadable or invalid metadata file.
type MetadataLoadError struct {
	Path string
	Err  error
}

func (e *MetadataLoadError) Error() string {
	return fmt.Sprintf("load metadata %s: %v", e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *MetadataLoadError) Unwrap() []error {
	return []error{ErrMetadataLoad, e.Err}
}

// LibraryNotFoundError reports that none of the searched candidates exist.
type LibraryNotFoundError struct {
	Searched []string // Candidate paths that were checked
}

func (e *LibraryNotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return "cannot find native library: search returned no candidates"
	}
	return fmt.Sprintf("cannot find native library in candidate path, candidates are:\n%s",
		strings.Join(e.Searched, "\n"))
}

func (e *LibraryNotFoundError) Unwrap() error {
	return ErrLibraryNotFound
}

// ArtifactCopyError reports a library that could not be copied into the package.
type ArtifactCopyError struct {
	Source string
	Dest   string
	Err    error
}

func (e *ArtifactCopyError) Error() string {
	return fmt.Sprintf("copy %s to %s: %v", e.Source, e.Dest, e.Err)
}

func (e *ArtifactCopyError) Unwrap() []error {
	return []error{ErrArtifactCopy, e.Err}
}

// DistributionError creates a standardized distribution error with output context.
//
// With output the message looks like:
//
//	setuptools bdist_wheel failed: exit status 1
//
//	Build output:
//	running bdist_wheel
//	error: command 'gcc' failed
func DistributionError(distributor string, output []string, err error) error {
	outputStr := strings.TrimSpace(strings.Join(output, "\n"))

	prefix := fmt.Sprintf("%s failed", distributor)
	if err != nil {
		prefix = fmt.Sprintf("%s failed: %v", distributor, err)
	}

	if outputStr != "" {
		return fmt.Errorf("%w: %s\n\nBuild output:\n%s", ErrDistribution, prefix, outputStr)
	}
	return fmt.Errorf("%w: %s", ErrDistribution, prefix)
}
