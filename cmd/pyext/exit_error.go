package main

import (
	"errors"
	"fmt"

	"github.com/contriboss/pyext-go"
)

// Exit codes per failure class.
const (
	exitFailure         = 1
	exitUsage           = 2
	exitMetadata        = 3
	exitLibraryNotFound = 4
	exitArtifactCopy    = 5
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// classify maps packaging errors onto exit codes.
func classify(err error) error {
	if err == nil {
		return nil
	}
	code := exitFailure
	switch {
	case errors.Is(err, pyext.ErrMetadataLoad):
		code = exitMetadata
	case errors.Is(err, pyext.ErrLibraryNotFound):
		code = exitLibraryNotFound
	case errors.Is(err, pyext.ErrArtifactCopy):
		code = exitArtifactCopy
	}
	return &ExitError{Code: code, Err: err}
}
