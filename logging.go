package pyext

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger returns the packager's logger writing to w.
// Verbose enables debug output (candidate paths, request details).
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "pyext",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
