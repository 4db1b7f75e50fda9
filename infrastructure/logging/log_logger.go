// Package logging implements the edge's Logger collaborator (A2): a thin
// wrapper over the standard library logger.
package logging

import (
	"log"

	"overlink/application"
)

// StdLogger is the production application.Logger, backed by the standard
// library's global logger.
type StdLogger struct{}

// NewStdLogger builds a StdLogger.
func NewStdLogger() application.Logger {
	return &StdLogger{}
}

func (StdLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}
