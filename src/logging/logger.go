package logging

import (
	"io"
	"log"
	"os"
)

// New returns a stdout logger whose lines are prefixed with "[component] ".
func New(component string) *log.Logger {
	return log.New(os.Stdout, "["+component+"] ", log.LstdFlags|log.Lmsgprefix)
}

// Discard returns a logger that drops everything written to it.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// OrDiscard returns logger, or a discarding logger when logger is nil.
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
