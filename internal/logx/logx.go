package logx

import (
	"fmt"
	"os"
)

// Sink carries the two logging callbacks threaded through the pipeline.
// A zero Sink is silent; use Default for console output.
type Sink struct {
	Info func(format string, args ...any)
	Warn func(format string, args ...any)
}

// Default writes info lines to stdout and warnings to stderr.
func Default() Sink {
	return Sink{
		Info: func(format string, args ...any) {
			fmt.Printf(format+"\n", args...)
		},
		Warn: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
}

// Infof forwards to the info callback if one is set.
func (s Sink) Infof(format string, args ...any) {
	if s.Info != nil {
		s.Info(format, args...)
	}
}

// Warnf forwards to the warn callback if one is set.
func (s Sink) Warnf(format string, args ...any) {
	if s.Warn != nil {
		s.Warn(format, args...)
	}
}
