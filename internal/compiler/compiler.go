package compiler

import (
	"fmt"
	"strings"
	"time"
)

// Stats is the opaque handle produced once per compile. The only required
// operation is rendering a human-readable report; stats are not retained
// beyond immediate logging.
type Stats interface {
	// Report renders the build report. The condensed form collapses
	// per-module output to a single summary line, to keep a nested
	// development console readable.
	Report(condensed bool) string

	// Duration is how long the compile took.
	Duration() time.Duration
}

// Callbacks receives continuous-mode build results. OnDone is invoked once
// per completed compile, including the very first one. OnError is invoked
// for failed rebuilds; in continuous mode a failure is report-only and the
// session keeps serving the last successful build.
type Callbacks struct {
	OnDone  func(Stats)
	OnError func(error)
}

// buildStats is the exec-backed Stats implementation.
type buildStats struct {
	output   string
	duration time.Duration
}

func (s *buildStats) Report(condensed bool) string {
	summary := fmt.Sprintf("Compiled successfully in %s", s.duration.Round(time.Millisecond))
	out := strings.TrimSpace(s.output)
	if condensed || out == "" {
		return summary
	}
	return out + "\n" + summary
}

func (s *buildStats) Duration() time.Duration {
	return s.duration
}
