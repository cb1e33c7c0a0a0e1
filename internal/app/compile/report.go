package compile

import (
	"time"

	"github.com/alexisbeaulieu97/themekit/internal/config"
	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
)

// State is the lifecycle position of a definition within one run.
type State string

const (
	StateUnvalidated       State = "unvalidated"
	StateStructurallyValid State = "structurally_valid"
	StateReady             State = "ready"
	StateInvalid           State = "invalid"
)

func (s State) String() string { return string(s) }

// Result is the outcome for a single definition.
type Result struct {
	Descriptor theme.Descriptor
	Location   theme.Location
	State      State
	Code       theme.ErrorCode
	Err        error
	// Cached is set when the outcome was reused from the status cache.
	Cached bool
	// Artifact is set when a record was emitted for the definition.
	Artifact *Artifact
	Duration time.Duration
}

// Report summarises a compile run. Results are sorted by descriptor.
type Report struct {
	Dir      string
	Results  []Result
	Warnings []config.Warning
	// Waves lists the acyclic definitions in the order they were validated.
	// Definitions on or behind a cycle run after the last wave.
	Waves    [][]theme.Descriptor
	Duration time.Duration
}

// Total returns the number of definitions considered.
func (r *Report) Total() int { return len(r.Results) }

// Ready returns the number of definitions that passed both passes.
func (r *Report) Ready() int { return r.count(StateReady) }

// Invalid returns the number of definitions that failed validation.
func (r *Report) Invalid() int { return r.count(StateInvalid) }

// Unvalidated returns the number of definitions never reached, typically
// because the run was cancelled.
func (r *Report) Unvalidated() int { return r.count(StateUnvalidated) }

// CacheHits returns the number of outcomes reused from the status cache.
func (r *Report) CacheHits() int {
	hits := 0
	for _, res := range r.Results {
		if res.Cached {
			hits++
		}
	}
	return hits
}

// AllReady reports whether every definition is ready.
func (r *Report) AllReady() bool {
	return r.Ready() == r.Total()
}

// ExitCode returns 0 when every definition is ready and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.AllReady() {
		return 0
	}
	return 1
}

// Lookup returns the result recorded for d.
func (r *Report) Lookup(d theme.Descriptor) (Result, bool) {
	for _, res := range r.Results {
		if res.Descriptor == d {
			return res, true
		}
	}
	return Result{}, false
}

func (r *Report) count(state State) int {
	n := 0
	for _, res := range r.Results {
		if res.State == state {
			n++
		}
	}
	return n
}
