// Package report accumulates per-record problems into a run-level summary.
// Individual failures are counted, never fatal; the pipeline decides at the
// end of a run whether the totals warrant a non-zero exit.
package report

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind is the failure taxonomy for a pipeline run
type Kind string

const (
	KindParse            Kind = "parse_error"        // malformed line or file, skipped
	KindDroppedBand      Kind = "dropped_band"       // band removed (non-positive flux error)
	KindDuplicateID      Kind = "duplicate_id"       // loader de-duplication, last occurrence kept
	KindMissingStats     Kind = "missing_stats"      // record lacks residual or vgfb
	KindNoCommonBand     Kind = "no_common_band"     // pair unmergeable, excluded
	KindNonPositiveScale Kind = "non_positive_scale" // merge scale factor not > 0, excluded
	KindPlot             Kind = "plot_error"         // figure rendering failed for one object
)

const maxSamples = 5

// Report is a concurrency-safe tally of problems by kind. The zero value
// is not usable; call New.
type Report struct {
	mu      sync.Mutex
	counts  map[Kind]int
	samples map[Kind][]string
}

// New returns an empty report
func New() *Report {
	return &Report{
		counts:  make(map[Kind]int),
		samples: make(map[Kind][]string),
	}
}

// Add records one problem of the given kind. The detail is kept as a
// sample for the summary, capped per kind.
func (r *Report) Add(kind Kind, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[kind]++
	if len(r.samples[kind]) < maxSamples {
		r.samples[kind] = append(r.samples[kind], detail)
	}
}

// Addf is Add with a formatted detail
func (r *Report) Addf(kind Kind, format string, args ...any) {
	r.Add(kind, fmt.Sprintf(format, args...))
}

// Count returns the tally for one kind
func (r *Report) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[kind]
}

// Total returns the tally across all kinds
func (r *Report) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.counts {
		total += n
	}
	return total
}

// Summary renders a human-readable multi-line summary, kinds sorted for
// stable output. Empty when nothing was recorded.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.counts) == 0 {
		return ""
	}

	kinds := make([]string, 0, len(r.counts))
	for k := range r.counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	var b strings.Builder
	for _, k := range kinds {
		kind := Kind(k)
		fmt.Fprintf(&b, "%s: %d\n", k, r.counts[kind])
		for _, s := range r.samples[kind] {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
		if extra := r.counts[kind] - len(r.samples[kind]); extra > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", extra)
		}
	}
	return b.String()
}

// Counts returns a copy of the per-kind tallies
func (r *Report) Counts() map[Kind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Kind]int, len(r.counts))
	for k, n := range r.counts {
		out[k] = n
	}
	return out
}
