// Package deadline filters entries against per-week submission deadlines.
package deadline

import (
	"github.com/okian/geoleague/internal/domain/model"
)

// Deadlines maps a week label to its cutoff in epoch seconds. Weeks without
// a deadline are absent.
type Deadlines map[string]int64

// Keep reports whether a single entry survives the deadline policy:
// weeks without a deadline keep everything, entries of unknown play time
// are kept only when keepMissing is set, and the rest must have been played
// at or before the cutoff.
func Keep(e model.Entry, deadlines Deadlines, keepMissing bool) bool {
	dl, ok := deadlines[e.Week]
	if !ok {
		return true
	}
	if e.PlayedAtEpoch == nil {
		return keepMissing
	}
	return *e.PlayedAtEpoch <= dl
}

// Filter returns the entries that pass Keep, in input order.
// The input slice is not modified.
func Filter(entries []model.Entry, deadlines Deadlines, keepMissing bool) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if Keep(e, deadlines, keepMissing) {
			out = append(out, e)
		}
	}
	return out
}

// SkipReason explains why a filtered report is not produced.
type SkipReason string

// Reasons a filtered report is skipped.
const (
	NotSkipped     SkipReason = ""
	NoDeadlines    SkipReason = "no deadlines configured"
	LookupDisabled SkipReason = "deadlines configured but played-at lookup is disabled"
	NoTimestamps   SkipReason = "deadlines configured but no played-at timestamp could be resolved"
)

// ShouldFilter decides whether the filtered report is worth producing. A
// filtered report built without a single resolved timestamp would just
// mirror the unfiltered one, so it is skipped.
func ShouldFilter(deadlines Deadlines, fetchPlayedAt, anyResolved bool) (bool, SkipReason) {
	switch {
	case len(deadlines) == 0:
		return false, NoDeadlines
	case !fetchPlayedAt:
		return false, LookupDisabled
	case !anyResolved:
		return false, NoTimestamps
	default:
		return true, NotSkipped
	}
}

// AnyResolved reports whether at least one entry carries a played-at time.
func AnyResolved(entries []model.Entry) bool {
	for _, e := range entries {
		if e.HasPlayedAt() {
			return true
		}
	}
	return false
}
