// Package validate checks finished schedules for double-booked resources.
package validate

import (
	"sort"

	"github.com/kilianp07/careplan/core/model"
)

// Conflicts scans the booked occurrences of s and reports every adjacent
// pair that overlaps on a shared resource. Intervals are compared with an
// inclusive start and an exclusive end, so back-to-back bookings are valid.
// The schedule is never modified. Results are ordered by resource id, then
// by start of the first occurrence.
func Conflicts(s model.Schedule) []model.Conflict {
	groups := make(map[string][]model.ScheduledOccurrence)
	for _, o := range s.Occurrences {
		if !o.Status.Booked() {
			continue
		}
		for _, r := range o.Resources {
			groups[r] = append(groups[r], o)
		}
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []model.Conflict
	for _, id := range ids {
		g := groups[id]
		sort.SliceStable(g, func(i, j int) bool {
			a, b := g[i].StartTime(), g[j].StartTime()
			if !a.Equal(b) {
				return a.Before(b)
			}
			return g[i].EndTime().Before(g[j].EndTime())
		})
		// last is the occurrence with the latest end seen so far.
		last := 0
		for i := 1; i < len(g); i++ {
			if g[i].StartTime().Before(g[last].EndTime()) {
				out = append(out, model.Conflict{ResourceID: id, OccurrenceA: g[last], OccurrenceB: g[i]})
			}
			if g[i].EndTime().After(g[last].EndTime()) {
				last = i
			}
		}
	}
	return out
}

// Valid reports whether s has no resource conflicts.
func Valid(s model.Schedule) bool { return len(Conflicts(s)) == 0 }
