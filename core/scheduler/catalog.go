package scheduler

import (
	"errors"
	"sort"
	"strings"

	"github.com/kilianp07/careplan/core/availability"
	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/slot"
)

// ValidateCatalog checks every activity against the availability index and
// the band table. It returns the parsed frequencies of the accepted
// activities keyed by id, and every problem found as joined
// *MalformedInputError values. A rejected activity is left out of the
// result, and so is any activity that lists it as a backup. Members of a
// backup cycle are rejected together.
func ValidateCatalog(activities []model.Activity, idx *availability.Index, table *slot.Table) (map[string]Frequency, error) {
	var errs []error
	rejected := make(map[string]struct{})
	byID := make(map[string]model.Activity, len(activities))
	for _, a := range activities {
		if strings.TrimSpace(a.ID) == "" {
			errs = append(errs, malformed(a.Name, "missing id"))
			continue
		}
		if _, dup := byID[a.ID]; dup {
			errs = append(errs, malformed(a.ID, "duplicate id"))
			rejected[a.ID] = struct{}{}
			continue
		}
		byID[a.ID] = a
	}

	freqs := make(map[string]Frequency, len(byID))
	for id, a := range byID {
		var problems []error
		if !a.Type.Valid() {
			problems = append(problems, malformed(id, "missing or unknown activity type"))
		}
		f, err := ParseFrequency(a.Frequency)
		if err != nil {
			problems = append(problems, malformed(id, "%v", err))
		}
		if a.Minutes <= 0 {
			problems = append(problems, malformed(id, "duration must be positive"))
		} else if a.Minutes > model.MinutesPerDay {
			problems = append(problems, malformed(id, "duration exceeds one day"))
		}
		problems = append(problems, checkResources(a, idx)...)
		if table != nil {
			if err := table.Check(a.Bands); err != nil {
				problems = append(problems, malformed(id, "%v", err))
			}
		}
		for _, b := range a.Backups {
			switch {
			case b == id:
				problems = append(problems, malformed(id, "lists itself as backup"))
			case !contains(byID, b):
				problems = append(problems, malformed(id, "unknown backup %s", b))
			}
		}
		if len(problems) > 0 {
			errs = append(errs, problems...)
			rejected[id] = struct{}{}
			continue
		}
		freqs[id] = f
	}

	graph := make(map[string]model.Activity, len(byID))
	for id, a := range byID {
		graph[id] = a
	}
	for {
		cycle := backupCycle(activities, graph)
		if cycle == nil {
			break
		}
		errs = append(errs, malformed(cycle[0], "backup cycle %s", strings.Join(cycle, " -> ")))
		for _, id := range cycle {
			rejected[id] = struct{}{}
			delete(graph, id)
		}
	}

	// Dropping an activity drops the activities relying on it as a backup.
	for changed := true; changed; {
		changed = false
		for _, a := range activities {
			if _, ok := freqs[a.ID]; !ok {
				continue
			}
			if _, gone := rejected[a.ID]; gone {
				delete(freqs, a.ID)
				continue
			}
			for _, b := range a.Backups {
				if _, gone := rejected[b]; gone {
					errs = append(errs, malformed(a.ID, "backup %s rejected", b))
					rejected[a.ID] = struct{}{}
					delete(freqs, a.ID)
					changed = true
					break
				}
			}
		}
	}
	return freqs, sortedErrors(errs, activities)
}

// sortedErrors joins errs ordered by the catalog position of the activity
// they name, so reports do not depend on map iteration.
func sortedErrors(errs []error, activities []model.Activity) error {
	if len(errs) == 0 {
		return nil
	}
	pos := make(map[string]int, len(activities))
	for i := len(activities) - 1; i >= 0; i-- {
		pos[activities[i].ID] = i
	}
	key := func(err error) int {
		var mie *MalformedInputError
		if errors.As(err, &mie) {
			if p, ok := pos[mie.ActivityID]; ok {
				return p
			}
		}
		return len(activities)
	}
	sort.SliceStable(errs, func(i, j int) bool { return key(errs[i]) < key(errs[j]) })
	return errors.Join(errs...)
}

func checkResources(a model.Activity, idx *availability.Index) []error {
	if len(a.Resources) == 0 {
		return []error{malformed(a.ID, "no required resources")}
	}
	var errs []error
	seen := make(map[string]struct{}, len(a.Resources))
	for _, r := range a.Resources {
		if _, dup := seen[r.ID]; dup {
			errs = append(errs, malformed(a.ID, "resource %s listed twice", r.ID))
			continue
		}
		seen[r.ID] = struct{}{}
		typ, ok := idx.Type(r.ID)
		if !ok {
			errs = append(errs, malformed(a.ID, "no availability for %s %s", r.Type, r.ID))
			continue
		}
		if r.Type != 0 && r.Type != typ {
			errs = append(errs, malformed(a.ID, "resource %s is a %s, not a %s", r.ID, typ, r.Type))
		}
	}
	return errs
}

func contains(m map[string]model.Activity, id string) bool {
	_, ok := m[id]
	return ok
}

// backupCycle returns the first cycle found in the backup graph, or nil.
// Activities are visited in catalog order so the report is stable.
func backupCycle(activities []model.Activity, byID map[string]model.Activity) []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(byID))
	var stack []string
	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = grey
		stack = append(stack, id)
		for _, b := range byID[id].Backups {
			if b == id || !contains(byID, b) {
				continue
			}
			switch color[b] {
			case grey:
				for i, s := range stack {
					if s == b {
						return append(append([]string(nil), stack[i:]...), b)
					}
				}
			case white:
				if c := visit(b); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}
	for _, a := range activities {
		if _, ok := byID[a.ID]; ok && color[a.ID] == white {
			if c := visit(a.ID); c != nil {
				return c
			}
		}
	}
	return nil
}
