// Package availability keeps the per-resource free-time calendars used
// while building a schedule. Reservations carve booked windows out of the
// free intervals; the index is owned by a single run.
package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/careplan/core/model"
)

type calendar struct {
	typ  model.ResourceType
	days map[time.Time][]model.Interval
}

// Index holds the free intervals of every resource, day by day.
type Index struct {
	resources map[string]*calendar
	days      []time.Time
}

// New builds an index from availability records. Intervals are normalized to
// ordered disjoint sequences.
func New(records []model.ResourceAvailability) (*Index, error) {
	idx := &Index{resources: make(map[string]*calendar, len(records))}
	seen := make(map[time.Time]struct{})
	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("availability record without id")
		}
		if _, dup := idx.resources[r.ID]; dup {
			return nil, fmt.Errorf("duplicate availability for resource %s", r.ID)
		}
		cal := &calendar{typ: r.Type, days: make(map[time.Time][]model.Interval, len(r.Days))}
		for ds, ivs := range r.Days {
			day, err := model.ParseDay(ds)
			if err != nil {
				return nil, fmt.Errorf("resource %s: %w", r.ID, err)
			}
			for _, iv := range ivs {
				if err := iv.Validate(); err != nil {
					return nil, fmt.Errorf("resource %s on %s: %w", r.ID, ds, err)
				}
			}
			cal.days[day] = model.Normalize(ivs)
			seen[day] = struct{}{}
		}
		idx.resources[r.ID] = cal
	}
	for d := range seen {
		idx.days = append(idx.days, d)
	}
	sort.Slice(idx.days, func(i, j int) bool { return idx.days[i].Before(idx.days[j]) })
	return idx, nil
}

// Has reports whether the resource is indexed.
func (x *Index) Has(id string) bool {
	_, ok := x.resources[id]
	return ok
}

// Type returns the type of an indexed resource.
func (x *Index) Type(id string) (model.ResourceType, bool) {
	c, ok := x.resources[id]
	if !ok {
		return 0, false
	}
	return c.typ, true
}

// Resources returns the indexed resource ids in lexical order.
func (x *Index) Resources() []string {
	ids := make([]string, 0, len(x.resources))
	for id := range x.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Days returns every day known to at least one resource, ascending.
func (x *Index) Days() []time.Time {
	out := make([]time.Time, len(x.days))
	copy(out, x.days)
	return out
}

// Bounds returns the first and last known day. ok is false for an empty index.
func (x *Index) Bounds() (first, last time.Time, ok bool) {
	if len(x.days) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return x.days[0], x.days[len(x.days)-1], true
}

// Free returns a copy of the free intervals of a resource on a day.
func (x *Index) Free(id string, day time.Time) []model.Interval {
	c, ok := x.resources[id]
	if !ok {
		return nil
	}
	src := c.days[model.Day(day)]
	out := make([]model.Interval, len(src))
	copy(out, src)
	return out
}

// IsFree reports whether [start, start+d) lies inside a single free interval of
// the resource on the given day.
func (x *Index) IsFree(id string, day time.Time, start model.Clock, d time.Duration) bool {
	c, ok := x.resources[id]
	if !ok {
		return false
	}
	return containing(c.days[model.Day(day)], model.Window(start, d)) >= 0
}

// IntersectFree returns the windows in which every given resource is free on
// the day. The lists are swept together with one cursor per resource, which
// keeps the cost linear in the total number of intervals.
func (x *Index) IntersectFree(ids []string, day time.Time) []model.Interval {
	if len(ids) == 0 {
		return nil
	}
	day = model.Day(day)
	lists := make([][]model.Interval, len(ids))
	for i, id := range ids {
		c, ok := x.resources[id]
		if !ok {
			return nil
		}
		lists[i] = c.days[day]
		if len(lists[i]) == 0 {
			return nil
		}
	}
	cursor := make([]int, len(lists))
	var out []model.Interval
	for {
		lo, hi := model.Clock(0), model.Clock(model.MinutesPerDay)
		minEnd := 0
		for i, l := range lists {
			iv := l[cursor[i]]
			if iv.Start > lo {
				lo = iv.Start
			}
			if iv.End < hi {
				hi = iv.End
				minEnd = i
			}
		}
		if lo < hi {
			out = append(out, model.Interval{Start: lo, End: hi})
		}
		cursor[minEnd]++
		if cursor[minEnd] == len(lists[minEnd]) {
			return out
		}
	}
}

// Reserve marks iv busy for every given resource. Either all resources are
// reserved or, when one of them is not fully free, none is and an
// *OverlapError naming that resource is returned.
func (x *Index) Reserve(ids []string, day time.Time, iv model.Interval) error {
	if err := iv.Validate(); err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	day = model.Day(day)
	pos := make([]int, len(ids))
	for i, id := range ids {
		c, ok := x.resources[id]
		if !ok {
			return &UnknownResourceError{ResourceID: id}
		}
		for _, prev := range ids[:i] {
			if prev == id {
				return fmt.Errorf("reserve: resource %s listed twice", id)
			}
		}
		pos[i] = containing(c.days[day], iv)
		if pos[i] < 0 {
			return &OverlapError{ResourceID: id, Day: day, Interval: iv}
		}
	}
	for i, id := range ids {
		c := x.resources[id]
		c.days[day] = carve(c.days[day], pos[i], iv)
	}
	return nil
}

// containing returns the index of the interval holding w, or -1.
func containing(list []model.Interval, w model.Interval) int {
	if w.Empty() {
		return -1
	}
	i := sort.Search(len(list), func(i int) bool { return list[i].End >= w.End })
	if i < len(list) && list[i].Contains(w) {
		return i
	}
	return -1
}

// carve removes w from list[i], splitting it when w sits in the middle.
func carve(list []model.Interval, i int, w model.Interval) []model.Interval {
	host := list[i]
	var repl []model.Interval
	if host.Start < w.Start {
		repl = append(repl, model.Interval{Start: host.Start, End: w.Start})
	}
	if w.End < host.End {
		repl = append(repl, model.Interval{Start: w.End, End: host.End})
	}
	out := make([]model.Interval, 0, len(list)-1+len(repl))
	out = append(out, list[:i]...)
	out = append(out, repl...)
	out = append(out, list[i+1:]...)
	return out
}
