// Package slot searches feasible time slots for an activity against the
// availability index.
package slot

import (
	"time"

	"github.com/kilianp07/careplan/core/availability"
	"github.com/kilianp07/careplan/core/model"
)

// DefaultHorizonDays is the look-ahead used when none is configured.
const DefaultHorizonDays = 14

// DefaultGranularity aligns candidate start times.
const DefaultGranularity = 15 * time.Minute

// Options tunes the search.
type Options struct {
	HorizonDays int
	Granularity time.Duration
}

// Candidate is a feasible placement. Free is the common free window of all
// required resources observed when the candidate was produced.
type Candidate struct {
	Day   time.Time
	Start model.Clock
	Band  string
	Free  model.Interval
}

// Window returns the interval the activity would occupy.
func (c Candidate) Window(d time.Duration) model.Interval { return model.Window(c.Start, d) }

// Finder produces candidate slots for activities.
type Finder struct {
	index       *availability.Index
	table       *Table
	horizon     int
	granularity model.Clock
}

// NewFinder creates a Finder. Zero options fall back to the defaults.
func NewFinder(idx *availability.Index, table *Table, opts Options) *Finder {
	if table == nil {
		table = DefaultTable()
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = DefaultHorizonDays
	}
	g := model.Clock(opts.Granularity / time.Minute)
	if g <= 0 {
		g = model.Clock(DefaultGranularity / time.Minute)
	}
	return &Finder{index: idx, table: table, horizon: opts.HorizonDays, granularity: g}
}

// HorizonDays returns the configured look-ahead.
func (f *Finder) HorizonDays() int { return f.horizon }

// Search returns the candidate sequence for activity a whose occurrence is
// due on target. The sequence is evaluated lazily against the current state of
// the index.
func (f *Finder) Search(a model.Activity, target time.Time) (*Sequence, error) {
	bands, err := f.table.BandsFor(a)
	if err != nil {
		return nil, err
	}
	target = model.Day(target)
	end := target.AddDate(0, 0, f.horizon)
	var window, beyond []time.Time
	for _, d := range f.index.Days() {
		switch {
		case d.Before(target):
		case d.Before(end):
			window = append(window, d)
		default:
			beyond = append(beyond, d)
		}
	}
	return &Sequence{
		f:        f,
		activity: a,
		ids:      a.ResourceIDs(),
		bands:    bands,
		days:     window,
		beyond:   beyond,
	}, nil
}

// Sequence is a finite, restartable iterator over candidates ordered by band
// preference first and by ascending day within a band.
type Sequence struct {
	f        *Finder
	activity model.Activity
	ids      []string
	bands    []Band
	days     []time.Time
	beyond   []time.Time

	band, day int
	pending   []Candidate
}

// Next returns the next feasible candidate. ok is false once the look-ahead is
// exhausted; exhaustion is a normal outcome, not an error.
func (s *Sequence) Next() (c Candidate, ok bool) {
	for len(s.pending) == 0 {
		if s.band >= len(s.bands) {
			return Candidate{}, false
		}
		if s.day >= len(s.days) {
			s.band++
			s.day = 0
			continue
		}
		s.pending = s.f.candidates(s.ids, s.activity.Duration(), s.bands[s.band], s.days[s.day])
		s.day++
	}
	c, s.pending = s.pending[0], s.pending[1:]
	return c, true
}

// Reset rewinds the sequence to its first candidate.
func (s *Sequence) Reset() {
	s.band, s.day, s.pending = 0, 0, nil
}

// Cause explains an exhausted sequence: HorizonExceeded when a feasible slot
// exists on a known day past the look-ahead, NoFeasibleIntersection otherwise.
func (s *Sequence) Cause() model.Reason {
	for _, b := range s.bands {
		for _, d := range s.beyond {
			if len(s.f.candidates(s.ids, s.activity.Duration(), b, d)) > 0 {
				return model.ReasonHorizonExceeded
			}
		}
	}
	return model.ReasonNoFeasibleIntersection
}

// candidates lists the earliest aligned start in every common free window of
// the day that fits d inside band b.
func (f *Finder) candidates(ids []string, d time.Duration, b Band, day time.Time) []Candidate {
	if d <= 0 || len(ids) == 0 {
		return nil
	}
	var out []Candidate
	for _, free := range f.index.IntersectFree(ids, day) {
		clip := free.Clip(b.Window)
		start := f.align(clip.Start)
		if start.Add(d) <= clip.End {
			out = append(out, Candidate{Day: day, Start: start, Band: b.Name, Free: free})
		}
	}
	return out
}

func (f *Finder) align(c model.Clock) model.Clock {
	g := f.granularity
	if r := c % g; r != 0 {
		return c + g - r
	}
	return c
}
