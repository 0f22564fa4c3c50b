package model

import (
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open window [Start, End) inside a single day.
type Interval struct {
	Start Clock `json:"start" yaml:"start"`
	End   Clock `json:"end" yaml:"end"`
}

// Window builds the interval starting at start and lasting d.
func Window(start Clock, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Len returns the interval length.
func (iv Interval) Len() time.Duration { return time.Duration(iv.End-iv.Start) * time.Minute }

// Empty reports whether the interval holds no time.
func (iv Interval) Empty() bool { return iv.End <= iv.Start }

// Contains reports whether other lies fully inside iv.
func (iv Interval) Contains(other Interval) bool {
	return other.Start >= iv.Start && other.End <= iv.End
}

// Overlaps reports whether the two intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Clip returns the part of iv that lies inside bound.
func (iv Interval) Clip(bound Interval) Interval {
	out := iv
	if bound.Start > out.Start {
		out.Start = bound.Start
	}
	if bound.End < out.End {
		out.End = bound.End
	}
	return out
}

func (iv Interval) String() string { return fmt.Sprintf("%s-%s", iv.Start, iv.End) }

// Validate checks that the interval is non-empty and within a day.
func (iv Interval) Validate() error {
	if iv.Start < 0 || iv.End > MinutesPerDay {
		return fmt.Errorf("interval %s outside of day", iv)
	}
	if iv.Empty() {
		return fmt.Errorf("interval %s is empty", iv)
	}
	return nil
}

// Normalize sorts the intervals and merges overlapping or touching ones so the
// result is an ordered sequence of disjoint intervals. Empty intervals are dropped.
func Normalize(in []Interval) []Interval {
	list := make([]Interval, 0, len(in))
	for _, iv := range in {
		if !iv.Empty() {
			list = append(list, iv)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Start == list[j].Start {
			return list[i].End < list[j].End
		}
		return list[i].Start < list[j].Start
	})
	var out []Interval
	for _, iv := range list {
		n := len(out)
		if n > 0 && iv.Start <= out[n-1].End {
			if iv.End > out[n-1].End {
				out[n-1].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
