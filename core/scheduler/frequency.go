package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Frequency demands Count occurrences in every period of PeriodDays days.
type Frequency struct {
	Count      int
	PeriodDays int
}

var namedFrequencies = map[string]Frequency{
	"daily":              {1, 1},
	"once daily":         {1, 1},
	"twice daily":        {2, 1},
	"three times daily":  {3, 1},
	"every other day":    {1, 2},
	"twice a week":       {2, 7},
	"three times a week": {3, 7},
	"weekly":             {1, 7},
	"once a week":        {1, 7},
	"biweekly":           {1, 14},
	"monthly":            {1, 30},
	"every 3 months":     {1, 90},
	"every 6 months":     {1, 180},
	"yearly":             {1, 365},
	"as needed":          {0, 1},
}

var (
	countWords = map[string]int{"once": 1, "twice": 2, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7}
	periodDays = map[string]int{"day": 1, "week": 7, "month": 30}

	timesPer  = regexp.MustCompile(`^(\w+)\s*(?:times|x)?\s*(?:per|a|an|/)\s*(day|week|month)$`)
	everyDays = regexp.MustCompile(`^every\s+(\d+)\s+days?$`)
)

// ParseFrequency parses the frequency text of an activity.
func ParseFrequency(s string) (Frequency, error) {
	v := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if f, ok := namedFrequencies[v]; ok {
		return f, nil
	}
	if m := everyDays.FindStringSubmatch(v); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 0 {
			return Frequency{Count: 1, PeriodDays: n}, nil
		}
	}
	if m := timesPer.FindStringSubmatch(strings.ReplaceAll(v, "/", " / ")); m != nil {
		n, ok := countWords[m[1]]
		if !ok {
			var err error
			if n, err = strconv.Atoi(strings.TrimSuffix(m[1], "x")); err != nil {
				return Frequency{}, fmt.Errorf("unparseable frequency %q", s)
			}
		}
		if n > 0 {
			return Frequency{Count: n, PeriodDays: periodDays[m[2]]}, nil
		}
	}
	return Frequency{}, fmt.Errorf("unparseable frequency %q", s)
}

// Expand returns the due dates inside [start, end] (both days inclusive).
// Periods start on start; within a period the i-th of n occurrences falls on
// day floor(i*P/n). Dates after end are dropped.
func (f Frequency) Expand(start, end time.Time) []time.Time {
	if f.Count <= 0 || f.PeriodDays <= 0 || end.Before(start) {
		return nil
	}
	var out []time.Time
	for p := start; !p.After(end); p = p.AddDate(0, 0, f.PeriodDays) {
		for i := 0; i < f.Count; i++ {
			d := p.AddDate(0, 0, i*f.PeriodDays/f.Count)
			if d.After(end) {
				break
			}
			out = append(out, d)
		}
	}
	return out
}
