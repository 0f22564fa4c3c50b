package slot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/careplan/core/model"
)

// Band names shipped with the default table.
const (
	BandEarlyMorning = "early_morning"
	BandMorning      = "morning"
	BandMidday       = "midday"
	BandAfternoon    = "afternoon"
	BandEarlyEvening = "early_evening"
	BandEvening      = "evening"
	BandLateEvening  = "late_evening"
	BandBusiness     = "business"
	BandAnytime      = "anytime"
)

// Band is a named window of the day in which an activity may take place.
type Band struct {
	Name   string
	Window model.Interval
}

// Rule refines the bands of one activity type when the activity name contains
// Keyword (case-insensitive). The first matching rule wins.
type Rule struct {
	Type    model.ActivityType
	Keyword string
	Bands   []string
}

// DefaultBands returns the built-in band windows.
func DefaultBands() map[string]model.Interval {
	h := func(from, to int) model.Interval {
		return model.Interval{Start: model.Clock(from * 60), End: model.Clock(to * 60)}
	}
	return map[string]model.Interval{
		BandEarlyMorning: h(6, 9),
		BandMorning:      h(6, 12),
		BandMidday:       h(11, 14),
		BandAfternoon:    h(12, 17),
		BandEarlyEvening: h(17, 20),
		BandEvening:      h(17, 22),
		BandLateEvening:  h(20, 23),
		BandBusiness:     h(9, 17),
		BandAnytime:      h(0, 24),
	}
}

// DefaultPreferences returns the per-type band order.
func DefaultPreferences() map[model.ActivityType][]string {
	return map[model.ActivityType][]string{
		model.ActivityFitness:      {BandMorning, BandEvening},
		model.ActivityNutrition:    {BandMorning},
		model.ActivityMedication:   {BandEarlyMorning, BandMorning},
		model.ActivityTherapy:      {BandAfternoon, BandMorning},
		model.ActivityConsultation: {BandBusiness},
	}
}

// DefaultRules returns the keyword refinements for meals and sleep aids.
func DefaultRules() []Rule {
	return []Rule{
		{Type: model.ActivityNutrition, Keyword: "breakfast", Bands: []string{BandEarlyMorning, BandMorning}},
		{Type: model.ActivityNutrition, Keyword: "lunch", Bands: []string{BandMidday, BandAfternoon}},
		{Type: model.ActivityNutrition, Keyword: "dinner", Bands: []string{BandEarlyEvening, BandEvening}},
		{Type: model.ActivityMedication, Keyword: "sleep", Bands: []string{BandLateEvening, BandEvening}},
		{Type: model.ActivityMedication, Keyword: "melatonin", Bands: []string{BandLateEvening, BandEvening}},
	}
}

// Table maps activities to their ordered preferred bands. It is a plain
// lookup: adding an activity type or a rule does not touch the search.
type Table struct {
	bands   map[string]model.Interval
	byType  map[model.ActivityType][]string
	rules   []Rule
	anytime bool
}

// NewTable validates the band references and builds a Table. When anytime is
// true the "anytime" band is appended after the preferred ones.
func NewTable(bands map[string]model.Interval, byType map[model.ActivityType][]string, rules []Rule, anytime bool) (*Table, error) {
	t := &Table{
		bands:   make(map[string]model.Interval, len(bands)+1),
		byType:  make(map[model.ActivityType][]string, len(byType)),
		anytime: anytime,
	}
	for name, w := range bands {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("band %s: %w", name, err)
		}
		t.bands[name] = w
	}
	if _, ok := t.bands[BandAnytime]; !ok {
		t.bands[BandAnytime] = model.Interval{Start: 0, End: model.MinutesPerDay}
	}
	for typ, names := range byType {
		if err := t.check(names); err != nil {
			return nil, fmt.Errorf("preferences for %s: %w", typ, err)
		}
		t.byType[typ] = append([]string(nil), names...)
	}
	for _, r := range rules {
		if strings.TrimSpace(r.Keyword) == "" {
			return nil, fmt.Errorf("rule for %s without keyword", r.Type)
		}
		if err := t.check(r.Bands); err != nil {
			return nil, fmt.Errorf("rule %s/%s: %w", r.Type, r.Keyword, err)
		}
		t.rules = append(t.rules, Rule{Type: r.Type, Keyword: strings.ToLower(r.Keyword), Bands: append([]string(nil), r.Bands...)})
	}
	return t, nil
}

// DefaultTable returns the built-in table with the anytime fallback enabled.
func DefaultTable() *Table {
	t, err := NewTable(DefaultBands(), DefaultPreferences(), DefaultRules(), true)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) check(names []string) error {
	for _, n := range names {
		if _, ok := t.bands[n]; !ok {
			return fmt.Errorf("unknown band %q", n)
		}
	}
	return nil
}

// Check reports unknown band names.
func (t *Table) Check(names []string) error { return t.check(names) }

// BandNames returns the known band names, sorted.
func (t *Table) BandNames() []string {
	out := make([]string, 0, len(t.bands))
	for n := range t.bands {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// BandsFor resolves the ordered bands of an activity: its own override first,
// otherwise the first matching keyword rule, otherwise its type's entry.
func (t *Table) BandsFor(a model.Activity) ([]Band, error) {
	names := a.Bands
	if len(names) == 0 {
		names = t.ruleFor(a)
	}
	if len(names) == 0 {
		names = t.byType[a.Type]
	}
	if err := t.check(names); err != nil {
		return nil, fmt.Errorf("activity %s: %w", a.ID, err)
	}
	out := make([]Band, 0, len(names)+1)
	seen := make(map[string]bool, len(names)+1)
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, Band{Name: n, Window: t.bands[n]})
	}
	if (t.anytime || len(out) == 0) && !seen[BandAnytime] {
		out = append(out, Band{Name: BandAnytime, Window: t.bands[BandAnytime]})
	}
	return out, nil
}

func (t *Table) ruleFor(a model.Activity) []string {
	name := strings.ToLower(a.Name)
	for _, r := range t.rules {
		if r.Type == a.Type && strings.Contains(name, r.Keyword) {
			return r.Bands
		}
	}
	return nil
}
