package input

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/careplan/core/model"
)

// ClientID is the resource id given to the client calendar of a legacy file.
const ClientID = "client"

// defaultLegacyMinutes applies when neither duration_minutes nor the details
// text give a length.
const defaultLegacyMinutes = 60

// LegacyActivity is one entry of a legacy action plan.
type LegacyActivity struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Frequency     string   `json:"frequency"`
	Details       string   `json:"details"`
	Facilitator   string   `json:"facilitator"`
	Location      string   `json:"location"`
	RemoteCapable bool     `json:"remote_capable"`
	Backups       []string `json:"backup_activities"`
	Priority      int      `json:"priority"`
	Minutes       int      `json:"duration_minutes"`
}

// LegacyDay is the availability of one resource on one date. Hours lists
// the starts ("HH:00") of free one-hour slots.
type LegacyDay struct {
	Available bool     `json:"available"`
	Reason    string   `json:"reason,omitempty"`
	Hours     []string `json:"available_hours,omitempty"`
}

// LegacyAvailability is the legacy availability file.
type LegacyAvailability struct {
	Client       map[string]LegacyDay            `json:"client_schedule"`
	Equipment    map[string]map[string]LegacyDay `json:"equipment_availability"`
	Specialists  map[string]map[string]LegacyDay `json:"specialist_availability"`
	AlliedHealth map[string]map[string]LegacyDay `json:"allied_health_availability"`
	DateRange    LegacyDateRange                 `json:"date_range"`
}

// LegacyDateRange bounds the legacy calendars.
type LegacyDateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// LoadLegacy reads a legacy action plan and availability file pair and
// converts them into a Document.
func LoadLegacy(planPath, availabilityPath string) (Document, error) {
	var plan []LegacyActivity
	if err := readJSON(planPath, &plan); err != nil {
		return Document{}, fmt.Errorf("action plan: %w", err)
	}
	var avail LegacyAvailability
	if err := readJSON(availabilityPath, &avail); err != nil {
		return Document{}, fmt.Errorf("availability: %w", err)
	}
	return ConvertLegacy(plan, avail)
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// ConvertLegacy maps the legacy layout onto the native model.
//
// Hourly slots become merged intervals. Specialists and allied health
// professionals become Specialist resources and are required when they
// facilitate an activity. Equipment is inferred from the activity name.
// Each backup name becomes an "As needed" activity with id
// "<id>-backup-<n>" that inherits the primary's type, facilitator and
// length.
func ConvertLegacy(plan []LegacyActivity, avail LegacyAvailability) (Document, error) {
	doc := Document{Start: avail.DateRange.Start, End: avail.DateRange.End}

	client, err := legacyCalendar(ClientID, model.ResourceClient, avail.Client)
	if err != nil {
		return Document{}, err
	}
	doc.Availability = append(doc.Availability, client)

	specialists := make(map[string]struct{})
	for _, group := range []map[string]map[string]LegacyDay{avail.Specialists, avail.AlliedHealth} {
		for _, name := range sortedKeys(group) {
			if _, dup := specialists[name]; dup {
				continue
			}
			specialists[name] = struct{}{}
			ra, err := legacyCalendar(name, model.ResourceSpecialist, group[name])
			if err != nil {
				return Document{}, err
			}
			doc.Availability = append(doc.Availability, ra)
		}
	}
	equipment := make(map[string]struct{})
	for _, name := range sortedKeys(avail.Equipment) {
		equipment[name] = struct{}{}
		ra, err := legacyCalendar(name, model.ResourceEquipment, avail.Equipment[name])
		if err != nil {
			return Document{}, err
		}
		doc.Availability = append(doc.Availability, ra)
	}

	plan = append([]LegacyActivity(nil), plan...)
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Priority < plan[j].Priority })

	var backups []model.Activity
	for i, la := range plan {
		typ, err := model.ParseActivityType(la.Type)
		if err != nil {
			return Document{}, fmt.Errorf("activity %q: %w", la.Name, err)
		}
		priority := la.Priority
		if priority <= 0 {
			priority = i + 1
		}
		id := fmt.Sprintf("a%03d", priority)
		minutes := legacyMinutes(la)

		a := model.Activity{
			ID:        id,
			Name:      la.Name,
			Type:      typ,
			Frequency: la.Frequency,
			Priority:  priority,
			Minutes:   minutes,
			Resources: legacyResources(la.Name, typ, la.Facilitator, specialists, equipment),
			Details:   la.Details,
		}
		for n, name := range la.Backups {
			b := model.Activity{
				ID:        fmt.Sprintf("%s-backup-%d", id, n+1),
				Name:      name,
				Type:      typ,
				Frequency: "As needed",
				Priority:  priority,
				Minutes:   minutes,
				Resources: legacyResources(name, typ, la.Facilitator, specialists, equipment),
				Details:   la.Details,
			}
			a.Backups = append(a.Backups, b.ID)
			backups = append(backups, b)
		}
		doc.Activities = append(doc.Activities, a)
	}
	doc.Activities = append(doc.Activities, backups...)
	return doc, nil
}

func legacyCalendar(id string, typ model.ResourceType, days map[string]LegacyDay) (model.ResourceAvailability, error) {
	ra := model.ResourceAvailability{ID: id, Type: typ, Days: make(map[string][]model.Interval)}
	for date, d := range days {
		if !d.Available {
			continue
		}
		var ivs []model.Interval
		for _, h := range d.Hours {
			start, err := model.ParseClock(h)
			if err != nil {
				return ra, fmt.Errorf("%s %s: %w", id, date, err)
			}
			ivs = append(ivs, model.Interval{Start: start, End: start + 60})
		}
		if merged := model.Normalize(ivs); len(merged) > 0 {
			ra.Days[date] = merged
		}
	}
	return ra, nil
}

var sessionMinutes = regexp.MustCompile(`(?i)session of (\d+) minutes`)

func legacyMinutes(la LegacyActivity) int {
	if la.Minutes > 0 {
		return la.Minutes
	}
	if m := sessionMinutes.FindStringSubmatch(la.Details); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return defaultLegacyMinutes
}

// equipmentRules maps name keywords to the equipment they need, per type.
var equipmentRules = map[model.ActivityType][]struct {
	keywords  []string
	equipment []string
}{
	model.ActivityFitness: {
		{[]string{"strength", "weight"}, []string{"Weight Bench", "Dumbbells"}},
		{[]string{"cardio", "running"}, []string{"Treadmill"}},
		{[]string{"cycling"}, []string{"Stationary Bike"}},
		{[]string{"yoga", "pilates"}, []string{"Yoga Mat"}},
	},
	model.ActivityTherapy: {
		{[]string{"sauna"}, []string{"Sauna"}},
		{[]string{"ice bath"}, []string{"Ice Bath Tub"}},
		{[]string{"massage"}, []string{"Massage Table"}},
	},
}

// InferEquipment returns the equipment an activity of the given type and
// name needs. The first matching rule wins.
func InferEquipment(typ model.ActivityType, name string) []string {
	lower := strings.ToLower(name)
	for _, r := range equipmentRules[typ] {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.equipment
			}
		}
	}
	return nil
}

// legacyResources lists the client, the facilitator when it has a calendar
// and the inferred equipment that has one. Facilitators such as
// "Self-administered" impose no constraint.
func legacyResources(name string, typ model.ActivityType, facilitator string, specialists, equipment map[string]struct{}) []model.ResourceRef {
	refs := []model.ResourceRef{{ID: ClientID, Type: model.ResourceClient}}
	if _, ok := specialists[facilitator]; ok {
		refs = append(refs, model.ResourceRef{ID: facilitator, Type: model.ResourceSpecialist})
	}
	for _, e := range InferEquipment(typ, name) {
		if _, ok := equipment[e]; ok {
			refs = append(refs, model.ResourceRef{ID: e, Type: model.ResourceEquipment})
		}
	}
	return refs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
