package model

import (
	"fmt"
	"strings"
	"time"
)

// ActivityType classifies an activity of the health plan.
type ActivityType int

const (
	ActivityFitness ActivityType = iota + 1
	ActivityNutrition
	ActivityMedication
	ActivityTherapy
	ActivityConsultation
)

// ActivityTypes lists all known activity types.
var ActivityTypes = []ActivityType{ActivityFitness, ActivityNutrition, ActivityMedication, ActivityTherapy, ActivityConsultation}

// String returns the canonical name of the type.
func (t ActivityType) String() string {
	switch t {
	case ActivityFitness:
		return "Fitness"
	case ActivityNutrition:
		return "Nutrition"
	case ActivityMedication:
		return "Medication"
	case ActivityTherapy:
		return "Therapy"
	case ActivityConsultation:
		return "Consultation"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of ActivityTypes.
func (t ActivityType) Valid() bool { return t >= ActivityFitness && t <= ActivityConsultation }

// ParseActivityType accepts the canonical names as well as the long labels
// used by the plan generator ("Fitness routine / exercise", "Food consumption", ...).
func ParseActivityType(s string) (ActivityType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "fitness" || strings.HasPrefix(v, "fitness routine") || v == "exercise":
		return ActivityFitness, nil
	case v == "nutrition" || v == "food consumption" || v == "food":
		return ActivityNutrition, nil
	case v == "medication" || v == "medication consumption":
		return ActivityMedication, nil
	case v == "therapy":
		return ActivityTherapy, nil
	case v == "consultation":
		return ActivityConsultation, nil
	}
	return 0, fmt.Errorf("unknown activity type %q", s)
}

// MarshalText implements encoding.TextMarshaler. The zero type encodes as
// an empty string.
func (t ActivityType) MarshalText() ([]byte, error) {
	if t == 0 {
		return nil, nil
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ActivityType) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = 0
		return nil
	}
	v, err := ParseActivityType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ResourceRef names a resource an activity needs.
type ResourceRef struct {
	ID   string       `json:"id" yaml:"id"`
	Type ResourceType `json:"type" yaml:"type"`
}

// Activity is one entry of the prioritized health plan.
type Activity struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Type      ActivityType  `json:"type" yaml:"type"`
	Frequency string        `json:"frequency" yaml:"frequency"`
	Priority  int           `json:"priority" yaml:"priority"` // 1 is the most important
	Minutes   int           `json:"duration_minutes" yaml:"duration_minutes"`
	Resources []ResourceRef `json:"resources" yaml:"resources"`
	Backups   []string      `json:"backups,omitempty" yaml:"backups,omitempty"`
	Bands     []string      `json:"bands,omitempty" yaml:"bands,omitempty"`
	Details   string        `json:"details,omitempty" yaml:"details,omitempty"`
}

// Duration returns the length of one session.
func (a Activity) Duration() time.Duration { return time.Duration(a.Minutes) * time.Minute }

// ResourceIDs returns the ids of the required resources in declaration order.
func (a Activity) ResourceIDs() []string {
	ids := make([]string, len(a.Resources))
	for i, r := range a.Resources {
		ids[i] = r.ID
	}
	return ids
}
