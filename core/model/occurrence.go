package model

import (
	"fmt"
	"sort"
	"time"
)

// Status is the lifecycle state of an occurrence.
type Status int

const (
	StatusPending Status = iota
	StatusBackupAttempted
	StatusPlaced
	StatusBackupUsed
	StatusUnscheduled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusBackupAttempted:
		return "BackupAttempted"
	case StatusPlaced:
		return "Placed"
	case StatusBackupUsed:
		return "BackupUsed"
	case StatusUnscheduled:
		return "Unscheduled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusPlaced || s == StatusBackupUsed || s == StatusUnscheduled
}

// Booked reports whether the occurrence holds a reservation.
func (s Status) Booked() bool { return s == StatusPlaced || s == StatusBackupUsed }

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for _, v := range []Status{StatusPending, StatusBackupAttempted, StatusPlaced, StatusBackupUsed, StatusUnscheduled} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// Reason explains why an occurrence is Unscheduled.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonNoFeasibleIntersection Reason = "NoFeasibleIntersection"
	ReasonHorizonExceeded        Reason = "HorizonExceeded"
)

// ScheduledOccurrence is one concrete instance of an activity.
type ScheduledOccurrence struct {
	ActivityID       string       `json:"activity_id"`
	ActivityName     string       `json:"activity_name,omitempty"`
	Type             ActivityType `json:"type"`
	Priority         int          `json:"priority"`
	Seq              int          `json:"seq"`
	TargetDate       time.Time    `json:"target_date"`
	Date             time.Time    `json:"date"`
	Start            Clock        `json:"start"`
	Minutes          int          `json:"duration_minutes"`
	Resources        []string     `json:"resources,omitempty"`
	Status           Status       `json:"status"`
	Reason           Reason       `json:"reason,omitempty"`
	BackupActivityID string       `json:"backup_activity_id,omitempty"`

	order int
}

// Duration returns the booked length.
func (o ScheduledOccurrence) Duration() time.Duration { return time.Duration(o.Minutes) * time.Minute }

// Window returns the occupied interval on Date.
func (o ScheduledOccurrence) Window() Interval { return Window(o.Start, o.Duration()) }

// StartTime returns the absolute start instant.
func (o ScheduledOccurrence) StartTime() time.Time { return o.Start.At(o.Date) }

// EndTime returns the absolute end instant.
func (o ScheduledOccurrence) EndTime() time.Time { return o.StartTime().Add(o.Duration()) }

// Key identifies an occurrence inside a schedule.
func (o ScheduledOccurrence) Key() string {
	return fmt.Sprintf("%s#%d", o.ActivityID, o.Seq)
}

// SetOrder records the catalog position used as the final tie-break.
func (o *ScheduledOccurrence) SetOrder(n int) { o.order = n }

// Order returns the catalog position recorded with SetOrder.
func (o ScheduledOccurrence) Order() int { return o.order }

// Schedule is the ordered result of a scheduling run.
type Schedule struct {
	Occurrences []ScheduledOccurrence `json:"occurrences"`
}

// Sort orders occurrences by date, then priority, then catalog position.
func (s *Schedule) Sort() {
	sort.SliceStable(s.Occurrences, func(i, j int) bool {
		a, b := s.Occurrences[i], s.Occurrences[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.order != b.order {
			return a.order < b.order
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.Start < b.Start
	})
}

// ByStatus returns the occurrences with the given status.
func (s Schedule) ByStatus(st Status) []ScheduledOccurrence {
	var out []ScheduledOccurrence
	for _, o := range s.Occurrences {
		if o.Status == st {
			out = append(out, o)
		}
	}
	return out
}

// ForActivity returns the occurrences demanded by the given activity.
func (s Schedule) ForActivity(id string) []ScheduledOccurrence {
	var out []ScheduledOccurrence
	for _, o := range s.Occurrences {
		if o.ActivityID == id {
			out = append(out, o)
		}
	}
	return out
}

// Conflict reports two booked occurrences overlapping on one resource.
type Conflict struct {
	ResourceID  string              `json:"resource_id"`
	OccurrenceA ScheduledOccurrence `json:"occurrence_a"`
	OccurrenceB ScheduledOccurrence `json:"occurrence_b"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s %s %s overlaps %s %s %s", c.ResourceID,
		c.OccurrenceA.Key(), c.OccurrenceA.Date.Format(DateLayout), c.OccurrenceA.Window(),
		c.OccurrenceB.Key(), c.OccurrenceB.Date.Format(DateLayout), c.OccurrenceB.Window())
}
