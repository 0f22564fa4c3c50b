// Package report condenses a finished schedule into run statistics.
package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/careplan/core/model"
)

// Utilization is the booked share of a resource's free time.
type Utilization struct {
	ResourceID    string        `json:"resource_id"`
	Booked        time.Duration `json:"booked"`
	Available     time.Duration `json:"available"`
	Ratio         float64       `json:"ratio"`
	MaxDailyRatio float64       `json:"max_daily_ratio"`
}

// Summary describes the outcome of one scheduling run.
type Summary struct {
	RunID           string               `json:"run_id"`
	GeneratedAt     time.Time            `json:"generated_at"`
	Start           time.Time            `json:"start"`
	End             time.Time            `json:"end"`
	Activities      int                  `json:"activities"`
	Occurrences     int                  `json:"occurrences"`
	Placed          int                  `json:"placed"`
	BackupUsed      int                  `json:"backup_used"`
	Unscheduled     int                  `json:"unscheduled"`
	Reasons         map[model.Reason]int `json:"reasons"`
	ByType          map[string]int       `json:"by_type"`
	Conflicts       int                  `json:"conflicts"`
	Utilization     []Utilization        `json:"utilization"`
	MeanUtilization float64              `json:"mean_utilization"`
	StdUtilization  float64              `json:"std_utilization"`
}

// FreeTime returns the free time of a resource per day before any booking.
type FreeTime func(resourceID string) map[time.Time]time.Duration

// Summarize builds the summary of a schedule. free reports the original free
// time of each resource; a nil free skips utilisation statistics.
func Summarize(s model.Schedule, conflicts []model.Conflict, free FreeTime) Summary {
	sum := Summary{
		Reasons:   make(map[model.Reason]int),
		ByType:    make(map[string]int),
		Conflicts: len(conflicts),
	}
	activities := make(map[string]struct{})
	booked := make(map[string]map[time.Time]time.Duration)
	for i, o := range s.Occurrences {
		if i == 0 || o.TargetDate.Before(sum.Start) {
			sum.Start = o.TargetDate
		}
		if o.TargetDate.After(sum.End) {
			sum.End = o.TargetDate
		}
		activities[o.ActivityID] = struct{}{}
		sum.Occurrences++
		switch o.Status {
		case model.StatusPlaced:
			sum.Placed++
		case model.StatusBackupUsed:
			sum.BackupUsed++
		case model.StatusUnscheduled:
			sum.Unscheduled++
			sum.Reasons[o.Reason]++
		}
		if !o.Status.Booked() {
			continue
		}
		sum.ByType[o.Type.String()]++
		for _, r := range o.Resources {
			if booked[r] == nil {
				booked[r] = make(map[time.Time]time.Duration)
			}
			booked[r][o.Date] += o.Duration()
		}
	}
	sum.Activities = len(activities)
	if free == nil {
		return sum
	}

	ids := make([]string, 0, len(booked))
	for id := range booked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	ratios := make([]float64, 0, len(ids))
	for _, id := range ids {
		u := Utilization{ResourceID: id}
		avail := free(id)
		for day, b := range booked[id] {
			u.Booked += b
			if a := avail[day]; a > 0 {
				if r := float64(b) / float64(a); r > u.MaxDailyRatio {
					u.MaxDailyRatio = r
				}
			}
		}
		for _, a := range avail {
			u.Available += a
		}
		if u.Available > 0 {
			u.Ratio = float64(u.Booked) / float64(u.Available)
		}
		ratios = append(ratios, u.Ratio)
		sum.Utilization = append(sum.Utilization, u)
	}
	if len(ratios) > 0 {
		sum.MeanUtilization = stat.Mean(ratios, nil)
	}
	if len(ratios) > 1 {
		sum.StdUtilization = stat.StdDev(ratios, nil)
	}
	return sum
}

// FreeFromRecords computes the original free time per resource and day.
func FreeFromRecords(records []model.ResourceAvailability) FreeTime {
	totals := make(map[string]map[time.Time]time.Duration, len(records))
	for _, r := range records {
		days := make(map[time.Time]time.Duration, len(r.Days))
		for ds, ivs := range r.Days {
			day, err := model.ParseDay(ds)
			if err != nil {
				continue
			}
			for _, iv := range model.Normalize(ivs) {
				days[day] += iv.Len()
			}
		}
		totals[r.ID] = days
	}
	return func(id string) map[time.Time]time.Duration { return totals[id] }
}
