package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/careplan/core/availability"
	"github.com/kilianp07/careplan/core/logger"
	"github.com/kilianp07/careplan/core/metrics"
	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/slot"
)

// Scheduler turns an activity catalog into a schedule in one greedy forward
// pass. Occurrences are placed in (priority, date, catalog position) order
// and a placed occurrence is never revisited.
type Scheduler struct {
	Config SchedulerConfig
	Logger logger.Logger
	RunID  string

	// Sink receives occurrence and fallback events when it implements the
	// matching recorder interfaces. Optional.
	Sink metrics.MetricsSink

	// Now stamps emitted events. Defaults to time.Now.
	Now func() time.Time
}

// Plan is the outcome of a run: the schedule and the index it was reserved
// against.
type Plan struct {
	Schedule model.Schedule
	Index    *availability.Index
	Start    time.Time
	End      time.Time
}

// placement is the bookkeeping of one occurrence while it is being placed.
type placement struct {
	occ      *model.ScheduledOccurrence
	activity model.Activity
	attempts int
}

// GeneratePlan expands the activities over the planning window and places
// every occurrence on idx, which is mutated by the reservations.
//
// Malformed activities are left out of the run and reported as joined
// *MalformedInputError values alongside the plan of the remaining ones; the
// plan is nil only for failures of the whole run, such as a bad window or a
// failed reservation of a found candidate (*availability.OverlapError).
func (s *Scheduler) GeneratePlan(idx *availability.Index, activities []model.Activity) (*Plan, error) {
	if idx == nil {
		return nil, errors.New("availability index is nil")
	}
	log := logger.OrNop(s.Logger)
	table, err := s.Config.Table()
	if err != nil {
		return nil, err
	}
	start, end, err := s.planningWindow(idx)
	if err != nil {
		return nil, err
	}
	freqs, rejected := ValidateCatalog(activities, idx, table)
	if rejected != nil {
		log.Warnf("skipping malformed activities: %v", rejected)
	}

	byID := make(map[string]model.Activity, len(freqs))
	var occs []*model.ScheduledOccurrence
	for pos, a := range activities {
		if _, ok := freqs[a.ID]; !ok {
			continue
		}
		if _, seen := byID[a.ID]; seen {
			continue
		}
		byID[a.ID] = a
		for seq, d := range freqs[a.ID].Expand(start, end) {
			o := &model.ScheduledOccurrence{
				ActivityID:   a.ID,
				ActivityName: a.Name,
				Type:         a.Type,
				Priority:     a.Priority,
				Seq:          seq,
				TargetDate:   d,
				Date:         d,
				Minutes:      a.Minutes,
				Status:       model.StatusPending,
			}
			o.SetOrder(pos)
			occs = append(occs, o)
		}
	}
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.TargetDate.Equal(b.TargetDate) {
			return a.TargetDate.Before(b.TargetDate)
		}
		if a.Order() != b.Order() {
			return a.Order() < b.Order()
		}
		return a.Seq < b.Seq
	})
	log.Infof("planning %d occurrences of %d activities from %s to %s",
		len(occs), len(byID), start.Format(model.DateLayout), end.Format(model.DateLayout))

	finder := slot.NewFinder(idx, table, s.Config.Options())
	plan := &Plan{Index: idx, Start: start, End: end}
	for _, o := range occs {
		p := &placement{occ: o, activity: byID[o.ActivityID]}
		if err := s.place(finder, idx, byID, p); err != nil {
			return nil, err
		}
		s.recordOccurrence(p)
		plan.Schedule.Occurrences = append(plan.Schedule.Occurrences, *o)
	}
	plan.Schedule.Sort()
	return plan, rejected
}

// place drives one occurrence through its lifecycle.
func (s *Scheduler) place(f *slot.Finder, idx *availability.Index, byID map[string]model.Activity, p *placement) error {
	log := logger.OrNop(s.Logger)
	o := p.occ
	ok, cause, err := s.tryPlace(f, idx, p.activity, p)
	if err != nil {
		return err
	}
	if ok {
		return advance(o, model.StatusPlaced)
	}
	if len(p.activity.Backups) > 0 {
		if err := advance(o, model.StatusBackupAttempted); err != nil {
			return err
		}
		for _, id := range p.activity.Backups {
			backup := byID[id]
			ok, bcause, err := s.tryPlace(f, idx, backup, p)
			if err != nil {
				return err
			}
			s.recordFallback(o, id, ok, bcause)
			if ok {
				o.BackupActivityID = id
				log.Debugw("backup used", map[string]any{"occurrence": o.Key(), "backup": id})
				return advance(o, model.StatusBackupUsed)
			}
		}
	}
	o.Reason = cause
	log.Warnf("occurrence %s due %s unscheduled: %s", o.Key(), o.TargetDate.Format(model.DateLayout), cause)
	return advance(o, model.StatusUnscheduled)
}

// tryPlace books the first candidate of a on the occurrence's target date.
// On success the occurrence carries the booked day, start, duration and
// resources of a.
func (s *Scheduler) tryPlace(f *slot.Finder, idx *availability.Index, a model.Activity, p *placement) (bool, model.Reason, error) {
	p.attempts++
	seq, err := f.Search(a, p.occ.TargetDate)
	if err != nil {
		return false, "", err
	}
	c, ok := seq.Next()
	if !ok {
		return false, seq.Cause(), nil
	}
	ids := a.ResourceIDs()
	w := c.Window(a.Duration())
	if err := idx.Reserve(ids, c.Day, w); err != nil {
		return false, "", fmt.Errorf("placing %s as %s: %w", p.occ.Key(), a.ID, err)
	}
	o := p.occ
	o.Date = c.Day
	o.Start = c.Start
	o.Minutes = a.Minutes
	o.Resources = ids
	logger.OrNop(s.Logger).Debugw("reserved", map[string]any{
		"occurrence": o.Key(),
		"activity":   a.ID,
		"day":        c.Day.Format(model.DateLayout),
		"window":     w.String(),
		"band":       c.Band,
	})
	return true, "", nil
}

// planningWindow resolves the configured window, defaulting each open bound
// to the first or last day known to the index.
func (s *Scheduler) planningWindow(idx *availability.Index) (start, end time.Time, err error) {
	start, end, err = s.Config.window()
	if err != nil {
		return
	}
	first, last, ok := idx.Bounds()
	if start.IsZero() {
		start = first
	}
	if end.IsZero() {
		end = last
	}
	if !ok && (start.IsZero() || end.IsZero()) {
		return start, end, errors.New("planning window unset and availability is empty")
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("planning end %s before start %s",
			end.Format(model.DateLayout), start.Format(model.DateLayout))
	}
	return start, end, nil
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) recordOccurrence(p *placement) {
	rec, ok := s.Sink.(metrics.OccurrenceRecorder)
	if !ok {
		return
	}
	ev := metrics.OccurrenceEvent{RunID: s.RunID, Occurrence: *p.occ, Attempts: p.attempts, Time: s.now()}
	if err := rec.RecordOccurrence(ev); err != nil {
		logger.OrNop(s.Logger).Errorf("record occurrence %s: %v", p.occ.Key(), err)
	}
}

func (s *Scheduler) recordFallback(o *model.ScheduledOccurrence, backup string, accepted bool, reason model.Reason) {
	rec, ok := s.Sink.(metrics.FallbackRecorder)
	if !ok {
		return
	}
	ev := metrics.FallbackEvent{
		RunID:      s.RunID,
		ActivityID: o.ActivityID,
		Seq:        o.Seq,
		BackupID:   backup,
		Accepted:   accepted,
		Reason:     reason,
		Time:       s.now(),
	}
	if err := rec.RecordFallback(ev); err != nil {
		logger.OrNop(s.Logger).Errorf("record fallback %s: %v", o.Key(), err)
	}
}
