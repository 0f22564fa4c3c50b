// Package export encodes the schedule document handed to renderers and
// downstream consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/report"
)

// Document is the output of a run: every occurrence with its outcome, the
// conflicts found by validation and the run summary.
type Document struct {
	RunID       string                      `json:"run_id,omitempty"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Start       string                      `json:"start"`
	End         string                      `json:"end"`
	Occurrences []model.ScheduledOccurrence `json:"occurrences"`
	Conflicts   []model.Conflict            `json:"conflicts"`
	Summary     *report.Summary             `json:"summary,omitempty"`
}

// NewDocument assembles a document for the given planning window.
func NewDocument(runID string, now, start, end time.Time, s model.Schedule, conflicts []model.Conflict, sum *report.Summary) Document {
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}
	occ := s.Occurrences
	if occ == nil {
		occ = []model.ScheduledOccurrence{}
	}
	return Document{
		RunID:       runID,
		GeneratedAt: now.UTC(),
		Start:       start.Format(model.DateLayout),
		End:         end.Format(model.DateLayout),
		Occurrences: occ,
		Conflicts:   conflicts,
		Summary:     sum,
	}
}

// Schedule returns the occurrences as a Schedule.
func (d Document) Schedule() model.Schedule {
	return model.Schedule{Occurrences: d.Occurrences}
}

// WriteJSON writes the document to w in JSON format.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON decodes a document previously written with WriteJSON.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode schedule document: %w", err)
	}
	return doc, nil
}

var csvHeader = []string{
	"date", "start", "end", "activity_id", "activity_name", "type", "priority", "seq",
	"status", "reason", "backup_activity_id", "target_date", "resources",
}

// WriteCSV writes one row per occurrence. Unscheduled rows have empty times
// and resources are joined with ";".
func WriteCSV(w io.Writer, occurrences []model.ScheduledOccurrence) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range occurrences {
		var start, end string
		if o.Status.Booked() {
			win := o.Window()
			start, end = win.Start.String(), win.End.String()
		}
		rec := []string{
			o.Date.Format(model.DateLayout),
			start,
			end,
			o.ActivityID,
			o.ActivityName,
			o.Type.String(),
			strconv.Itoa(o.Priority),
			strconv.Itoa(o.Seq),
			o.Status.String(),
			string(o.Reason),
			o.BackupActivityID,
			o.TargetDate.Format(model.DateLayout),
			strings.Join(o.Resources, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
