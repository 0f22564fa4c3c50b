package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/careplan/config"
	"github.com/kilianp07/careplan/core/factory"
	"github.com/kilianp07/careplan/core/history"
	coremetrics "github.com/kilianp07/careplan/core/metrics"
	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/report"
	"github.com/kilianp07/careplan/core/scheduler"
	"github.com/kilianp07/careplan/infra/input"
	"github.com/kilianp07/careplan/infra/publish"
	"github.com/kilianp07/careplan/pkg/export"
)

var clock = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func sampleDoc() input.Document {
	free := []model.Interval{{Start: 7 * 60, End: 9 * 60}}
	return input.Document{
		Start: "2026-03-02",
		End:   "2026-03-03",
		Activities: []model.Activity{{
			ID: "walk", Name: "Walk", Type: model.ActivityFitness, Frequency: "Daily",
			Priority: 1, Minutes: 30,
			Resources: []model.ResourceRef{{ID: "client", Type: model.ResourceClient}},
		}},
		Availability: []model.ResourceAvailability{{
			ID: "client", Type: model.ResourceClient,
			Days: map[string][]model.Interval{"2026-03-02": free, "2026-03-03": free},
		}},
	}
}

type recordingSink struct {
	coremetrics.NopSink
	runs      []report.Summary
	conflicts []coremetrics.ConflictEvent
	err       error
}

func (r *recordingSink) RecordRun(sum report.Summary) error {
	r.runs = append(r.runs, sum)
	return r.err
}

func (r *recordingSink) RecordConflict(ev coremetrics.ConflictEvent) error {
	r.conflicts = append(r.conflicts, ev)
	return nil
}

type stubPublisher struct {
	docs []export.Document
	err  error
}

func (s *stubPublisher) Publish(_ context.Context, doc export.Document) error {
	s.docs = append(s.docs, doc)
	return s.err
}

func (s *stubPublisher) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *recordingSink, *stubPublisher) {
	t.Helper()
	store, err := history.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"), history.RotationConfig{})
	require.NoError(t, err)
	sink := &recordingSink{}
	pub := &stubPublisher{}
	svc := &Service{
		Config:    &config.Config{},
		Sink:      sink,
		Store:     store,
		Publisher: pub,
		Now:       func() time.Time { return clock },
		NewRunID:  func() string { return "run-1" },
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc, sink, pub
}

func TestServiceRun(t *testing.T) {
	svc, sink, pub := newTestService(t)
	ctx := context.Background()

	res, err := svc.Run(ctx, sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 2, res.Summary.Placed)
	assert.Equal(t, "2026-03-02", res.Summary.Start.Format(model.DateLayout))
	assert.True(t, res.Summary.GeneratedAt.Equal(clock))

	for _, o := range res.Plan.Schedule.Occurrences {
		assert.Equal(t, model.StatusPlaced, o.Status)
		assert.Equal(t, model.Clock(7*60), o.Start)
	}

	require.Len(t, sink.runs, 1)
	assert.Equal(t, "run-1", sink.runs[0].RunID)

	require.Len(t, pub.docs, 1)
	assert.Equal(t, "2026-03-03", pub.docs[0].End)
	assert.Len(t, pub.docs[0].Occurrences, 2)

	recs, err := svc.History(ctx, history.Query{ActivityID: "walk"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "run-1", recs[0].RunID)
	assert.Equal(t, 2, recs[0].Summary.Placed)
}

func TestServiceRunConfigWindowWins(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.Config.Scheduler.End = "2026-03-02"
	res, err := svc.Run(context.Background(), sampleDoc())
	require.NoError(t, err)
	assert.Len(t, res.Plan.Schedule.Occurrences, 1)
}

func TestServiceRunMalformedInput(t *testing.T) {
	svc, sink, pub := newTestService(t)
	doc := sampleDoc()
	doc.Activities = append(doc.Activities, model.Activity{
		ID: "coach-session", Type: model.ActivityConsultation, Frequency: "Weekly", Priority: 2, Minutes: 30,
		Resources: []model.ResourceRef{{ID: "client", Type: model.ResourceClient}, {ID: "coach"}},
	})

	res, err := svc.Run(context.Background(), doc)
	require.Error(t, err)
	assert.ErrorContains(t, err, "coach")
	var mie *scheduler.MalformedInputError
	require.ErrorAs(t, err, &mie)
	assert.Equal(t, "coach-session", mie.ActivityID)

	require.NotNil(t, res)
	assert.Equal(t, 2, res.Summary.Placed)
	assert.Empty(t, res.Plan.Schedule.ForActivity("coach-session"))
	assert.Len(t, sink.runs, 1)
	assert.Len(t, pub.docs, 1)

	recs, err := svc.History(context.Background(), history.Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestServiceRunAborts(t *testing.T) {
	svc, sink, pub := newTestService(t)
	doc := sampleDoc()
	doc.Availability = append(doc.Availability, doc.Availability[0])

	res, err := svc.Run(context.Background(), doc)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, sink.runs)
	assert.Empty(t, pub.docs)
}

func TestServiceRunSoftFailures(t *testing.T) {
	svc, sink, pub := newTestService(t)
	sink.err = errors.New("influx down")
	pub.err = errors.New("broker down")

	res, err := svc.Run(context.Background(), sampleDoc())
	require.NotNil(t, res)
	assert.ErrorContains(t, err, "broker down")
	assert.NotContains(t, err.Error(), "influx down")
	assert.Equal(t, 2, res.Summary.Placed)
}

func TestServiceValidate(t *testing.T) {
	svc, sink, _ := newTestService(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sched := model.Schedule{Occurrences: []model.ScheduledOccurrence{
		{ActivityID: "a", Date: day, Start: 8 * 60, Minutes: 60, Resources: []string{"client"}, Status: model.StatusPlaced},
		{ActivityID: "b", Date: day, Start: 8*60 + 30, Minutes: 30, Resources: []string{"client"}, Status: model.StatusBackupUsed},
		{ActivityID: "c", Date: day, Start: 8 * 60, Minutes: 30, Resources: []string{"client"}, Status: model.StatusUnscheduled},
	}}
	conflicts := svc.Validate("stored", sched)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "client", conflicts[0].ResourceID)
	require.Len(t, sink.conflicts, 1)
	assert.Equal(t, "stored", sink.conflicts[0].RunID)
}

func TestServiceNilCollaborators(t *testing.T) {
	svc := &Service{}
	res, err := svc.Run(context.Background(), sampleDoc())
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.NoError(t, svc.Close())
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		History: history.Config{Store: factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "runs.db")}}},
		Publish: publish.Config{Targets: []factory.ModuleConfig{{Type: "file", Conf: map[string]any{"path": filepath.Join(dir, "{run_id}.json")}}}},
		Metrics: coremetrics.Config{Sinks: []factory.ModuleConfig{{Type: "nop"}}},
	}
	cfg.SetDefaults()
	svc, err := New(cfg)
	require.NoError(t, err)
	svc.NewRunID = func() string { return "cfg-run" }
	defer func() { assert.NoError(t, svc.Close()) }()

	_, err = svc.Run(context.Background(), sampleDoc())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "cfg-run.json"))
	assert.NoError(t, err)

	recs, err := svc.History(context.Background(), history.Query{RunID: "cfg-run"})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestNewFromConfigErrors(t *testing.T) {
	_, err := New(&config.Config{Publish: publish.Config{Targets: []factory.ModuleConfig{{Type: "fax"}}}})
	assert.ErrorContains(t, err, "publisher")
	_, err = New(&config.Config{History: history.Config{Store: factory.ModuleConfig{Type: "sqlite"}}})
	assert.ErrorContains(t, err, "history store")
}
