package ingest

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/attendance"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/sse"
	attendancesvc "github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/attendance"
)

// Window is the closed reconciliation interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Aggregator folds classified punches into attendance records.
type Aggregator interface {
	Aggregate(ctx context.Context, events []punch.ClassifiedEvent, winStart, winEnd time.Time) ([]attendance.Record, []attendancesvc.LookupFailure, error)
}

// BatchWriter persists attendance records.
type BatchWriter interface {
	WriteBatch(ctx context.Context, runID string, records []attendance.Record) (attendancesvc.BatchResult, error)
}

// RunSummary reports one reconciliation run.
type RunSummary struct {
	RunID          string
	Window         Window
	DevicesFetched []string
	DevicesFailed  []string
	EventsTotal    int
	EventsInWindow int
	RowsDropped    int
	LookupFailures []attendancesvc.LookupFailure
	RecordsTotal   int
	RecordsWritten int
	RecordsFailed  int
	RecordFailures []attendancesvc.Failure
}

// Service orchestrates one reconciliation run: fetch every device, bin and
// classify the punches, aggregate sessions, and write the records.
type Service struct {
	devices    []device.Device
	gateway    device.Gateway
	statusRepo device.SyncStatusRepository
	normalizer *Normalizer
	classifier Classifier
	cutoffHour int
	aggregator Aggregator
	writer     BatchWriter
	hub        *sse.Hub
}

func NewService(
	devices []device.Device,
	gateway device.Gateway,
	statusRepo device.SyncStatusRepository,
	normalizer *Normalizer,
	classifier Classifier,
	cutoffHour int,
	aggregator Aggregator,
	writer BatchWriter,
	hub *sse.Hub,
) *Service {
	return &Service{
		devices:    devices,
		gateway:    gateway,
		statusRepo: statusRepo,
		normalizer: normalizer,
		classifier: classifier,
		cutoffHour: cutoffHour,
		aggregator: aggregator,
		writer:     writer,
		hub:        hub,
	}
}

// Run executes one reconciliation over the window. A failing device is
// skipped; the run aborts only when no device yields any rows. Rerunning
// the same window converges on the same stored state.
func (s *Service) Run(ctx context.Context, runID string, win Window) (*RunSummary, error) {
	if win.End.Before(win.Start) {
		return nil, ErrInvalidWindow
	}

	if runID == "" {
		runID = uuid.NewString()
	}
	summary := &RunSummary{RunID: runID, Window: win}

	slog.Info("Reconciliation run started",
		"run_id", runID,
		"window_start", win.Start.Format("2006-01-02"),
		"window_end", win.End.Format("2006-01-02"),
		"devices", len(s.devices),
	)
	s.hub.Publish(runID, sse.Event{RunID: runID, Event: "run_started", Data: map[string]string{
		"window_start": win.Start.Format("2006-01-02"),
		"window_end":   win.End.Format("2006-01-02"),
	}})

	events, err := s.fetchAll(ctx, summary)
	if err != nil {
		return summary, err
	}
	summary.EventsTotal = len(events)

	events = filterWindow(events, win)
	summary.EventsInWindow = len(events)

	classified := s.classifier.Classify(BindAll(events, s.cutoffHour))

	records, lookupFailures, err := s.aggregator.Aggregate(ctx, classified, win.Start, win.End)
	if err != nil {
		return summary, err
	}
	summary.LookupFailures = lookupFailures
	summary.RecordsTotal = len(records)

	result, err := s.writer.WriteBatch(ctx, runID, records)
	summary.RecordsWritten = result.Processed
	summary.RecordsFailed = result.Failed
	summary.RecordFailures = result.Failures
	if err != nil {
		return summary, err
	}

	// Device rows are now durable; clear the in-flight markers so the
	// watermark cycle can pick these devices up.
	for _, id := range summary.DevicesFetched {
		if err := s.statusRepo.ResetPush(ctx, id); err != nil {
			slog.Error("Failed to reset push marker", "run_id", runID, "device_id", id, "error", err)
		}
	}

	slog.Info("Reconciliation run completed",
		"run_id", runID,
		"events", summary.EventsInWindow,
		"records_written", summary.RecordsWritten,
		"records_failed", summary.RecordsFailed,
		"lookup_failures", len(summary.LookupFailures),
	)
	s.hub.Publish(runID, sse.Event{RunID: runID, Event: "run_completed", Data: map[string]int{
		"records_written": summary.RecordsWritten,
		"records_failed":  summary.RecordsFailed,
	}})

	return summary, nil
}

// fetchAll pulls every device in parallel. Each successful fetch marks the
// device's data as in flight and stamps its pull time.
func (s *Service) fetchAll(ctx context.Context, summary *RunSummary) ([]punch.Event, error) {
	var (
		mu     sync.Mutex
		events []punch.Event
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range s.devices {
		d := d
		g.Go(func() error {
			now := time.Now().UTC()
			if err := s.statusRepo.MarkPush(gctx, d.ID, now); err != nil {
				slog.Error("Skipping device, cannot mark push", "device_id", d.ID, "error", err)
				mu.Lock()
				summary.DevicesFailed = append(summary.DevicesFailed, d.ID)
				mu.Unlock()
				return nil
			}

			rows, err := s.gateway.Fetch(gctx, d)
			if err != nil {
				slog.Error("Skipping device, fetch failed", "device_id", d.ID, "error", err)
				mu.Lock()
				summary.DevicesFailed = append(summary.DevicesFailed, d.ID)
				mu.Unlock()
				return nil
			}

			deviceEvents, dropped := s.normalizer.Normalize(d.ID, rows)

			if err := s.statusRepo.SetPull(gctx, d.ID, now); err != nil {
				slog.Error("Skipping device, cannot record pull", "device_id", d.ID, "error", err)
				mu.Lock()
				summary.DevicesFailed = append(summary.DevicesFailed, d.ID)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			events = append(events, deviceEvents...)
			summary.RowsDropped += dropped
			summary.DevicesFetched = append(summary.DevicesFetched, d.ID)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(summary.DevicesFetched)
	sort.Strings(summary.DevicesFailed)
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	if len(events) == 0 {
		return nil, ErrNoPunchData
	}
	return events, nil
}

// filterWindow keeps events with timestamp in [win.Start, win.End]. Events
// must already be sorted ascending.
func filterWindow(events []punch.Event, win Window) []punch.Event {
	lo := sort.Search(len(events), func(i int) bool {
		return !events[i].Timestamp.Before(win.Start)
	})
	hi := sort.Search(len(events), func(i int) bool {
		return events[i].Timestamp.After(win.End)
	})
	return events[lo:hi]
}
