package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/attendance"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/sse"
	attendancesvc "github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/attendance"
)

type fakeGateway struct {
	rows map[string][]punch.RawRow
	errs map[string]error
}

func (g *fakeGateway) Fetch(ctx context.Context, d device.Device) ([]punch.RawRow, error) {
	if err, ok := g.errs[d.ID]; ok {
		return nil, err
	}
	return g.rows[d.ID], nil
}

type fakeStatusRepo struct {
	mu         sync.Mutex
	pulls      map[string]time.Time
	pushMarks  map[string]time.Time
	pushResets []string
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{
		pulls:     make(map[string]time.Time),
		pushMarks: make(map[string]time.Time),
	}
}

func (r *fakeStatusRepo) Get(ctx context.Context, deviceID string) (device.SyncStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := device.SyncStatus{DeviceID: deviceID}
	if t, ok := r.pulls[deviceID]; ok {
		status.LastPullTimestamp = &t
	}
	if t, ok := r.pushMarks[deviceID]; ok {
		status.LastPushTimestamp = &t
	}
	return status, nil
}

func (r *fakeStatusRepo) SetPull(ctx context.Context, deviceID string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulls[deviceID] = t
	return nil
}

func (r *fakeStatusRepo) MarkPush(ctx context.Context, deviceID string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushMarks[deviceID] = t
	return nil
}

func (r *fakeStatusRepo) ResetPush(ctx context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pushMarks, deviceID)
	r.pushResets = append(r.pushResets, deviceID)
	return nil
}

func (r *fakeStatusRepo) List(ctx context.Context) ([]device.SyncStatus, error) {
	return nil, nil
}

type fakeAggregator struct {
	gotEvents []punch.ClassifiedEvent
	records   []attendance.Record
}

func (a *fakeAggregator) Aggregate(ctx context.Context, events []punch.ClassifiedEvent, winStart, winEnd time.Time) ([]attendance.Record, []attendancesvc.LookupFailure, error) {
	a.gotEvents = events
	return a.records, nil, nil
}

type fakeWriter struct {
	gotRecords []attendance.Record
	err        error
}

func (w *fakeWriter) WriteBatch(ctx context.Context, runID string, records []attendance.Record) (attendancesvc.BatchResult, error) {
	w.gotRecords = records
	if w.err != nil {
		return attendancesvc.BatchResult{Total: len(records)}, w.err
	}
	return attendancesvc.BatchResult{Total: len(records), Processed: len(records)}, nil
}

func newTestService(gateway *fakeGateway, statusRepo *fakeStatusRepo, aggregator *fakeAggregator, writer *fakeWriter, devices ...device.Device) *Service {
	return NewService(
		devices,
		gateway,
		statusRepo,
		NewNormalizer(0),
		NewPositionalClassifier(),
		4,
		aggregator,
		writer,
		sse.NewHub(),
	)
}

func testWindow() Window {
	return Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 23, 59, 59, 0, time.UTC),
	}
}

func TestServiceRun_HappyPath(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{rows: map[string][]punch.RawRow{
		"dev1": {
			rawRow("7", `"2024-01-01 08:45:00"`),
			rawRow("7", `"2024-01-01 15:20:00"`),
		},
		"dev2": {
			rawRow("12", `"2024-01-01 09:00:00"`),
		},
	}}
	statusRepo := newFakeStatusRepo()
	aggregator := &fakeAggregator{records: []attendance.Record{{EmployeeID: "EMP-7"}}}
	writer := &fakeWriter{}

	svc := newTestService(gateway, statusRepo, aggregator, writer,
		device.Device{ID: "dev1", IP: "10.0.0.11"},
		device.Device{ID: "dev2", IP: "10.0.0.12"},
	)

	summary, err := svc.Run(context.Background(), "run-1", testWindow())

	require.NoError(t, err)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, []string{"dev1", "dev2"}, summary.DevicesFetched)
	assert.Empty(t, summary.DevicesFailed)
	assert.Equal(t, 3, summary.EventsInWindow)
	assert.Len(t, aggregator.gotEvents, 3)
	assert.Len(t, writer.gotRecords, 1)
	assert.Equal(t, 1, summary.RecordsWritten)

	// Both devices pulled and their in-flight markers cleared.
	assert.Len(t, statusRepo.pulls, 2)
	assert.Empty(t, statusRepo.pushMarks)
	assert.ElementsMatch(t, []string{"dev1", "dev2"}, statusRepo.pushResets)
}

func TestServiceRun_DeviceFailureIsSkipped(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{
		rows: map[string][]punch.RawRow{
			"dev1": {rawRow("7", `"2024-01-01 08:45:00"`)},
		},
		errs: map[string]error{"dev2": errors.New("connection refused")},
	}
	statusRepo := newFakeStatusRepo()
	aggregator := &fakeAggregator{}
	writer := &fakeWriter{}

	svc := newTestService(gateway, statusRepo, aggregator, writer,
		device.Device{ID: "dev1", IP: "10.0.0.11"},
		device.Device{ID: "dev2", IP: "10.0.0.12"},
	)

	summary, err := svc.Run(context.Background(), "run-2", testWindow())

	require.NoError(t, err)
	assert.Equal(t, []string{"dev1"}, summary.DevicesFetched)
	assert.Equal(t, []string{"dev2"}, summary.DevicesFailed)

	// The failed device keeps its in-flight marker and gets no pull stamp.
	assert.Contains(t, statusRepo.pushMarks, "dev2")
	assert.NotContains(t, statusRepo.pulls, "dev2")
}

func TestServiceRun_NoPunchDataAborts(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{rows: map[string][]punch.RawRow{}}
	statusRepo := newFakeStatusRepo()
	writer := &fakeWriter{}

	svc := newTestService(gateway, statusRepo, &fakeAggregator{}, writer,
		device.Device{ID: "dev1", IP: "10.0.0.11"},
	)

	_, err := svc.Run(context.Background(), "run-3", testWindow())

	assert.ErrorIs(t, err, ErrNoPunchData)
	assert.Nil(t, writer.gotRecords)
}

func TestServiceRun_InvalidWindow(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeGateway{}, newFakeStatusRepo(), &fakeAggregator{}, &fakeWriter{})

	_, err := svc.Run(context.Background(), "run-4", Window{
		Start: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestServiceRun_WindowFiltersEvents(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{rows: map[string][]punch.RawRow{
		"dev1": {
			rawRow("7", `"2023-12-30 08:45:00"`),
			rawRow("7", `"2024-01-01 08:45:00"`),
			rawRow("7", `"2024-01-05 08:45:00"`),
		},
	}}
	statusRepo := newFakeStatusRepo()
	aggregator := &fakeAggregator{}

	svc := newTestService(gateway, statusRepo, aggregator, &fakeWriter{},
		device.Device{ID: "dev1", IP: "10.0.0.11"},
	)

	summary, err := svc.Run(context.Background(), "run-5", testWindow())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.EventsTotal)
	assert.Equal(t, 1, summary.EventsInWindow)
	require.Len(t, aggregator.gotEvents, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 45, 0, 0, time.UTC), aggregator.gotEvents[0].Timestamp)
}

func TestServiceRun_RerunProducesSameRecords(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{rows: map[string][]punch.RawRow{
		"dev1": {
			rawRow("7", `"2024-01-01 08:45:00"`),
			rawRow("7", `"2024-01-01 15:20:00"`),
		},
	}}
	statusRepo := newFakeStatusRepo()
	aggregator := &fakeAggregator{records: []attendance.Record{{EmployeeID: "EMP-7"}}}
	writer := &fakeWriter{}

	svc := newTestService(gateway, statusRepo, aggregator, writer,
		device.Device{ID: "dev1", IP: "10.0.0.11"},
	)

	first, err := svc.Run(context.Background(), "run-6a", testWindow())
	require.NoError(t, err)
	firstEvents := aggregator.gotEvents

	second, err := svc.Run(context.Background(), "run-6b", testWindow())
	require.NoError(t, err)

	assert.Equal(t, first.EventsInWindow, second.EventsInWindow)
	assert.Equal(t, firstEvents, aggregator.gotEvents)
	assert.Equal(t, first.RecordsWritten, second.RecordsWritten)
}
