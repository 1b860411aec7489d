package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/handler/http/response"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/jwt"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/sse"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/validator"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/ingest"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/watermark"
)

// SyncHandler defines the sync API handler interface
type SyncHandler interface {
	TriggerReconciliation(w http.ResponseWriter, r *http.Request)
	ListWatermarks(w http.ResponseWriter, r *http.Request)
	ListDeviceStatus(w http.ResponseWriter, r *http.Request)

	// SSE
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type syncHandlerImpl struct {
	ingestService    *ingest.Service
	watermarkService *watermark.Service
	statusRepo       device.SyncStatusRepository
	hub              *sse.Hub
	jwtService       jwt.Service
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(
	ingestService *ingest.Service,
	watermarkService *watermark.Service,
	statusRepo device.SyncStatusRepository,
	hub *sse.Hub,
	jwtService jwt.Service,
) SyncHandler {
	return &syncHandlerImpl{
		ingestService:    ingestService,
		watermarkService: watermarkService,
		statusRepo:       statusRepo,
		hub:              hub,
		jwtService:       jwtService,
	}
}

type reconciliationRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Async     bool   `json:"async"`
}

func (req reconciliationRequest) validate() (ingest.Window, error) {
	var errs validator.ValidationErrors

	start, ok := time.Time{}, false
	if validator.IsEmpty(req.StartDate) {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date is required"})
	} else if start, ok = validator.IsValidDate(req.StartDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be YYYY-MM-DD"})
	}

	end, ok := time.Time{}, false
	if validator.IsEmpty(req.EndDate) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date is required"})
	} else if end, ok = validator.IsValidDate(req.EndDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be YYYY-MM-DD"})
	}

	if len(errs) > 0 {
		return ingest.Window{}, errs
	}

	// The window is closed; include the whole end day.
	return ingest.Window{
		Start: start,
		End:   end.Add(24*time.Hour - time.Second),
	}, nil
}

type runSummaryResponse struct {
	RunID          string   `json:"run_id"`
	WindowStart    string   `json:"window_start"`
	WindowEnd      string   `json:"window_end"`
	DevicesFetched []string `json:"devices_fetched"`
	DevicesFailed  []string `json:"devices_failed,omitempty"`
	EventsInWindow int      `json:"events_in_window"`
	RowsDropped    int      `json:"rows_dropped"`
	LookupFailures int      `json:"lookup_failures"`
	RecordsTotal   int      `json:"records_total"`
	RecordsWritten int      `json:"records_written"`
	RecordsFailed  int      `json:"records_failed"`
}

func toRunSummaryResponse(s *ingest.RunSummary) runSummaryResponse {
	return runSummaryResponse{
		RunID:          s.RunID,
		WindowStart:    s.Window.Start.Format("2006-01-02"),
		WindowEnd:      s.Window.End.Format("2006-01-02"),
		DevicesFetched: s.DevicesFetched,
		DevicesFailed:  s.DevicesFailed,
		EventsInWindow: s.EventsInWindow,
		RowsDropped:    s.RowsDropped,
		LookupFailures: len(s.LookupFailures),
		RecordsTotal:   s.RecordsTotal,
		RecordsWritten: s.RecordsWritten,
		RecordsFailed:  s.RecordsFailed,
	}
}

// TriggerReconciliation starts a reconciliation run over a date window.
// With async=true the run continues in the background and progress is
// available on the run's event stream.
func (h *syncHandlerImpl) TriggerReconciliation(w http.ResponseWriter, r *http.Request) {
	var req reconciliationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	win, err := req.validate()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	runID := uuid.NewString()

	if req.Async {
		go func() {
			if _, err := h.ingestService.Run(context.Background(), runID, win); err != nil {
				slog.Error("Background reconciliation run failed", "run_id", runID, "error", err)
			}
		}()
		response.SuccessWithMessage(w, "Reconciliation run started", map[string]string{"run_id": runID})
		return
	}

	summary, err := h.ingestService.Run(r.Context(), runID, win)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, toRunSummaryResponse(summary))
}

type watermarkResponse struct {
	ShiftName     string  `json:"shift_name"`
	SyncTimestamp *string `json:"sync_timestamp"`
}

// ListWatermarks returns the stored sync point of every shift
func (h *syncHandlerImpl) ListWatermarks(w http.ResponseWriter, r *http.Request) {
	watermarks, err := h.watermarkService.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := make([]watermarkResponse, 0, len(watermarks))
	for _, wm := range watermarks {
		item := watermarkResponse{ShiftName: wm.ShiftName}
		if wm.SyncTimestamp != nil {
			ts := wm.SyncTimestamp.Format(time.RFC3339)
			item.SyncTimestamp = &ts
		}
		result = append(result, item)
	}

	response.Success(w, result)
}

type deviceStatusResponse struct {
	DeviceID          string  `json:"device_id"`
	LastPullTimestamp *string `json:"last_pull_timestamp"`
	LastPushTimestamp *string `json:"last_push_timestamp"`
}

// ListDeviceStatus returns the sync bookkeeping of every known device
func (h *syncHandlerImpl) ListDeviceStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.statusRepo.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := make([]deviceStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		item := deviceStatusResponse{DeviceID: st.DeviceID}
		if st.LastPullTimestamp != nil {
			ts := st.LastPullTimestamp.Format(time.RFC3339)
			item.LastPullTimestamp = &ts
		}
		if st.LastPushTimestamp != nil {
			ts := st.LastPushTimestamp.Format(time.RFC3339)
			item.LastPushTimestamp = &ts
		}
		result = append(result, item)
	}

	response.Success(w, result)
}

// GetSSEToken generates a short-lived token for SSE connections
func (h *syncHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	token, expiresAt, err := h.jwtService.GenerateOperatorToken("sse")
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Stream handles SSE connection for run progress events
func (h *syncHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter (SSE doesn't support custom headers)
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	if _, err := h.jwtService.ValidateToken(tokenStr); err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	runID := chi.URLParam(r, "runID")
	if runID == "" {
		http.Error(w, "Missing run id", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(runID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"run_id\":\"%s\"}\n\n", runID)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
