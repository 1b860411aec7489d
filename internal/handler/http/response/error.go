package response

import (
	"errors"
	"net/http"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/attendance"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/employee"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/validator"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/ingest"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Ingest errors
	case errors.Is(err, ingest.ErrNoPunchData):
		BadRequest(w, "No punch data available from any device", nil)
	case errors.Is(err, ingest.ErrInvalidWindow):
		BadRequest(w, "Window end must not precede window start", nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		BadRequest(w, "Employee is not active", nil)

	// Device domain errors
	case errors.Is(err, device.ErrWatermarkRegressed):
		Conflict(w, "Watermark is already past the requested sync point")
	case errors.Is(err, device.ErrStatusNotFound):
		NotFound(w, "Device sync status not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
