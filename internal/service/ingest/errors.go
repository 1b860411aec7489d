package ingest

import "errors"

var (
	// ErrNoPunchData means no device produced any punch rows for the run.
	ErrNoPunchData = errors.New("no punch data available from any device")

	// ErrInvalidWindow means the requested window is empty or reversed.
	ErrInvalidWindow = errors.New("window end must not precede window start")
)
