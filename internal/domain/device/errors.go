package device

import "errors"

var (
	ErrStatusNotFound     = errors.New("no sync status recorded for device")
	ErrWatermarkRegressed = errors.New("watermark candidate is not newer than the stored sync point")
)
