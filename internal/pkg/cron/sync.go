package cron

import (
	"context"
	"time"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/watermark"
)

// SyncJobs wires the watermark advancement cycle into the scheduler.
type SyncJobs struct {
	watermarkService *watermark.Service
	interval         time.Duration
}

func NewSyncJobs(watermarkService *watermark.Service, interval time.Duration) *SyncJobs {
	return &SyncJobs{
		watermarkService: watermarkService,
		interval:         interval,
	}
}

// RegisterJobs registers all sync jobs with the scheduler
func (j *SyncJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("advance_shift_watermarks", j.interval, func(ctx context.Context) error {
		return j.watermarkService.AdvanceAll(ctx)
	})
}
