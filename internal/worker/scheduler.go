package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"shopledger/internal/log"
)

// Schedule runs ProcessPending every interval until ctx is done. Overlapping
// runs are skipped.
func (w *SyncWorker) Schedule(ctx context.Context, interval time.Duration) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.Local)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(interval).Do(func() {
		if err := w.ProcessPending(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled pending sync failed", log.FieldError, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule pending sync: %w", err)
	}

	scheduler.StartAsync()
	w.logger.InfoContext(ctx, "Pending sync scheduled", "interval", interval.String())

	go func() {
		<-ctx.Done()
		w.logger.Info("Stopping pending sync scheduler")
		scheduler.Stop()
	}()

	return scheduler, nil
}
