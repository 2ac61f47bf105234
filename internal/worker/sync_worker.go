package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"shopledger/internal/amqp"
	"shopledger/internal/core"
	"shopledger/internal/log"
	"shopledger/internal/sheets"
	"shopledger/internal/storage"
)

// Source is the local side of the mirror: SQLite with per-period versions.
type Source interface {
	ReadPeriod(ctx context.Context, periodKey string) ([]core.Transaction, error)
	PeriodState(ctx context.Context, periodKey string) (storage.PeriodState, error)
	PendingPeriods(ctx context.Context, limit int) ([]storage.PeriodState, error)
	MarkSynced(ctx context.Context, periodKey string, version int64) error
}

// SyncWorker mirrors period snapshots from SQLite to Google Sheets. A sync
// always writes the whole period, so replays and duplicate messages are
// harmless.
type SyncWorker struct {
	source    Source
	sheets    sheets.SnapshotWriter
	batchSize int
	logger    *log.Logger

	// serializes message handling with the scheduled pending scan
	mu sync.Mutex
}

func NewSyncWorker(source Source, sheetsWriter sheets.SnapshotWriter, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &SyncWorker{
		source:    source,
		sheets:    sheetsWriter,
		batchSize: batchSize,
		logger:    logger,
	}
}

// HandleSyncMessage processes one period sync message from AMQP. Messages
// for a version already mirrored are acknowledged without a write.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.PeriodSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldPeriod, msg.PeriodKey,
		log.FieldVersion, msg.Version)

	state, err := w.source.PeriodState(ctx, msg.PeriodKey)
	if err != nil {
		return fmt.Errorf("get period state: %w", err)
	}
	if state.SyncedVersion >= msg.Version {
		w.logger.DebugContext(ctx, "Sync message already applied",
			log.FieldPeriod, msg.PeriodKey,
			log.FieldVersion, msg.Version,
			"synced_version", state.SyncedVersion)
		return nil
	}

	return w.SyncPeriod(ctx, msg.PeriodKey)
}

// SyncPeriod pushes the current local snapshot of periodKey to Sheets and
// records the version it carried.
func (w *SyncWorker) SyncPeriod(ctx context.Context, periodKey string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.source.PeriodState(ctx, periodKey)
	if err != nil {
		return fmt.Errorf("get period state: %w", err)
	}
	if !state.Pending() {
		return nil
	}

	rows, err := w.source.ReadPeriod(ctx, periodKey)
	if err != nil {
		return fmt.Errorf("read period %s: %w", periodKey, err)
	}

	if err := w.sheets.WritePeriod(ctx, periodKey, rows); err != nil {
		return fmt.Errorf("write period %s to sheets: %w", periodKey, err)
	}

	if err := w.source.MarkSynced(ctx, periodKey, state.Version); err != nil {
		// the sheet already holds the rows; the next scan rewrites the same data
		w.logger.ErrorContext(ctx, "Failed to mark period as synced",
			log.FieldPeriod, periodKey, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Period synced to Google Sheets",
		log.FieldPeriod, periodKey,
		log.FieldVersion, state.Version,
		log.FieldRows, len(rows))
	return nil
}

// ProcessPending syncs up to one batch of periods whose remote copy is
// behind. It is the safety net for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger pending scan when the worker boots.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	pending, err := w.source.PendingPeriods(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending periods: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending periods", "count", len(pending))

	var errs []error
	for _, p := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.SyncPeriod(ctx, p.PeriodKey); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync period",
				log.FieldPeriod, p.PeriodKey, log.FieldError, err)
			errs = append(errs, err)
		}
	}

	w.logger.InfoContext(ctx, "Pending sync completed",
		"total", len(pending),
		"errors", len(errs))
	return errors.Join(errs...)
}
