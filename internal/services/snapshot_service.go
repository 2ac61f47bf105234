package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"shopledger/internal/core"
	"shopledger/internal/log"
	"shopledger/internal/sheets"
)

// PeriodRepository is the local durable store behind the service.
type PeriodRepository interface {
	sheets.SnapshotReader
	sheets.PeriodLister
	SavePeriod(ctx context.Context, periodKey string, rows []core.Transaction) (int64, error)
}

// SyncPublisher announces that a period version is ready to mirror.
type SyncPublisher interface {
	PublishPeriodSync(ctx context.Context, periodKey string, version int64) error
}

// SnapshotService saves periods to SQLite and notifies the sync worker over
// AMQP. The local save is authoritative: a failed publish is logged and the
// worker's pending scan picks the period up later.
type SnapshotService struct {
	repo      PeriodRepository
	publisher SyncPublisher
	logger    *log.Logger
}

func NewSnapshotService(repo PeriodRepository, publisher SyncPublisher, logger *log.Logger) *SnapshotService {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &SnapshotService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// ReadPeriod implements sheets.SnapshotReader.
func (s *SnapshotService) ReadPeriod(ctx context.Context, periodKey string) ([]core.Transaction, error) {
	return s.repo.ReadPeriod(ctx, periodKey)
}

// ListPeriods implements sheets.PeriodLister.
func (s *SnapshotService) ListPeriods(ctx context.Context) ([]string, error) {
	return s.repo.ListPeriods(ctx)
}

// WritePeriod implements sheets.SnapshotWriter.
func (s *SnapshotService) WritePeriod(ctx context.Context, periodKey string, rows []core.Transaction) error {
	version, err := s.repo.SavePeriod(ctx, periodKey, rows)
	if err != nil {
		return fmt.Errorf("save period: %w", err)
	}

	if err := s.publish(ctx, periodKey, version); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish sync message",
			log.FieldPeriod, periodKey,
			log.FieldVersion, version,
			log.FieldError, err)
	}
	return nil
}

func (s *SnapshotService) publish(ctx context.Context, periodKey string, version int64) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping sync message", log.FieldPeriod, periodKey)
		return nil
	}
	return s.publisher.PublishPeriodSync(ctx, periodKey, version)
}

// Close closes the repository and the publisher when they hold resources.
func (s *SnapshotService) Close() error {
	var errs []error
	if c, ok := s.repo.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
