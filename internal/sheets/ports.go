package sheets

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"shopledger/internal/core"
)

// ErrBackendUnavailable marks failures reaching or writing the persistence
// backend. Callers keep their in-memory state and may retry.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Unavailable wraps err so that it matches both ErrBackendUnavailable and err.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}

// Ports for outbound adapters. A period is one table addressed by its key
// (see core.PeriodKey).
type (
	// SnapshotReader returns every row of a period in stored order. A period
	// that does not exist yet reads as an empty slice, not an error.
	SnapshotReader interface {
		ReadPeriod(ctx context.Context, periodKey string) ([]core.Transaction, error)
	}

	// SnapshotWriter replaces the whole period with rows. Writing the same
	// rows twice leaves the same stored table.
	SnapshotWriter interface {
		WritePeriod(ctx context.Context, periodKey string, rows []core.Transaction) error
	}

	SnapshotStore interface {
		SnapshotReader
		SnapshotWriter
	}

	// PeriodLister lists the period keys present in the backend.
	PeriodLister interface {
		ListPeriods(ctx context.Context) ([]string, error)
	}
)
