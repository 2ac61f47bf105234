package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sample() []core.Transaction {
	return []core.Transaction{
		{Date: core.NewDate(2026, 1, 3), ItemName: "เค้กนมสด", UnitPrice: core.Money{Cents: 5000}, Quantity: 47, Total: core.Money{Cents: 7}},
		{Date: core.NewDate(2026, 1, 4), ItemName: "บราวนี่", UnitPrice: core.Money{Cents: 2500}, Quantity: 0},
	}
}

func TestReadUnknownPeriodIsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	rows, err := repo.ReadPeriod(context.Background(), "Jan_2026")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSavePeriodRoundTripAndVersioning(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v1, err := repo.SavePeriod(ctx, "Jan_2026", sample())
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	rows, err := repo.ReadPeriod(ctx, "Jan_2026")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "เค้กนมสด", rows[0].ItemName)
	assert.Equal(t, int64(235000), rows[0].Total.Cents, "stored total is recomputed")
	assert.Equal(t, int64(0), rows[1].Total.Cents)

	v2, err := repo.SavePeriod(ctx, "Jan_2026", sample()[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)

	rows, err = repo.ReadPeriod(ctx, "Jan_2026")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "write is a full overwrite")

	require.NoError(t, repo.WritePeriod(ctx, "Jan_2026", nil))
	rows, err = repo.ReadPeriod(ctx, "Jan_2026")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPendingAndMarkSynced(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SavePeriod(ctx, "Dec_2025", sample()[:1])
	require.NoError(t, err)
	v, err := repo.SavePeriod(ctx, "Jan_2026", sample())
	require.NoError(t, err)

	pending, err := repo.PendingPeriods(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, repo.MarkSynced(ctx, "Jan_2026", v))
	state, err := repo.PeriodState(ctx, "Jan_2026")
	require.NoError(t, err)
	assert.False(t, state.Pending())
	assert.Equal(t, v, state.SyncedVersion)

	// A stale mark must not move the synced version backwards.
	require.NoError(t, repo.MarkSynced(ctx, "Jan_2026", v-1))
	state, err = repo.PeriodState(ctx, "Jan_2026")
	require.NoError(t, err)
	assert.Equal(t, v, state.SyncedVersion)

	pending, err = repo.PendingPeriods(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Dec_2025", pending[0].PeriodKey)

	periods, err := repo.ListPeriods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan_2026", "Dec_2025"}, periods)
}

func TestPeriodStateUnknown(t *testing.T) {
	repo := newTestRepo(t)
	state, err := repo.PeriodState(context.Background(), "Feb_2026")
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.Version)
	assert.False(t, state.Pending())
}

func TestSavePeriodRejectsOverflow(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = func() time.Time { return time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC) }

	bad := []core.Transaction{{Date: core.NewDate(2026, 1, 3), ItemName: "x", UnitPrice: core.Money{Cents: 1 << 62}, Quantity: 4}}
	_, err := repo.SavePeriod(context.Background(), "Jan_2026", bad)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	rows, err := repo.ReadPeriod(context.Background(), "Jan_2026")
	require.NoError(t, err)
	assert.Empty(t, rows, "failed write must roll back")
}

func TestSavePeriodLargerThanOneStatement(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const n = 5000
	rows := make([]core.Transaction, n)
	for i := range rows {
		rows[i] = core.Transaction{
			Date:      core.NewDate(2026, 1, 1+i%31),
			ItemName:  fmt.Sprintf("item-%d", i),
			UnitPrice: core.Money{Cents: 100},
			Quantity:  1,
		}
	}
	_, err := repo.SavePeriod(ctx, "Jan_2026", rows)
	require.NoError(t, err)

	stored, err := repo.ReadPeriod(ctx, "Jan_2026")
	require.NoError(t, err)
	require.Len(t, stored, n)
	assert.Equal(t, "item-0", stored[0].ItemName)
	assert.Equal(t, "item-4999", stored[n-1].ItemName)
	assert.Equal(t, int64(n*100), core.TotalForPeriod(stored).Cents)

	rows[n-1].UnitPrice = core.Money{Cents: core.MaxLineTotal}
	rows[n-1].Quantity = 2
	_, err = repo.SavePeriod(ctx, "Jan_2026", rows[:n/2])
	require.NoError(t, err)
	_, err = repo.SavePeriod(ctx, "Jan_2026", rows)
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, n-1, ve.Row)

	stored, err = repo.ReadPeriod(ctx, "Jan_2026")
	require.NoError(t, err)
	assert.Len(t, stored, n/2, "a failure in a later batch rolls back the earlier ones")
}
