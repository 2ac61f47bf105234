package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"shopledger/internal/catalog"
	"shopledger/internal/core"
	ports "shopledger/internal/sheets"
	"shopledger/internal/sheets/memory"
	"shopledger/internal/sheets/mocks"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("row-%d", n)
	}
}

func newLedger(store ports.SnapshotStore, clock *fakeClock, opts ...Option) *Ledger {
	base := []Option{WithClock(clock.Now), WithLocation(time.UTC), WithIDs(sequentialIDs())}
	return New(store, append(base, opts...)...)
}

func jan(day int) core.Date { return core.NewDate(2026, 1, day) }

func draft(d core.Date, item string, priceBaht, qty int64) core.Draft {
	return core.Draft{Date: d, ItemName: item, UnitPrice: core.Money{Cents: priceBaht * 100}, Quantity: qty}
}

func TestAppendComputesTotal(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(memory.New(), clock)
	ctx := context.Background()

	rows, err := l.Append(ctx, draft(jan(3), "เค้กนมสด", 50, 47))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(235000), rows[0].Total.Cents)
	assert.Equal(t, "row-1", rows[0].ID)
	assert.Equal(t, int64(235000), core.TotalForDate(rows, jan(3)).Cents)
	assert.True(t, l.State().Dirty)
}

func TestAppendKeepsEntryOrder(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)}
	l := newLedger(memory.New(), clock)
	ctx := context.Background()

	_, err := l.Append(ctx, draft(jan(5), "a", 1, 1))
	require.NoError(t, err)
	rows, err := l.Append(ctx, draft(jan(2), "b", 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, []string{rows[0].ItemName, rows[1].ItemName})
}

func TestAppendRejectsInvalidDraft(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(memory.New(), clock)
	ctx := context.Background()
	_, err := l.Append(ctx, draft(jan(3), "เค้กนมสด", 50, 1))
	require.NoError(t, err)
	before := l.Snapshot(ctx)

	cases := []struct {
		name string
		d    core.Draft
		want error
	}{
		{"empty item", draft(jan(3), "", 50, 1), core.ErrEmptyItem},
		{"blank item", draft(jan(3), "   ", 50, 1), core.ErrEmptyItem},
		{"negative price", core.Draft{Date: jan(3), ItemName: "x", UnitPrice: core.Money{Cents: -1}, Quantity: 1}, core.ErrNegativePrice},
		{"negative quantity", draft(jan(3), "x", 1, -1), core.ErrNegativeQuantity},
		{"other month", draft(core.NewDate(2026, 2, 1), "x", 1, 1), core.ErrDateOutsidePeriod},
		{"no date", core.Draft{ItemName: "x", Quantity: 1}, core.ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Append(ctx, tc.d)
			require.Error(t, err)
			assert.True(t, core.IsValidation(err))
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, before, l.Snapshot(ctx))
		})
	}
}

func TestReplaceAllRecomputesTotals(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(memory.New(), clock)
	ctx := context.Background()

	rows, err := l.ReplaceAll(ctx, []core.Transaction{
		{Date: jan(1), ItemName: "a", UnitPrice: core.Money{Cents: 6000}, Quantity: 2, Total: core.Money{Cents: 1}},
		{ID: "keep", Date: jan(2), ItemName: "b", UnitPrice: core.Money{Cents: 2500}, Quantity: 4, Total: core.Money{Cents: 99999}},
		{ID: "keep", Date: jan(2), ItemName: "c", UnitPrice: core.Money{Cents: 100}, Quantity: 1},
	})
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.Consistent(), "row %s", r.ItemName)
	}
	assert.Equal(t, int64(12000), rows[0].Total.Cents)
	assert.Equal(t, int64(10000), rows[1].Total.Cents)
	assert.Equal(t, "keep", rows[1].ID)
	assert.NotEqual(t, "keep", rows[2].ID, "duplicate ids are reassigned")
}

func TestReplaceAllIsAtomic(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(memory.New(), clock)
	ctx := context.Background()
	_, err := l.Append(ctx, draft(jan(3), "a", 10, 1))
	require.NoError(t, err)
	before := l.Snapshot(ctx)

	_, err = l.ReplaceAll(ctx, []core.Transaction{
		{Date: jan(1), ItemName: "ok", Quantity: 1},
		{Date: jan(1), ItemName: "", Quantity: 1},
	})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Row)
	assert.Equal(t, before, l.Snapshot(ctx))

	rows, err := l.ReplaceAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows, "deleting every row is valid")
}

func TestPersistCreatesPeriodAndIsIdempotent(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	store := memory.New()
	l := newLedger(store, clock)
	ctx := context.Background()

	rows, err := store.ReadPeriod(ctx, "Jan_2026")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = l.Append(ctx, draft(jan(3), "เค้กนมสด", 50, 47))
	require.NoError(t, err)
	require.NoError(t, l.Persist(ctx))
	first, _ := store.ReadPeriod(ctx, "Jan_2026")

	require.NoError(t, l.Persist(ctx))
	second, _ := store.ReadPeriod(ctx, "Jan_2026")

	assert.Equal(t, first, second)
	require.Len(t, first, 1)
	assert.Equal(t, int64(235000), first[0].Total.Cents)
	assert.False(t, l.State().Dirty)
	assert.Equal(t, 2, store.Writes())
}

func TestPersistWritesSameSnapshotTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return([]core.Transaction{}, nil)
	var written [][]core.Transaction
	store.EXPECT().WritePeriod(gomock.Any(), "Jan_2026", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, rows []core.Transaction) error {
			written = append(written, rows)
			return nil
		}).Times(2)

	_, err := l.Append(ctx, draft(jan(3), "a", 5, 3))
	require.NoError(t, err)
	require.NoError(t, l.Persist(ctx))
	require.NoError(t, l.Persist(ctx))

	require.Len(t, written, 2)
	assert.Equal(t, written[0], written[1])
}

func TestEditQuantityToZeroReducesPeriodTotal(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	store := memory.New()
	l := newLedger(store, clock)
	ctx := context.Background()

	_, err := l.Append(ctx, draft(jan(2), "a", 20, 5))
	require.NoError(t, err)
	rows, err := l.Append(ctx, draft(jan(3), "b", 10, 1))
	require.NoError(t, err)
	require.NoError(t, l.Persist(ctx))
	assert.Equal(t, int64(11000), core.TotalForPeriod(rows).Cents)

	rows[0].Quantity = 0
	rows, err = l.ReplaceAll(ctx, rows)
	require.NoError(t, err)
	require.NoError(t, l.Persist(ctx))

	assert.Equal(t, int64(0), rows[0].Total.Cents)
	assert.Equal(t, int64(1000), core.TotalForPeriod(rows).Cents)
	stored, _ := store.ReadPeriod(ctx, "Jan_2026")
	assert.Equal(t, int64(0), stored[0].Total.Cents)
	assert.Len(t, stored, 2, "zero-quantity rows are kept")
}

func TestPersistBackendUnavailableKeepsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(nil, nil)
	store.EXPECT().WritePeriod(gomock.Any(), "Jan_2026", gomock.Any()).
		Return(ports.Unavailable("write", errors.New("dial tcp: i/o timeout")))

	rows, err := l.Append(ctx, draft(jan(3), "a", 5, 3))
	require.NoError(t, err)

	err = l.Persist(ctx)
	require.ErrorIs(t, err, ports.ErrBackendUnavailable)
	assert.Equal(t, rows, l.Snapshot(ctx))
	assert.True(t, l.State().Dirty)
}

func TestPersistWrapsUnknownStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	store.EXPECT().ReadPeriod(gomock.Any(), gomock.Any()).Return(nil, nil)
	store.EXPECT().WritePeriod(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("quota exceeded"))

	err := l.Persist(ctx)
	assert.ErrorIs(t, err, ports.ErrBackendUnavailable)
}

func TestPersistRevalidatesLoadedRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	// A row edited directly in the spreadsheet with its name cleared.
	store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return([]core.Transaction{
		{Date: jan(1), ItemName: "ok", UnitPrice: core.Money{Cents: 100}, Quantity: 1},
		{Date: jan(2), ItemName: "", UnitPrice: core.Money{Cents: 100}, Quantity: 1},
	}, nil)
	// No WritePeriod expectation: nothing may be written.

	err := l.Persist(ctx)
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Row)
	assert.ErrorIs(t, err, core.ErrEmptyItem)
}

func TestLoadFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(nil, ports.Unavailable("read", errors.New("401")))
	l := newLedger(store, clock)
	assert.Empty(t, l.Snapshot(ctx))
	st := l.State()
	assert.True(t, st.Degraded)
	assert.ErrorIs(t, st.LoadErr, ports.ErrBackendUnavailable)

	store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(nil, ports.Unavailable("read", errors.New("401")))
	seeded := newLedger(store, clock, WithSeed(catalog.Starter()))
	rows := seeded.Snapshot(ctx)
	assert.Len(t, rows, catalog.Starter().Len())
	for _, r := range rows {
		assert.Zero(t, r.Quantity)
		assert.True(t, r.Date.SameDay(jan(3)))
	}
}

func TestEmptyPeriodSeedsPlaceholders(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	menu := catalog.New([]core.MenuEntry{{Name: "ขนมปัง", Price: core.Money{Cents: 6000}}, {Name: "บราวนี่", Price: core.Money{Cents: 2500}}})
	l := newLedger(memory.New(), clock, WithSeed(menu))

	rows := l.Snapshot(context.Background())
	require.Len(t, rows, 2)
	assert.Equal(t, int64(0), core.TotalForPeriod(rows).Cents)
	groups := core.GroupedByDate(rows)
	require.Len(t, groups, 1)
	assert.Zero(t, groups[0].Quantity)
	assert.False(t, l.State().Degraded)
}

func TestMonthRolloverReloads(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)}
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.WritePeriod(ctx, "Feb_2026", []core.Transaction{
		{Date: core.NewDate(2026, 2, 1), ItemName: "early", UnitPrice: core.Money{Cents: 100}, Quantity: 1},
	}))
	l := newLedger(store, clock)

	_, err := l.Append(ctx, draft(jan(31), "late", 10, 1))
	require.NoError(t, err)
	require.NoError(t, l.Persist(ctx))
	assert.Equal(t, "Jan_2026", l.CurrentPeriod())

	clock.t = clock.t.Add(2 * time.Minute)
	assert.Equal(t, "Feb_2026", l.CurrentPeriod())

	rows := l.Snapshot(ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, "early", rows[0].ItemName)
	assert.Equal(t, "Feb_2026", l.State().Period)

	// A January date is now outside the active period.
	_, err = l.Append(ctx, draft(jan(31), "late again", 10, 1))
	assert.ErrorIs(t, err, core.ErrDateOutsidePeriod)
}

func TestPeriodFollowsShopTimeZone(t *testing.T) {
	bkk := time.FixedZone("ICT", 7*3600)
	clock := &fakeClock{t: time.Date(2026, 1, 31, 18, 0, 0, 0, time.UTC)} // 01:00 on Feb 1st in Bangkok
	l := New(memory.New(), WithClock(clock.Now), WithLocation(bkk))
	assert.Equal(t, "Feb_2026", l.CurrentPeriod())
	assert.Equal(t, "2026-02-01", l.Today().String())
}

func TestRefreshReloadsFromStore(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	store := memory.New()
	ctx := context.Background()
	l := newLedger(store, clock)

	_, err := l.Append(ctx, draft(jan(3), "unsaved", 10, 1))
	require.NoError(t, err)

	other := []core.Transaction{{Date: jan(2), ItemName: "from another terminal", Quantity: 2, UnitPrice: core.Money{Cents: 500}}}
	require.NoError(t, store.WritePeriod(ctx, "Jan_2026", other))

	l.Refresh(ctx)
	rows := l.Snapshot(ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, "from another terminal", rows[0].ItemName)
	assert.NotEmpty(t, rows[0].ID)

	found, ok := l.Find(ctx, rows[0].ID)
	assert.True(t, ok)
	assert.Equal(t, rows[0], found)
}

func storedJan() []core.Transaction {
	return []core.Transaction{
		{Date: jan(1), ItemName: "ขนมปัง", UnitPrice: core.Money{Cents: 6000}, Quantity: 2},
		{Date: jan(2), ItemName: "บราวนี่", UnitPrice: core.Money{Cents: 2500}, Quantity: 4},
		{Date: jan(2), ItemName: "เค้กนมสด", UnitPrice: core.Money{Cents: 5000}, Quantity: 1},
	}
}

func TestDegradedPeriodIsReadBeforeWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	down := ports.Unavailable("read", errors.New("dial tcp: i/o timeout"))
	var written []core.Transaction
	gomock.InOrder(
		store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(nil, down),
		store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(nil, down),
		store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(storedJan(), nil),
		store.EXPECT().WritePeriod(gomock.Any(), "Jan_2026", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, rows []core.Transaction) error {
				written = rows
				return nil
			}),
	)

	assert.Empty(t, l.Snapshot(ctx))
	require.True(t, l.State().Degraded)

	rows, err := l.Record(ctx, draft(jan(3), "เค้กส้ม", 45, 2))
	require.ErrorIs(t, err, ports.ErrBackendUnavailable)
	require.Len(t, rows, 1, "the sale is kept locally")

	require.NoError(t, l.Persist(ctx))
	require.Len(t, written, 4)
	assert.Equal(t, "ขนมปัง", written[0].ItemName)
	assert.Equal(t, "เค้กส้ม", written[3].ItemName)
	assert.Equal(t, int64(12000+10000+5000+9000), core.TotalForPeriod(written).Cents)

	st := l.State()
	assert.False(t, st.Degraded)
	assert.False(t, st.Dirty)
	assert.NoError(t, st.LoadErr)
}

func TestDegradedPeriodIsNeverWritten(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock, WithSeed(catalog.Starter()))
	ctx := context.Background()

	store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").
		Return(nil, ports.Unavailable("read", errors.New("401"))).AnyTimes()
	// No WritePeriod expectation: the fallback must not reach the store.

	_, err := l.Record(ctx, draft(jan(3), "เค้กส้ม", 45, 2))
	require.ErrorIs(t, err, ports.ErrBackendUnavailable)
	require.ErrorIs(t, l.Persist(ctx), ports.ErrBackendUnavailable)

	st := l.State()
	assert.True(t, st.Degraded)
	assert.True(t, st.Dirty)
	assert.Equal(t, catalog.Starter().Len()+1, st.Rows)
}

func TestFirstReadSucceedingLaterKeepsStoredRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	var written []core.Transaction
	gomock.InOrder(
		store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(nil, ports.ErrMalformedRow),
		store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(storedJan(), nil),
		store.EXPECT().WritePeriod(gomock.Any(), "Jan_2026", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, rows []core.Transaction) error {
				written = rows
				return nil
			}),
	)

	assert.Empty(t, l.Snapshot(ctx))
	assert.ErrorIs(t, l.State().LoadErr, ports.ErrMalformedRow)

	rows, err := l.Record(ctx, draft(jan(3), "เค้กส้ม", 45, 1))
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Len(t, written, 4)
}

func TestOverflowingStoredRowDegradesPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	stored := append(storedJan(), core.Transaction{
		Date: jan(2), ItemName: "typo", UnitPrice: core.Money{Cents: core.MaxLineTotal}, Quantity: 2,
	})
	store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(stored, nil).Times(2)

	assert.Empty(t, l.Snapshot(ctx))
	st := l.State()
	require.True(t, st.Degraded)
	assert.ErrorIs(t, st.LoadErr, core.ErrAmountTooLarge)
	var ve *core.ValidationError
	require.ErrorAs(t, st.LoadErr, &ve)
	assert.Equal(t, 3, ve.Row)

	err := l.Persist(ctx)
	assert.ErrorIs(t, err, ports.ErrBackendUnavailable)
	assert.ErrorIs(t, err, core.ErrAmountTooLarge)
}

func TestStoredRowOutsidePeriodBlocksAppend(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)}
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.WritePeriod(ctx, "Feb_2026", []core.Transaction{
		{Date: jan(31), ItemName: "late entry", UnitPrice: core.Money{Cents: 1000}, Quantity: 1},
		{Date: core.NewDate(2026, 2, 2), ItemName: "ขนมปัง", UnitPrice: core.Money{Cents: 6000}, Quantity: 1},
	}))
	l := newLedger(store, clock)
	before := l.Snapshot(ctx)
	require.Len(t, before, 2, "out-of-period rows are loaded as stored")

	for range 2 {
		_, err := l.Record(ctx, draft(core.NewDate(2026, 2, 3), "เค้กส้ม", 45, 1))
		var ve *core.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, 0, ve.Row)
		assert.ErrorIs(t, err, core.ErrDateOutsidePeriod)
		assert.Equal(t, before, l.Snapshot(ctx))
		assert.False(t, l.State().Dirty)
	}
	assert.Equal(t, 1, store.Writes())

	_, err := l.Append(ctx, draft(core.NewDate(2026, 2, 3), "เค้กส้ม", 45, 1))
	assert.ErrorIs(t, err, core.ErrDateOutsidePeriod)
	assert.Equal(t, before, l.Snapshot(ctx))
}

func TestRecordRollsBackRejectedWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(storedJan(), nil)
	store.EXPECT().WritePeriod(gomock.Any(), "Jan_2026", gomock.Any()).
		Return(&core.ValidationError{Row: 3, Field: "total", Err: core.ErrAmountTooLarge})
	before := l.Snapshot(ctx)

	_, err := l.Record(ctx, draft(jan(3), "เค้กส้ม", 45, 1))
	require.ErrorIs(t, err, core.ErrAmountTooLarge)
	assert.Equal(t, before, l.Snapshot(ctx))
	assert.False(t, l.State().Dirty)
}

func TestReplaceAllOnDegradedSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotStore(ctrl)
	clock := &fakeClock{t: time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)}
	l := newLedger(store, clock)
	ctx := context.Background()

	down := ports.Unavailable("read", errors.New("dial tcp: i/o timeout"))
	gomock.InOrder(
		store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(nil, down),
		store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(nil, down),
		store.EXPECT().ReadPeriod(gomock.Any(), "Jan_2026").Return(storedJan(), nil),
	)
	edited := []core.Transaction{{Date: jan(3), ItemName: "only row", UnitPrice: core.Money{Cents: 100}, Quantity: 1}}

	assert.Empty(t, l.Snapshot(ctx))
	_, err := l.ReplaceAll(ctx, edited)
	require.ErrorIs(t, err, ports.ErrBackendUnavailable)

	_, err = l.ReplaceAll(ctx, edited)
	require.ErrorIs(t, err, ErrStaleSnapshot)
	rows := l.Snapshot(ctx)
	assert.Len(t, rows, 3, "stored rows replace the fallback")
	assert.False(t, l.State().Dirty)

	rows, err = l.ReplaceAll(ctx, edited)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
