// Package ledger holds the in-memory snapshot of one month of sales for a
// single session and keeps it consistent with the persistence backend.
//
// Every operation first checks the wall clock: when the month has changed
// since the snapshot was loaded, the snapshot is discarded and the new
// period is read from the store. Totals are recomputed on append, on
// replace and again before every write, so a stored total always equals
// unit price times quantity.
//
// A period whose read failed is degraded: the snapshot falls back to empty or
// seed rows and is never written over the stored period. Every later
// operation retries the read; once it succeeds the stored rows replace the
// fallback and sales appended meanwhile are kept after them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopledger/internal/catalog"
	"shopledger/internal/core"
	"shopledger/internal/log"
	ports "shopledger/internal/sheets"
)

// ErrStaleSnapshot is returned by ReplaceAll when the rows were edited against
// a fallback snapshot and the stored period has been read since.
var ErrStaleSnapshot = errors.New("snapshot was reloaded from the backend")

// Ledger is the session-scoped transaction ledger. It is safe for
// concurrent use; operations are serialized.
type Ledger struct {
	mu     sync.Mutex
	store  ports.SnapshotStore
	now    func() time.Time
	loc    *time.Location
	seed   *catalog.Catalog
	newID  func() string
	logger *log.Logger

	period    string
	rows      []core.Transaction
	loaded    bool
	dirty     bool
	degraded  bool
	loadErr   error
	lastSaved time.Time

	// ids of rows appended while degraded
	local map[string]struct{}
}

// State describes the ledger for display.
type State struct {
	Period    string
	Rows      int
	Loaded    bool
	Dirty     bool // local changes not yet written
	Degraded  bool // last read failed; snapshot is a fallback and is not written
	LoadErr   error
	LastSaved time.Time
}

type Option func(*Ledger)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the shop's time zone used to derive today and the period.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithSeed seeds an empty period with zero-quantity placeholder rows, one per
// menu entry, dated today.
func WithSeed(c *catalog.Catalog) Option {
	return func(l *Ledger) { l.seed = c }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger.WithComponent(log.ComponentLedger)
		}
	}
}

// WithIDs overrides the row id generator.
func WithIDs(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New creates a ledger over store. Nothing is read until the first operation.
func New(store ports.SnapshotStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		newID:  uuid.NewString,
		logger: log.Default(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CurrentPeriod derives the active period key from the clock at call time.
func (l *Ledger) CurrentPeriod() string {
	return core.PeriodKey(l.now().In(l.loc))
}

// Today returns the shop's current calendar date.
func (l *Ledger) Today() core.Date {
	return core.DateOf(l.now().In(l.loc))
}

// Snapshot returns a copy of the rows of the active period, loading it
// first when needed.
func (l *Ledger) Snapshot(ctx context.Context) []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.ensure(ctx)
	return l.copyRows()
}

// Find returns the row with the given session id.
func (l *Ledger) Find(ctx context.Context, id string) (core.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.ensure(ctx)
	for _, t := range l.rows {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// State reports the current bookkeeping without triggering a load.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		Period:    l.period,
		Rows:      len(l.rows),
		Loaded:    l.loaded,
		Dirty:     l.dirty,
		Degraded:  l.degraded,
		LoadErr:   l.loadErr,
		LastSaved: l.lastSaved,
	}
}

// Append validates the draft, computes its total and adds it after the
// existing rows. The resulting snapshot must be valid as a whole, so a stored
// row that no longer passes validation blocks the append and the error names
// that row. On error the snapshot is left untouched.
func (l *Ledger) Append(ctx context.Context, d core.Draft) ([]core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.ensure(ctx)

	if _, err := l.add(ctx, d); err != nil {
		return nil, err
	}
	return l.copyRows(), nil
}

// Record appends the draft and writes the period in one step. When the
// write is rejected as invalid the row is taken back out, so a resubmitted
// sale is never counted twice. When the backend is unavailable the row is
// kept locally and the returned error wraps sheets.ErrBackendUnavailable.
func (l *Ledger) Record(ctx context.Context, d core.Draft) ([]core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	readErr := l.ensure(ctx)

	prevRows, prevDirty := l.rows, l.dirty
	t, err := l.add(ctx, d)
	if err != nil {
		return nil, err
	}
	if readErr != nil {
		l.logger.WarnContext(ctx, "Period unreadable, sale kept locally",
			log.FieldPeriod, l.period,
			log.FieldError, readErr)
		return l.copyRows(), readErr
	}
	if err := l.persist(ctx); err != nil {
		if core.IsValidation(err) && !errors.Is(err, ports.ErrBackendUnavailable) {
			l.rows, l.dirty = prevRows, prevDirty
			delete(l.local, t.ID)
			return nil, err
		}
		return l.copyRows(), err
	}
	return l.copyRows(), nil
}

// ReplaceAll swaps the whole snapshot for rows, recomputing every total. If
// any row is invalid nothing is replaced and the error names the row.
// Rows without an id, or with an id already used earlier in rows, get a
// fresh one. A degraded ledger accepts no replacement: the error wraps
// sheets.ErrBackendUnavailable while the period stays unreadable, and is
// ErrStaleSnapshot once it has been read.
func (l *Ledger) ReplaceAll(ctx context.Context, rows []core.Transaction) ([]core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	wasDegraded := l.loaded && l.degraded
	if err := l.ensure(ctx); err != nil {
		return nil, err
	}
	if wasDegraded {
		return nil, ErrStaleSnapshot
	}

	next, err := l.normalize(rows)
	if err != nil {
		return nil, err
	}
	l.rows = next
	l.dirty = true

	l.logger.InfoContext(ctx, "Ledger replaced", log.FieldPeriod, l.period, log.FieldRows, len(next))
	return l.copyRows(), nil
}

// Persist writes the full snapshot under the active period key. Rows are
// re-validated and totals recomputed first. A backend failure is returned
// wrapping sheets.ErrBackendUnavailable and the snapshot is kept as is.
// Nothing is written while the stored period cannot be read.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensure(ctx); err != nil {
		l.logger.WarnContext(ctx, "Period unreadable, not persisting",
			log.FieldPeriod, l.period,
			log.FieldRows, len(l.rows),
			log.FieldError, err)
		return err
	}
	return l.persist(ctx)
}

// Refresh discards the snapshot and reloads the active period.
func (l *Ledger) Refresh(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = false
	_ = l.ensure(ctx)
}

// ensure loads the active period when nothing is loaded yet or the month
// changed since the last load, and retries the read of a degraded period.
// The error wraps sheets.ErrBackendUnavailable while the period stays
// unreadable. Must hold mu.
func (l *Ledger) ensure(ctx context.Context) error {
	key := l.CurrentPeriod()
	if !l.loaded || key != l.period {
		if l.loaded {
			l.logger.InfoContext(ctx, "Period changed, reloading", "from", l.period, "to", key)
		}
		l.load(ctx, key)
		return l.unreadable()
	}
	return l.catchUp(ctx)
}

func (l *Ledger) load(ctx context.Context, key string) {
	l.period = key
	l.loaded = true
	l.dirty = false
	l.degraded = false
	l.loadErr = nil
	l.local = nil

	rows, err := l.read(ctx, key)
	if err != nil {
		l.logger.WarnContext(ctx, "Load failed, starting from fallback snapshot",
			log.FieldPeriod, key,
			log.FieldError, err)
		l.degraded = true
		l.loadErr = err
	}
	seen := make(map[string]struct{}, len(rows))
	l.rows = l.withPlaceholders(rows, seen)
	l.logger.DebugContext(ctx, "Period loaded", log.FieldPeriod, key, log.FieldRows, len(l.rows))
}

// catchUp re-reads a degraded period. On success the stored rows replace the
// fallback and rows appended meanwhile follow them, in entry order.
func (l *Ledger) catchUp(ctx context.Context) error {
	if !l.degraded {
		return nil
	}
	stored, err := l.read(ctx, l.period)
	if err != nil {
		l.loadErr = err
		return l.unreadable()
	}
	seen := make(map[string]struct{}, len(stored)+len(l.local))
	next := l.withPlaceholders(stored, seen)
	for _, t := range l.rows {
		if _, ok := l.local[t.ID]; ok {
			l.assignID(&t, seen)
			next = append(next, t)
		}
	}
	l.logger.InfoContext(ctx, "Period read after earlier failure",
		log.FieldPeriod, l.period,
		log.FieldRows, len(next),
		"kept_local", len(l.local))
	l.rows = next
	l.degraded = false
	l.loadErr = nil
	l.local = nil
	return nil
}

// read fetches a period and recomputes its totals. A row whose total cannot
// be computed makes the whole read fail, so the period is never rewritten
// without it.
func (l *Ledger) read(ctx context.Context, key string) ([]core.Transaction, error) {
	rows, err := l.store.ReadPeriod(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(rows))
	for i, t := range rows {
		t, err := t.Recalculate()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, core.AtRow(err, i))
		}
		out = append(out, t)
	}
	return out, nil
}

// withPlaceholders assigns ids to rows, or returns seed placeholders dated
// today when rows is empty and a seed is configured. Placeholders have zero
// quantity, so their zero total is already consistent.
func (l *Ledger) withPlaceholders(rows []core.Transaction, seen map[string]struct{}) []core.Transaction {
	if len(rows) == 0 && l.seed != nil {
		rows = l.seed.Placeholders(l.Today())
	}
	next := make([]core.Transaction, 0, len(rows))
	for _, t := range rows {
		l.assignID(&t, seen)
		next = append(next, t)
	}
	return next
}

func (l *Ledger) unreadable() error {
	if !l.degraded {
		return nil
	}
	if errors.Is(l.loadErr, ports.ErrBackendUnavailable) {
		return l.loadErr
	}
	return ports.Unavailable("read "+l.period, l.loadErr)
}

// add appends d to the snapshot. Must hold mu.
func (l *Ledger) add(ctx context.Context, d core.Draft) (core.Transaction, error) {
	t := d.Transaction()
	if err := t.ValidateIn(l.period); err != nil {
		return t, err
	}
	t, err := t.Recalculate()
	if err != nil {
		return t, err
	}
	t.ID = l.newID()
	next, err := l.normalize(append(l.copyRows(), t))
	if err != nil {
		return t, err
	}
	l.rows = next
	l.dirty = true
	if l.degraded {
		if l.local == nil {
			l.local = make(map[string]struct{})
		}
		l.local[t.ID] = struct{}{}
	}

	log.NewStructuredLogger(l.logger).LogTransactionRecorded(ctx, l.period, t.ItemName, t.Quantity, t.Total.Cents)
	return t, nil
}

// persist writes the snapshot. Must hold mu and the period must be readable.
func (l *Ledger) persist(ctx context.Context) error {
	rows, err := l.normalize(l.rows)
	if err != nil {
		return err
	}
	l.rows = rows

	if err := l.store.WritePeriod(ctx, l.period, l.copyRows()); err != nil {
		if !errors.Is(err, ports.ErrBackendUnavailable) && !core.IsValidation(err) {
			err = ports.Unavailable("persist "+l.period, err)
		}
		l.logger.WarnContext(ctx, "Persist failed, keeping local snapshot",
			log.FieldPeriod, l.period,
			log.FieldRows, len(rows),
			log.FieldError, err)
		return err
	}
	l.dirty = false
	l.lastSaved = l.now()
	l.logger.InfoContext(ctx, "Ledger persisted", log.FieldPeriod, l.period, log.FieldRows, len(rows))
	return nil
}

// normalize validates rows against the active period and returns copies with
// totals recomputed and ids assigned.
func (l *Ledger) normalize(rows []core.Transaction) ([]core.Transaction, error) {
	next := make([]core.Transaction, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, t := range rows {
		if err := t.ValidateIn(l.period); err != nil {
			return nil, core.AtRow(err, i)
		}
		t, err := t.Recalculate()
		if err != nil {
			return nil, core.AtRow(err, i)
		}
		l.assignID(&t, seen)
		next = append(next, t)
	}
	return next, nil
}

func (l *Ledger) assignID(t *core.Transaction, seen map[string]struct{}) {
	if _, dup := seen[t.ID]; t.ID == "" || dup {
		t.ID = l.newID()
	}
	seen[t.ID] = struct{}{}
}

func (l *Ledger) copyRows() []core.Transaction {
	out := make([]core.Transaction, len(l.rows))
	copy(out, l.rows)
	return out
}
