package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"

	"shopledger/internal/core"
	ports "shopledger/internal/sheets"

	_ "modernc.org/sqlite"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// insertBatch bounds the rows per INSERT. Each row binds 7 variables and
// SQLite caps a statement at 32766.
const insertBatch = 500

// PeriodState tracks the local version of a period and the last version
// mirrored to the remote spreadsheet.
type PeriodState struct {
	PeriodKey     string
	Version       int64
	SyncedVersion int64
	UpdatedAt     time.Time
}

// Pending reports whether the remote copy is behind.
func (p PeriodState) Pending() bool { return p.SyncedVersion < p.Version }

// SQLiteRepository is the local snapshot store. Every write bumps the period
// version so a background worker can mirror it.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.SnapshotStore = (*SQLiteRepository)(nil)
	_ ports.PeriodLister  = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReadPeriod implements sheets.SnapshotReader.
func (r *SQLiteRepository) ReadPeriod(ctx context.Context, periodKey string) ([]core.Transaction, error) {
	query, args, err := psql.
		Select("date", "item_name", "unit_price_cents", "quantity").
		From("period_rows").
		Where(squirrel.Eq{"period_key": periodKey}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build read query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ports.Unavailable("read period "+periodKey, err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			date string
			t    core.Transaction
		)
		if err := rows.Scan(&date, &t.ItemName, &t.UnitPrice.Cents, &t.Quantity); err != nil {
			return nil, ports.Unavailable("scan period "+periodKey, err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("%w: stored date %q", ports.ErrMalformedRow, date)
		}
		if t, err = t.Recalculate(); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, ports.Unavailable("read period "+periodKey, err)
	}
	return out, nil
}

// WritePeriod implements sheets.SnapshotWriter.
func (r *SQLiteRepository) WritePeriod(ctx context.Context, periodKey string, rows []core.Transaction) error {
	_, err := r.SavePeriod(ctx, periodKey, rows)
	return err
}

// SavePeriod replaces the period rows in one transaction and returns the new
// period version.
func (r *SQLiteRepository) SavePeriod(ctx context.Context, periodKey string, rows []core.Transaction) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ports.Unavailable("begin write", err)
	}
	defer tx.Rollback()

	now := r.now().UTC().Format(time.RFC3339)
	upsert, args, err := psql.
		Insert("periods").
		Columns("period_key", "version", "synced_version", "updated_at").
		Values(periodKey, 1, 0, now).
		Suffix("ON CONFLICT (period_key) DO UPDATE SET version = version + 1, updated_at = excluded.updated_at RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert: %w", err)
	}
	var version int64
	if err := tx.QueryRowContext(ctx, upsert, args...).Scan(&version); err != nil {
		return 0, ports.Unavailable("bump version "+periodKey, err)
	}

	del, args, err := psql.Delete("period_rows").Where(squirrel.Eq{"period_key": periodKey}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, del, args...); err != nil {
		return 0, ports.Unavailable("clear period "+periodKey, err)
	}

	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		ins := psql.Insert("period_rows").
			Columns("period_key", "position", "date", "item_name", "unit_price_cents", "quantity", "total_cents")
		for i := start; i < end; i++ {
			t, err := rows[i].Recalculate()
			if err != nil {
				return 0, core.AtRow(err, i)
			}
			ins = ins.Values(periodKey, i, t.Date.String(), t.ItemName, t.UnitPrice.Cents, t.Quantity, t.Total.Cents)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, ports.Unavailable("insert rows "+periodKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, ports.Unavailable("commit "+periodKey, err)
	}

	slog.InfoContext(ctx, "Period saved to SQLite",
		"period", periodKey,
		"rows", len(rows),
		"version", version)
	return version, nil
}

// ListPeriods implements sheets.PeriodLister.
func (r *SQLiteRepository) ListPeriods(ctx context.Context) ([]string, error) {
	states, err := r.states(ctx, nil, 0)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(states))
	for _, s := range states {
		keys = append(keys, s.PeriodKey)
	}
	return core.SortPeriodKeys(keys), nil
}

// PeriodState returns the version bookkeeping of one period.
func (r *SQLiteRepository) PeriodState(ctx context.Context, periodKey string) (PeriodState, error) {
	states, err := r.states(ctx, squirrel.Eq{"period_key": periodKey}, 1)
	if err != nil {
		return PeriodState{}, err
	}
	if len(states) == 0 {
		return PeriodState{PeriodKey: periodKey}, nil
	}
	return states[0], nil
}

// PendingPeriods returns periods whose remote copy is behind, oldest change first.
func (r *SQLiteRepository) PendingPeriods(ctx context.Context, limit int) ([]PeriodState, error) {
	return r.states(ctx, squirrel.Expr("synced_version < version"), limit)
}

// MarkSynced records that version of periodKey reached the spreadsheet. An
// older version never overwrites a newer mark.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, periodKey string, version int64) error {
	query, args, err := psql.
		Update("periods").
		Set("synced_version", version).
		Set("synced_at", r.now().UTC().Format(time.RFC3339)).
		Where(squirrel.Eq{"period_key": periodKey}).
		Where(squirrel.Lt{"synced_version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark synced: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark period synced: %w", err)
	}
	slog.InfoContext(ctx, "Period marked as synced", "period", periodKey, "version", version)
	return nil
}

func (r *SQLiteRepository) states(ctx context.Context, where squirrel.Sqlizer, limit int) ([]PeriodState, error) {
	q := psql.
		Select("period_key", "version", "synced_version", "updated_at").
		From("periods")
	if where != nil {
		q = q.Where(where).OrderBy("updated_at ASC")
	} else {
		q = q.OrderBy("updated_at DESC")
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build state query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ports.Unavailable("query periods", err)
	}
	defer rows.Close()

	var out []PeriodState
	for rows.Next() {
		var (
			s       PeriodState
			updated string
		)
		if err := rows.Scan(&s.PeriodKey, &s.Version, &s.SyncedVersion, &updated); err != nil {
			return nil, ports.Unavailable("scan periods", err)
		}
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			s.UpdatedAt = t
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, ports.Unavailable("query periods", err)
	}
	return out, nil
}
