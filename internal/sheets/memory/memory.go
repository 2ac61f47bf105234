package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"shopledger/internal/core"
	ports "shopledger/internal/sheets"
)

// Store keeps period snapshots in process memory.
type Store struct {
	mu      sync.Mutex
	periods map[string][]core.Transaction
	writes  int
}

var (
	_ ports.SnapshotStore = (*Store)(nil)
	_ ports.PeriodLister  = (*Store)(nil)
)

func New() *Store {
	return &Store{periods: make(map[string][]core.Transaction)}
}

// NewFromFiles seeds one period per "<PeriodKey>.csv" file in base, e.g.
// base/Jan_2026.csv. Files that do not parse are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	matches, _ := filepath.Glob(filepath.Join(base, "*.csv"))
	for _, path := range matches {
		key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, err := core.ParsePeriodKey(key); err != nil {
			continue
		}
		rows, err := readCSV(path)
		if err != nil {
			continue
		}
		s.periods[key] = rows
	}
	return s
}

// ReadPeriod returns a copy of the stored rows.
func (s *Store) ReadPeriod(_ context.Context, periodKey string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.periods[periodKey]...), nil
}

// WritePeriod replaces the period with a copy of rows, totals recomputed.
func (s *Store) WritePeriod(_ context.Context, periodKey string, rows []core.Transaction) error {
	cp := make([]core.Transaction, 0, len(rows))
	for i, r := range rows {
		t, err := r.Recalculate()
		if err != nil {
			return core.AtRow(err, i)
		}
		t.ID = ""
		cp = append(cp, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[periodKey] = cp
	s.writes++
	return nil
}

// ListPeriods returns the stored period keys, newest first.
func (s *Store) ListPeriods(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.periods))
	for k := range s.periods {
		keys = append(keys, k)
	}
	return core.SortPeriodKeys(keys), nil
}

// Writes returns how many WritePeriod calls succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func readCSV(path string) ([]core.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ports.DecodeStrings(records)
}
