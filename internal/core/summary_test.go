package core

import "testing"

func row(d Date, name string, price, qty int64) Transaction {
	tx, _ := Transaction{Date: d, ItemName: name, UnitPrice: Money{Cents: price}, Quantity: qty}.Recalculate()
	return tx
}

func TestAggregates(t *testing.T) {
	d3, d4 := NewDate(2026, 1, 3), NewDate(2026, 1, 4)
	rows := []Transaction{
		row(d3, "เค้กนมสด", 5000, 47),
		row(d4, "บราวนี่", 2500, 4),
		row(d3, "ขนมปัง", 6000, 2),
	}
	if got := TotalForDate(rows, d3); got.Cents != 235000+12000 {
		t.Fatalf("TotalForDate: got %d", got.Cents)
	}
	if got := QuantityForDate(rows, d3); got != 49 {
		t.Fatalf("QuantityForDate: got %d", got)
	}
	if got := TotalForPeriod(rows); got.Cents != 235000+10000+12000 {
		t.Fatalf("TotalForPeriod: got %d", got.Cents)
	}
	if got := TotalForDate(rows, NewDate(2026, 1, 5)); got.Cents != 0 {
		t.Fatalf("expected zero for empty date, got %d", got.Cents)
	}
	if got := TotalForPeriod(nil); got.Cents != 0 {
		t.Fatalf("expected zero for empty snapshot")
	}
}

func TestGroupedByDateDescendingAndSumsMatch(t *testing.T) {
	rows := []Transaction{
		row(NewDate(2026, 1, 2), "a", 100, 1),
		row(NewDate(2026, 1, 5), "b", 200, 3),
		row(NewDate(2026, 1, 2), "c", 300, 2),
		row(NewDate(2026, 1, 9), "d", 50, 10),
	}
	groups := GroupedByDate(rows)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	var sum Money
	for i, g := range groups {
		if i > 0 && !groups[i-1].Date.After(g.Date.Time) {
			t.Fatalf("dates not strictly descending at %d", i)
		}
		sum = sum.Add(g.Total)
	}
	if sum != TotalForPeriod(rows) {
		t.Fatalf("group sum %d != period total %d", sum.Cents, TotalForPeriod(rows).Cents)
	}
	if groups[2].Quantity != 3 || groups[2].Total.Cents != 700 {
		t.Fatalf("unexpected group for 2026-01-02: %+v", groups[2])
	}
}

func TestGroupedByDateZeroQuantityDate(t *testing.T) {
	d := NewDate(2026, 1, 7)
	rows := []Transaction{row(d, "ขนมปัง", 6000, 0), row(d, "บราวนี่", 2500, 0)}
	if got := TotalForPeriod(rows); got.Cents != 0 {
		t.Fatalf("expected zero period total, got %d", got.Cents)
	}
	groups := GroupedByDate(rows)
	if len(groups) != 1 || !groups[0].Date.SameDay(d) || groups[0].Quantity != 0 || !groups[0].Total.IsZero() {
		t.Fatalf("expected a single zero entry, got %+v", groups)
	}
	if len(GroupedByDate(nil)) != 0 {
		t.Fatalf("expected no entries for empty snapshot")
	}
}

func TestSummarize(t *testing.T) {
	today := NewDate(2026, 1, 3)
	rows := []Transaction{row(today, "a", 5000, 2), row(NewDate(2026, 1, 1), "b", 1000, 1)}
	s := Summarize("Jan_2026", rows, today)
	if s.TodayTotal.Cents != 10000 || s.TodayQuantity != 2 || s.PeriodTotal.Cents != 11000 || s.Count != 2 || len(s.Days) != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestPeriodTotalNeverWrapsNegative(t *testing.T) {
	d := NewDate(2026, 1, 3)
	huge := Transaction{Date: d, ItemName: "x", Total: Money{Cents: 1<<62 + 1}}
	rows := []Transaction{huge, huge}
	if got := TotalForPeriod(rows); got.Cents < 0 {
		t.Fatalf("period total wrapped to %d", got.Cents)
	}
	if got := TotalForDate(rows, d); got.Cents < 0 {
		t.Fatalf("day total wrapped to %d", got.Cents)
	}
	if g := GroupedByDate(rows); len(g) != 1 || g[0].Total.Cents < 0 {
		t.Fatalf("grouped total wrapped: %+v", g)
	}
}
