package core

import "sort"

// DailyTotal is the aggregate of one calendar day.
type DailyTotal struct {
	Date     Date
	Quantity int64
	Total    Money
}

// DashboardSummary is what the dashboard renders for a period.
type DashboardSummary struct {
	Period        string
	Today         Date
	TodayTotal    Money
	TodayQuantity int64
	PeriodTotal   Money
	Count         int
	Days          []DailyTotal
}

// TotalForDate sums Total over the rows dated on date.
func TotalForDate(rows []Transaction, date Date) Money {
	var sum Money
	for _, t := range rows {
		if t.Date.SameDay(date) {
			sum = sum.Add(t.Total)
		}
	}
	return sum
}

// TotalForPeriod sums Total over the whole snapshot.
func TotalForPeriod(rows []Transaction) Money {
	var sum Money
	for _, t := range rows {
		sum = sum.Add(t.Total)
	}
	return sum
}

// QuantityForDate sums Quantity over the rows dated on date.
func QuantityForDate(rows []Transaction, date Date) int64 {
	var n int64
	for _, t := range rows {
		if t.Date.SameDay(date) {
			n += t.Quantity
		}
	}
	return n
}

// GroupedByDate returns one entry per date that has at least one transaction,
// newest first. A date whose rows all have zero quantity yields a zero entry.
func GroupedByDate(rows []Transaction) []DailyTotal {
	byDay := make(map[string]*DailyTotal)
	for _, t := range rows {
		k := t.Date.String()
		dt, ok := byDay[k]
		if !ok {
			dt = &DailyTotal{Date: DateOf(t.Date.Time)}
			byDay[k] = dt
		}
		dt.Quantity += t.Quantity
		dt.Total = dt.Total.Add(t.Total)
	}
	out := make([]DailyTotal, 0, len(byDay))
	for _, dt := range byDay {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

// Summarize bundles the dashboard figures for today within a period snapshot.
func Summarize(period string, rows []Transaction, today Date) DashboardSummary {
	return DashboardSummary{
		Period:        period,
		Today:         today,
		TodayTotal:    TotalForDate(rows, today),
		TodayQuantity: QuantityForDate(rows, today),
		PeriodTotal:   TotalForPeriod(rows),
		Count:         len(rows),
		Days:          GroupedByDate(rows),
	}
}
