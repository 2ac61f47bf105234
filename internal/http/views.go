package http

import (
	"context"
	"time"

	"shopledger/internal/core"
	"shopledger/internal/ledger"
	"shopledger/internal/log"
	"shopledger/internal/sheets"
)

// priceView is the price input, pre-filled for known menu items.
type priceView struct {
	Value string
	Known bool
}

type dayView struct {
	Date     string
	Quantity int64
	Total    string
}

// summaryView is the dashboard partial.
type summaryView struct {
	Period        string
	Today         string
	TodayTotal    string
	PeriodTotal   string
	TodayQuantity int64
	Count         int
	Days          []dayView
	Banner        bannerView
}

// bannerView reports a degraded or unsynced ledger.
type bannerView struct {
	Degraded  bool
	LoadError string
	Dirty     bool
	LastSaved string
}

type rowView struct {
	Index    int
	ID       string
	Date     string
	Item     string
	Price    string
	Quantity int64
	Total    string
}

// gridView is the admin edit grid.
type gridView struct {
	Period  string
	Today   string
	Rows    []rowView
	Total   string
	Items   []string
	Banner  bannerView
	Periods []string
}

func newBanner(st ledger.State, loc *time.Location) bannerView {
	b := bannerView{Degraded: st.Degraded, Dirty: st.Dirty}
	if st.LoadErr != nil {
		b.LoadError = st.LoadErr.Error()
	}
	if !st.LastSaved.IsZero() {
		b.LastSaved = st.LastSaved.In(loc).Format("15:04:05")
	}
	return b
}

func (s *Server) buildSummary(ctx context.Context, l *ledger.Ledger) summaryView {
	rows := l.Snapshot(ctx)
	st := l.State()
	today := l.Today()
	sum := core.Summarize(st.Period, rows, today)

	v := summaryView{
		Period:        sum.Period,
		Today:         today.String(),
		TodayTotal:    formatBaht(sum.TodayTotal),
		PeriodTotal:   formatBaht(sum.PeriodTotal),
		TodayQuantity: sum.TodayQuantity,
		Count:         sum.Count,
		Banner:        newBanner(st, s.opts.Location),
	}
	for _, d := range sum.Days {
		v.Days = append(v.Days, dayView{
			Date:     d.Date.String(),
			Quantity: d.Quantity,
			Total:    formatBaht(d.Total),
		})
	}
	return v
}

func (s *Server) buildGrid(ctx context.Context, l *ledger.Ledger) gridView {
	rows := l.Snapshot(ctx)
	st := l.State()
	v := gridView{
		Period: st.Period,
		Today:  l.Today().String(),
		Total:  formatBaht(core.TotalForPeriod(rows)),
		Items:  s.catalog.Names(),
		Banner: newBanner(st, s.opts.Location),
	}
	for i, t := range rows {
		v.Rows = append(v.Rows, rowView{
			Index:    i + 1,
			ID:       t.ID,
			Date:     t.Date.String(),
			Item:     t.ItemName,
			Price:    t.UnitPrice.Plain(),
			Quantity: t.Quantity,
			Total:    t.Total.String(),
		})
	}
	if lister, ok := s.store.(sheets.PeriodLister); ok {
		periods, err := lister.ListPeriods(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "List periods failed", log.FieldError, err)
		}
		v.Periods = core.SortPeriodKeys(periods)
	}
	return v
}
