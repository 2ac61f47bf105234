package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// PeriodLayout is the time layout of a period key, e.g. "Jan_2026".
const PeriodLayout = "Jan_2006"

// DateLayout is the ISO layout used for dates on the wire and in storage.
const DateLayout = "2006-01-02"

const maxItemNameLength = 200

// MaxLineTotal caps one row's total at a billion baht (in satang), which keeps
// any realistic period sum far inside int64.
const MaxLineTotal int64 = 100_000_000_000

type (
	// Date is a calendar date without time of day, kept at UTC midnight.
	Date struct {
		time.Time
	}

	// Money is an amount in satang (1/100 baht).
	Money struct {
		Cents int64
	}

	// Transaction is one sale event. Total is derived from UnitPrice and
	// Quantity and is recomputed by Recalculate; it is never authoritative.
	Transaction struct {
		ID        string // session-local row id, never persisted
		Date      Date
		ItemName  string
		UnitPrice Money
		Quantity  int64
		Total     Money
	}

	// Draft is the user input for a new transaction.
	Draft struct {
		Date      Date
		ItemName  string
		UnitPrice Money
		Quantity  int64
	}

	// MenuEntry is a product with its default unit price.
	MenuEntry struct {
		Name  string
		Price Money
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrEmptyItem         = errors.New("empty item name")
	ErrItemTooLong       = errors.New("item name too long (max 200 characters)")
	ErrNegativePrice     = errors.New("negative unit price")
	ErrNegativeQuantity  = errors.New("negative quantity")
	ErrAmountTooLarge    = errors.New("amount too large")
	ErrDateOutsidePeriod = errors.New("date outside active period")
	ErrInvalidPeriodKey  = errors.New("invalid period key")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as 2006-01-02.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(o Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := o.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Period returns the period key owning the date.
func (d Date) Period() string {
	return PeriodKey(d.Time)
}

// PeriodKey maps any instant to the key of its calendar month, e.g. "Jan_2026".
// The key carries the year so the same month in different years never collides.
func PeriodKey(t time.Time) string {
	return t.Format(PeriodLayout)
}

// ParsePeriodKey returns the first day of the month named by key.
func ParsePeriodKey(key string) (Date, error) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(key))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}
	return DateOf(t), nil
}

// Times multiplies the amount by a quantity, failing when the product would
// exceed MaxLineTotal.
func (m Money) Times(q int64) (Money, error) {
	if m.Cents < 0 || q < 0 {
		return Money{}, ErrInvalidAmount
	}
	if q != 0 && m.Cents > MaxLineTotal/q {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: m.Cents * q}, nil
}

// Add sums two amounts. The result saturates at the int64 bounds instead of
// wrapping around.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

func (m Money) IsZero() bool { return m.Cents == 0 }

// Transaction turns the draft into a transaction. Total is left to Recalculate.
func (d Draft) Transaction() Transaction {
	return Transaction{
		Date:      d.Date,
		ItemName:  d.ItemName,
		UnitPrice: d.UnitPrice,
		Quantity:  d.Quantity,
	}
}

// Validate checks the field rules of a single transaction. It does not look
// at Total, which is derived.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return &ValidationError{Row: -1, Field: "date", Err: err}
	}
	name := strings.TrimSpace(t.ItemName)
	if name == "" {
		return &ValidationError{Row: -1, Field: "item_name", Err: ErrEmptyItem}
	}
	if len([]rune(name)) > maxItemNameLength {
		return &ValidationError{Row: -1, Field: "item_name", Err: ErrItemTooLong}
	}
	if t.UnitPrice.Cents < 0 {
		return &ValidationError{Row: -1, Field: "unit_price", Err: ErrNegativePrice}
	}
	if t.Quantity < 0 {
		return &ValidationError{Row: -1, Field: "quantity", Err: ErrNegativeQuantity}
	}
	if _, err := t.UnitPrice.Times(t.Quantity); err != nil {
		return &ValidationError{Row: -1, Field: "total", Err: err}
	}
	return nil
}

// ValidateIn validates the transaction and checks it belongs to period.
func (t Transaction) ValidateIn(period string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Date.Period() != period {
		return &ValidationError{Row: -1, Field: "date", Err: fmt.Errorf("%w: %s not in %s", ErrDateOutsidePeriod, t.Date, period)}
	}
	return nil
}

// Recalculate returns a copy with the item name trimmed and Total set to
// UnitPrice * Quantity.
func (t Transaction) Recalculate() (Transaction, error) {
	total, err := t.UnitPrice.Times(t.Quantity)
	if err != nil {
		return t, &ValidationError{Row: -1, Field: "total", Err: err}
	}
	t.ItemName = strings.TrimSpace(t.ItemName)
	t.Total = total
	return t, nil
}

// Consistent reports whether Total matches UnitPrice * Quantity.
func (t Transaction) Consistent() bool {
	total, err := t.UnitPrice.Times(t.Quantity)
	return err == nil && total == t.Total
}

// SortPeriodKeys orders period keys chronologically, newest first. Keys that
// do not parse sort last.
func SortPeriodKeys(keys []string) []string {
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := ParsePeriodKey(keys[i])
		b, errB := ParsePeriodKey(keys[j])
		if errA != nil || errB != nil {
			return errA == nil
		}
		return a.After(b.Time)
	})
	return keys
}
