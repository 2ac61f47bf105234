package core

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	bkk := time.FixedZone("ICT", 7*3600)
	// 2026-01-31 20:00 UTC is already Feb 1st in Bangkok.
	instant := time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC).In(bkk)
	if got := DateOf(instant).String(); got != "2026-02-01" {
		t.Fatalf("expected 2026-02-01, got %s", got)
	}
}

func TestPeriodKey(t *testing.T) {
	cases := []struct {
		d    Date
		want string
	}{
		{NewDate(2026, 1, 3), "Jan_2026"},
		{NewDate(2026, 1, 31), "Jan_2026"},
		{NewDate(2025, 1, 3), "Jan_2025"},
		{NewDate(2026, 12, 1), "Dec_2026"},
	}
	for _, tc := range cases {
		if got := tc.d.Period(); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.d, tc.want, got)
		}
	}
	if NewDate(2025, 1, 1).Period() == NewDate(2026, 1, 1).Period() {
		t.Fatalf("same month in different years must not collide")
	}
}

func TestParsePeriodKey(t *testing.T) {
	d, err := ParsePeriodKey("Feb_2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.SameDay(NewDate(2026, 2, 1)) {
		t.Fatalf("expected 2026-02-01, got %s", d)
	}
	if _, err := ParsePeriodKey("2026-02"); !errors.Is(err, ErrInvalidPeriodKey) {
		t.Fatalf("expected ErrInvalidPeriodKey, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:      NewDate(2026, 1, 3),
		ItemName:  "เค้กนมสด",
		UnitPrice: Money{Cents: 5000},
		Quantity:  47,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zeroQty := good
	zeroQty.Quantity = 0
	if err := zeroQty.Validate(); err != nil {
		t.Fatalf("zero quantity must be valid, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{ItemName: "a", UnitPrice: Money{Cents: 1}, Quantity: 1}, ErrInvalidDate},
		{Transaction{Date: NewDate(2026, 1, 1), ItemName: "  ", Quantity: 1}, ErrEmptyItem},
		{Transaction{Date: NewDate(2026, 1, 1), ItemName: strings.Repeat("x", 201), Quantity: 1}, ErrItemTooLong},
		{Transaction{Date: NewDate(2026, 1, 1), ItemName: "a", UnitPrice: Money{Cents: -1}, Quantity: 1}, ErrNegativePrice},
		{Transaction{Date: NewDate(2026, 1, 1), ItemName: "a", UnitPrice: Money{Cents: 1}, Quantity: -1}, ErrNegativeQuantity},
		{Transaction{Date: NewDate(2026, 1, 1), ItemName: "a", UnitPrice: Money{Cents: math.MaxInt64}, Quantity: 2}, ErrAmountTooLarge},
		{Transaction{Date: NewDate(2026, 1, 1), ItemName: "a", UnitPrice: Money{Cents: MaxLineTotal/2 + 1}, Quantity: 2}, ErrAmountTooLarge},
	}
	for i, tc := range bads {
		err := tc.tx.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected ValidationError, got %T", i, err)
		}
	}
}

func TestLineTotalCap(t *testing.T) {
	at := Transaction{Date: NewDate(2026, 1, 1), ItemName: "a", UnitPrice: Money{Cents: MaxLineTotal / 4}, Quantity: 4}
	if err := at.Validate(); err != nil {
		t.Fatalf("total at the cap must be valid, got %v", err)
	}
	over := at
	over.UnitPrice.Cents++
	if _, err := over.Recalculate(); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestMoneyAddSaturates(t *testing.T) {
	big := Money{Cents: math.MaxInt64 - 10}
	if got := big.Add(Money{Cents: 100}); got.Cents != math.MaxInt64 {
		t.Fatalf("expected saturation at MaxInt64, got %d", got.Cents)
	}
	if got := (Money{Cents: math.MinInt64 + 5}).Add(Money{Cents: -6}); got.Cents != math.MinInt64 {
		t.Fatalf("expected saturation at MinInt64, got %d", got.Cents)
	}
	if got := (Money{Cents: 150}).Add(Money{Cents: -50}); got.Cents != 100 {
		t.Fatalf("expected 100, got %d", got.Cents)
	}
}

func TestValidateInRejectsOtherMonth(t *testing.T) {
	tx := Transaction{Date: NewDate(2026, 2, 1), ItemName: "a", Quantity: 1}
	err := tx.ValidateIn("Jan_2026")
	if !errors.Is(err, ErrDateOutsidePeriod) {
		t.Fatalf("expected ErrDateOutsidePeriod, got %v", err)
	}
	if err := tx.ValidateIn("Feb_2026"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestRecalculateIgnoresSuppliedTotal(t *testing.T) {
	tx := Transaction{
		Date:      NewDate(2026, 1, 3),
		ItemName:  " เค้กนมสด ",
		UnitPrice: Money{Cents: 5000},
		Quantity:  47,
		Total:     Money{Cents: 1},
	}
	if tx.Consistent() {
		t.Fatalf("stale total reported consistent")
	}
	got, err := tx.Recalculate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total.Cents != 235000 {
		t.Fatalf("expected 235000, got %d", got.Total.Cents)
	}
	if got.ItemName != "เค้กนมสด" {
		t.Fatalf("expected trimmed name, got %q", got.ItemName)
	}
	if !got.Consistent() {
		t.Fatalf("recalculated row not consistent")
	}
}

func TestValidationErrorAtRow(t *testing.T) {
	err := AtRow(Transaction{Date: NewDate(2026, 1, 1)}.Validate(), 2)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Row != 2 || !strings.HasPrefix(ve.Error(), "row 3:") {
		t.Fatalf("unexpected row addressing: %v", ve)
	}
	plain := errors.New("boom")
	if AtRow(plain, 1) != plain {
		t.Fatalf("non-validation errors must pass through")
	}
}
