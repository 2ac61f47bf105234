package sheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
)

// Header is the column row of every period table.
var Header = []string{"Date", "รายการ", "ราคา", "จำนวน/ชิ้น", "รวม/บาท"}

// ErrMalformedRow is returned when a stored row cannot be decoded.
var ErrMalformedRow = errors.New("malformed row")

// Spreadsheet serial day 0.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	core.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04:05",
}

// EncodeRows renders rows as typed cells (numbers stay numbers), header first.
// Total is recomputed from UnitPrice and Quantity; a row whose total cannot
// be computed fails the whole encoding with a row-addressed ValidationError.
func EncodeRows(rows []core.Transaction) ([][]any, error) {
	out := make([][]any, 0, len(rows)+1)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	out = append(out, header)
	for i, t := range rows {
		t, err := t.Recalculate()
		if err != nil {
			return nil, core.AtRow(err, i)
		}
		out = append(out, []any{
			t.Date.String(),
			t.ItemName,
			t.UnitPrice.Baht(),
			t.Quantity,
			t.Total.Baht(),
		})
	}
	return out, nil
}

// DecodeStrings decodes text cells; see DecodeRows.
func DecodeStrings(values [][]string) ([]core.Transaction, error) {
	cells := make([][]any, len(values))
	for i, row := range values {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = v
		}
	}
	return DecodeRows(cells)
}

// DecodeRows decodes a period table. A leading header row and fully blank
// rows are skipped. The stored total column is ignored and recomputed;
// blank price or quantity cells read as zero. Business rules are not
// checked here.
func DecodeRows(values [][]any) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(values))
	for i, row := range values {
		if blankRow(row) {
			continue
		}
		date, err := parseDateCell(cell(row, 0))
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%w: row %d: date %v", ErrMalformedRow, i+1, cell(row, 0))
		}
		price, err := parseDecimalCell(cell(row, 2))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: price %v", ErrMalformedRow, i+1, cell(row, 2))
		}
		unit, err := core.FromDecimal(price)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: price: %v", ErrMalformedRow, i+1, err)
		}
		qd, err := parseDecimalCell(cell(row, 3))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: quantity %v", ErrMalformedRow, i+1, cell(row, 3))
		}
		qty, err := core.QuantityFromDecimal(qd)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: quantity: %v", ErrMalformedRow, i+1, err)
		}
		t, err := core.Transaction{
			Date:      date,
			ItemName:  cellString(cell(row, 1)),
			UnitPrice: unit,
			Quantity:  qty,
		}.Recalculate()
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, i+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func cell(row []any, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func blankRow(row []any) bool {
	for _, v := range row {
		if cellString(v) != "" {
			return false
		}
	}
	return true
}

func parseDateCell(v any) (core.Date, error) {
	switch x := v.(type) {
	case float64:
		return serialDate(x)
	case int:
		return serialDate(float64(x))
	case int64:
		return serialDate(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return core.Date{}, core.ErrInvalidDate
		}
		return serialDate(f)
	}
	s := cellString(v)
	if s == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return serialDate(f)
	}
	return core.Date{}, core.ErrInvalidDate
}

func serialDate(f float64) (core.Date, error) {
	if f < 1 || f > 2958465 { // 9999-12-31
		return core.Date{}, core.ErrInvalidDate
	}
	return core.DateOf(serialEpoch.AddDate(0, 0, int(math.Floor(f)))), nil
}

func parseDecimalCell(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case json.Number:
		return decimal.NewFromString(x.String())
	}
	s := strings.ReplaceAll(cellString(v), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
