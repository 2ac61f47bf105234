// Package export renders a period snapshot as an XLSX workbook and reads one
// back.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"shopledger/internal/core"
	"shopledger/internal/sheets"
)

// DailySheet is the name of the per-day summary worksheet.
const DailySheet = "รายวัน"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// moneyFormat is excelize built-in number format 4, "#,##0.00".
const moneyFormat = 4

var ErrNoLedgerSheet = errors.New("workbook has no ledger sheet")

// Workbook builds a workbook with the period rows on a sheet named after the
// period and a per-day breakdown on DailySheet.
func Workbook(period string, rows []core.Transaction) (*excelize.File, error) {
	encoded, err := sheets.EncodeRows(rows)
	if err != nil {
		return nil, err
	}
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), period); err != nil {
		return nil, fmt.Errorf("name ledger sheet: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}

	for i, row := range encoded {
		if err := setRow(f, period, i+1, row); err != nil {
			return nil, err
		}
	}
	last := len(encoded)
	if last > 1 {
		if err := f.SetCellStyle(period, "C2", fmt.Sprintf("E%d", last), money); err != nil {
			return nil, fmt.Errorf("style ledger sheet: %w", err)
		}
	}
	totalRow := []any{"", "รวมทั้งเดือน", "", "", core.TotalForPeriod(rows).Baht()}
	if err := setRow(f, period, last+2, totalRow); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(period, fmt.Sprintf("E%d", last+2), fmt.Sprintf("E%d", last+2), money); err != nil {
		return nil, fmt.Errorf("style month total: %w", err)
	}
	_ = f.SetColWidth(period, "A", "A", 12)
	_ = f.SetColWidth(period, "B", "B", 28)
	_ = f.SetColWidth(period, "C", "E", 12)

	if _, err := f.NewSheet(DailySheet); err != nil {
		return nil, fmt.Errorf("add daily sheet: %w", err)
	}
	if err := setRow(f, DailySheet, 1, []any{"Date", "จำนวน/ชิ้น", "รวม/บาท"}); err != nil {
		return nil, err
	}
	days := core.GroupedByDate(rows)
	for i, d := range days {
		if err := setRow(f, DailySheet, i+2, []any{d.Date.String(), d.Quantity, d.Total.Baht()}); err != nil {
			return nil, err
		}
	}
	if len(days) > 0 {
		if err := f.SetCellStyle(DailySheet, "C2", fmt.Sprintf("C%d", len(days)+1), money); err != nil {
			return nil, fmt.Errorf("style daily sheet: %w", err)
		}
	}
	_ = f.SetColWidth(DailySheet, "A", "C", 14)

	f.SetActiveSheet(0)
	return f, nil
}

// WriteXLSX streams the workbook for period to w.
func WriteXLSX(w io.Writer, period string, rows []core.Transaction) error {
	f, err := Workbook(period, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX decodes the ledger sheet of a workbook. The sheet is the one named
// like a period key, else the first sheet. The month total footer is ignored.
func ReadXLSX(r io.Reader) (string, []core.Transaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return "", nil, ErrNoLedgerSheet
	}
	sheet := names[0]
	for _, name := range names {
		if _, err := core.ParsePeriodKey(name); err == nil {
			sheet = name
			break
		}
	}

	values, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	rows, err := sheets.DecodeStrings(dropFooter(values))
	if err != nil {
		return "", nil, err
	}
	return sheet, rows, nil
}

// dropFooter removes rows whose date cell is empty, which is how the month
// total line is written.
func dropFooter(values [][]string) [][]string {
	out := values[:0:0]
	for i, row := range values {
		if i > 0 && (len(row) == 0 || row[0] == "") {
			continue
		}
		out = append(out, row)
	}
	return out
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
