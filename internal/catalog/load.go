package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"shopledger/internal/core"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// Load reads a catalog file, choosing the parser by extension:
// .csv and .tsv (ledger-shaped rows: date, item, price, quantity, total),
// .xlsx (first worksheet, same shape) and .yaml/.yml.
func Load(path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadDelimited(path, ',')
	case ".tsv":
		return loadDelimited(path, '\t')
	case ".xlsx":
		return loadXLSX(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadDelimited(path string, comma rune) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadDelimited(f, comma)
}

// ReadDelimited parses ledger-shaped delimited text. Only the item and price
// columns are used; date, quantity and total are placeholders in seed data.
func ReadDelimited(r io.Reader, comma rune) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return fromRows(records)
}

func loadXLSX(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("catalog workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read catalog rows: %w", err)
	}
	return fromRows(rows)
}

// fromRows maps (date, item, price, ...) rows to entries. A row whose price
// does not parse is treated as a header when it is the first row and as an
// error otherwise.
func fromRows(rows [][]string) (*Catalog, error) {
	entries := make([]core.MenuEntry, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 || strings.TrimSpace(row[1]) == "" {
			continue
		}
		price, err := core.ParseAmount(row[2])
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("catalog row %d: price %q: %w", i+1, row[2], err)
		}
		entries = append(entries, core.MenuEntry{Name: row[1], Price: price})
	}
	return New(entries), nil
}

type yamlCatalog struct {
	Items []struct {
		Name  string `yaml:"name"`
		Price string `yaml:"price"`
	} `yaml:"items"`
}

func loadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses a catalog document of the form:
//
//	items:
//	  - name: เค้กนมสด
//	    price: 50
func ParseYAML(data []byte) (*Catalog, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	entries := make([]core.MenuEntry, 0, len(doc.Items))
	for _, it := range doc.Items {
		price, err := core.ParseAmount(it.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog item %q: %w", it.Name, err)
		}
		entries = append(entries, core.MenuEntry{Name: it.Name, Price: price})
	}
	return New(entries), nil
}
