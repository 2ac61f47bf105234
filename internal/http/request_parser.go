package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"shopledger/internal/catalog"
	"shopledger/internal/core"
)

// maxBodyBytes bounds form and JSON bodies. The grid posts one set of fields
// per row, a month of sales stays far below this.
const maxBodyBytes = 4 << 20

// errMalformedGrid is returned when the grid's column arrays disagree in length.
var errMalformedGrid = errors.New("malformed grid submission")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("รูปแบบคำขอไม่ถูกต้อง")
	}
	return nil
}

// parseDraft reads the entry form. A blank date means today, a blank price
// falls back to the catalog price of the item and a blank quantity means one
// piece. The form records at least one piece per sale.
func parseDraft(get func(string) string, today core.Date, cat *catalog.Catalog) (core.Draft, error) {
	d := core.Draft{
		Date:     today,
		ItemName: get("item"),
		Quantity: 1,
	}

	if v := get("date"); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			return core.Draft{}, &core.ValidationError{Row: -1, Field: "date", Err: err}
		}
		d.Date = date
	}

	if v := get("price"); v != "" {
		price, err := core.ParseAmount(v)
		if err != nil {
			return core.Draft{}, &core.ValidationError{Row: -1, Field: "unit_price", Err: err}
		}
		d.UnitPrice = price
	} else if cat != nil {
		d.UnitPrice = cat.Price(d.ItemName)
	}

	if v := get("quantity"); v != "" {
		q, err := core.ParseQuantity(v)
		if err != nil {
			return core.Draft{}, &core.ValidationError{Row: -1, Field: "quantity", Err: err}
		}
		d.Quantity = q
	}
	if d.Quantity < 1 {
		return core.Draft{}, &core.ValidationError{Row: -1, Field: "quantity", Err: errQuantityTooSmall}
	}
	return d, nil
}

// parseGridRows reads the admin grid. Each existing row posts id, date, item,
// price and qty at the same index; ids listed under delete are dropped.
// Blank price or quantity cells read as zero. A filled new_* row is appended;
// its blank date means today and its blank price falls back to the catalog.
//
// positions maps each returned row to its index in the submitted grid so
// that later validation errors can name the row the user sees.
func parseGridRows(form url.Values, today core.Date, cat *catalog.Catalog) (rows []core.Transaction, positions []int, err error) {
	ids := form["id"]
	dates, items, prices, qtys := form["date"], form["item"], form["price"], form["qty"]
	n := len(ids)
	if len(dates) != n || len(items) != n || len(prices) != n || len(qtys) != n {
		return nil, nil, errMalformedGrid
	}

	deleted := make(map[string]struct{}, len(form["delete"]))
	for _, id := range form["delete"] {
		deleted[id] = struct{}{}
	}

	rows = make([]core.Transaction, 0, n+1)
	positions = make([]int, 0, n+1)
	for i := 0; i < n; i++ {
		if _, ok := deleted[ids[i]]; ok {
			continue
		}
		t, err := parseGridRow(i, ids[i], dates[i], items[i], prices[i], qtys[i])
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, t)
		positions = append(positions, i)
	}

	newItem := sanitizeInput(form.Get("new_item"))
	newPrice := strings.TrimSpace(form.Get("new_price"))
	newQty := strings.TrimSpace(form.Get("new_qty"))
	if newItem == "" && newPrice == "" && newQty == "" {
		return rows, positions, nil
	}
	if newItem == "" {
		return nil, nil, &core.ValidationError{Row: n, Field: "item_name", Err: core.ErrEmptyItem}
	}
	newDate := strings.TrimSpace(form.Get("new_date"))
	if newDate == "" {
		newDate = today.String()
	}
	if newPrice == "" && cat != nil {
		newPrice = cat.Price(newItem).Plain()
	}
	if newQty == "" {
		newQty = "1"
	}
	t, err := parseGridRow(n, "", newDate, newItem, newPrice, newQty)
	if err != nil {
		return nil, nil, err
	}
	return append(rows, t), append(positions, n), nil
}

func parseGridRow(i int, id, date, item, price, qty string) (core.Transaction, error) {
	t := core.Transaction{ID: strings.TrimSpace(id), ItemName: sanitizeInput(item)}

	d, err := core.ParseDate(date)
	if err != nil {
		return t, &core.ValidationError{Row: i, Field: "date", Err: err}
	}
	t.Date = d

	if price = strings.TrimSpace(price); price != "" {
		if t.UnitPrice, err = core.ParseAmount(price); err != nil {
			return t, &core.ValidationError{Row: i, Field: "unit_price", Err: err}
		}
	}
	if qty = strings.TrimSpace(qty); qty != "" {
		if t.Quantity, err = core.ParseQuantity(qty); err != nil {
			return t, &core.ValidationError{Row: i, Field: "quantity", Err: err}
		}
	}
	return t, nil
}

// remapRow readdresses a ledger validation error from the filtered slice
// back to the submitted grid row.
func remapRow(err error, positions []int) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) && ve.Row >= 0 && ve.Row < len(positions) {
		return core.AtRow(err, positions[ve.Row])
	}
	return err
}
