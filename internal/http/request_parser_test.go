package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"shopledger/internal/catalog"
	"shopledger/internal/core"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"GET allowed with multiple", http.MethodGet, []string{http.MethodGet, http.MethodHead}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequirePOST(t *testing.T) {
	postReq := httptest.NewRequest(http.MethodPost, "/test", nil)
	if result := RequirePOST(postReq); result != nil {
		t.Error("RequirePOST should allow POST requests")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/test", nil)
	if result := RequirePOST(getReq); result == nil {
		t.Error("RequirePOST should reject GET requests")
	}
}

func TestParseFormOrFail(t *testing.T) {
	// Valid form request
	body := "field=value"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	result := ParseFormOrFail(req)
	if result != nil {
		t.Error("Expected nil for valid form, got error response")
	}

	// Verify form was parsed
	if req.Form.Get("field") != "value" {
		t.Error("Form was not parsed correctly")
	}
}

func TestRequestBodyParser_SanitizesValues(t *testing.T) {
	body := `{"item": "  ครัวซองต์\u0000 ", "quantity": 2}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := parser.Get("item"); got != "ครัวซองต์" {
		t.Errorf("Get('item') = %q", got)
	}
	if got := parser.Get("quantity"); got != "2" {
		t.Errorf("Get('quantity') = %q", got)
	}
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]core.MenuEntry{
		{Name: "ครัวซองต์", Price: core.Money{Cents: 4500}},
		{Name: "บราวนี่", Price: core.Money{Cents: 2500}},
	})
}

func getter(v url.Values) func(string) string {
	return func(k string) string { return strings.TrimSpace(v.Get(k)) }
}

func TestParseDraft(t *testing.T) {
	today := core.NewDate(2026, 3, 14)
	tests := []struct {
		name      string
		form      url.Values
		want      core.Draft
		wantField string
		wantErr   error
	}{
		{
			name: "all fields",
			form: url.Values{"date": {"2026-03-02"}, "item": {"เค้กส้ม"}, "price": {"55.50"}, "quantity": {"3"}},
			want: core.Draft{Date: core.NewDate(2026, 3, 2), ItemName: "เค้กส้ม", UnitPrice: core.Money{Cents: 5550}, Quantity: 3},
		},
		{
			name: "blank price uses catalog",
			form: url.Values{"item": {"ครัวซองต์"}, "quantity": {"2"}},
			want: core.Draft{Date: today, ItemName: "ครัวซองต์", UnitPrice: core.Money{Cents: 4500}, Quantity: 2},
		},
		{
			name: "blank price for unknown item is zero",
			form: url.Values{"item": {"ของแถม"}},
			want: core.Draft{Date: today, ItemName: "ของแถม", Quantity: 1},
		},
		{
			name: "explicit price overrides catalog",
			form: url.Values{"item": {"บราวนี่"}, "price": {"30"}, "quantity": {"1"}},
			want: core.Draft{Date: today, ItemName: "บราวนี่", UnitPrice: core.Money{Cents: 3000}, Quantity: 1},
		},
		{
			name:      "zero quantity rejected",
			form:      url.Values{"item": {"บราวนี่"}, "quantity": {"0"}},
			wantField: "quantity",
			wantErr:   errQuantityTooSmall,
		},
		{
			name:      "fractional quantity rejected",
			form:      url.Values{"item": {"บราวนี่"}, "quantity": {"1.5"}},
			wantField: "quantity",
			wantErr:   core.ErrInvalidQuantity,
		},
		{
			name:      "negative price rejected",
			form:      url.Values{"item": {"บราวนี่"}, "price": {"-1"}},
			wantField: "unit_price",
			wantErr:   core.ErrNegativePrice,
		},
		{
			name:      "bad date rejected",
			form:      url.Values{"item": {"บราวนี่"}, "date": {"14/03/2026"}},
			wantField: "date",
			wantErr:   core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDraft(getter(tt.form), today, testCatalog())
			if tt.wantErr != nil {
				var ve *core.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				if ve.Field != tt.wantField || !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want field %s wrapping %v", err, tt.wantField, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDraft() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseDraft() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseGridRows(t *testing.T) {
	today := core.NewDate(2026, 3, 14)
	form := url.Values{
		"id":     {"a", "b", "c"},
		"date":   {"2026-03-01", "2026-03-02", "2026-03-03"},
		"item":   {"ครัวซองต์", "บราวนี่", "เค้กส้ม"},
		"price":  {"45", "", "60"},
		"qty":    {"2", "", "0"},
		"delete": {"b"},
	}

	rows, positions, err := parseGridRows(form, today, testCatalog())
	if err != nil {
		t.Fatalf("parseGridRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].ID != "a" || rows[1].ID != "c" {
		t.Errorf("ids = %s, %s", rows[0].ID, rows[1].ID)
	}
	if rows[1].Quantity != 0 || rows[1].UnitPrice.Cents != 6000 {
		t.Errorf("row c = %+v", rows[1])
	}
	if positions[0] != 0 || positions[1] != 2 {
		t.Errorf("positions = %v, want [0 2]", positions)
	}
}

func TestParseGridRowsNewRow(t *testing.T) {
	today := core.NewDate(2026, 3, 14)

	t.Run("filled new row is appended with catalog price", func(t *testing.T) {
		form := url.Values{"new_item": {"บราวนี่"}, "new_qty": {"4"}}
		rows, positions, err := parseGridRows(form, today, testCatalog())
		if err != nil {
			t.Fatalf("parseGridRows() error = %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("len(rows) = %d, want 1", len(rows))
		}
		got := rows[0]
		if got.ID != "" || got.Date != today || got.UnitPrice.Cents != 2500 || got.Quantity != 4 {
			t.Errorf("new row = %+v", got)
		}
		if positions[0] != 0 {
			t.Errorf("positions = %v", positions)
		}
	})

	t.Run("blank new row is ignored", func(t *testing.T) {
		form := url.Values{"new_date": {"2026-03-14"}}
		rows, _, err := parseGridRows(form, today, testCatalog())
		if err != nil || len(rows) != 0 {
			t.Fatalf("rows = %v, err = %v", rows, err)
		}
	})

	t.Run("new row without item is rejected", func(t *testing.T) {
		form := url.Values{"id": {"a"}, "date": {"2026-03-01"}, "item": {"x"}, "price": {"1"}, "qty": {"1"}, "new_qty": {"2"}}
		_, _, err := parseGridRows(form, today, testCatalog())
		if !errors.Is(err, core.ErrEmptyItem) {
			t.Fatalf("err = %v, want ErrEmptyItem", err)
		}
		if msg := validationMessage(err); msg != "แถว 2: กรุณากรอกชื่อรายการสินค้า" {
			t.Errorf("message = %q", msg)
		}
	})
}

func TestParseGridRowsErrors(t *testing.T) {
	today := core.NewDate(2026, 3, 14)

	t.Run("mismatched columns", func(t *testing.T) {
		form := url.Values{"id": {"a", "b"}, "date": {"2026-03-01"}, "item": {"x", "y"}, "price": {"1", "2"}, "qty": {"1", "2"}}
		_, _, err := parseGridRows(form, today, nil)
		if !errors.Is(err, errMalformedGrid) {
			t.Fatalf("err = %v, want errMalformedGrid", err)
		}
	})

	t.Run("bad price names the row", func(t *testing.T) {
		form := url.Values{"id": {"a", "b"}, "date": {"2026-03-01", "2026-03-02"}, "item": {"x", "y"}, "price": {"1", "abc"}, "qty": {"1", "2"}}
		_, _, err := parseGridRows(form, today, nil)
		var ve *core.ValidationError
		if !errors.As(err, &ve) || ve.Row != 1 || ve.Field != "unit_price" {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRemapRow(t *testing.T) {
	err := &core.ValidationError{Row: 1, Field: "date", Err: core.ErrDateOutsidePeriod}
	got := remapRow(err, []int{0, 3})
	var ve *core.ValidationError
	if !errors.As(got, &ve) || ve.Row != 3 {
		t.Fatalf("remapRow() = %v, want row 3", got)
	}
	if err.Row != 1 {
		t.Error("remapRow mutated the original error")
	}

	plain := errors.New("boom")
	if remapRow(plain, []int{0}) != plain {
		t.Error("non-validation errors must pass through")
	}
}
