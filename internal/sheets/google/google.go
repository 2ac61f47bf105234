package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"shopledger/internal/core"
	ports "shopledger/internal/sheets"
)

// columns spans the five ledger columns of a period tab.
const columns = "A:E"

// Client stores each period in its own tab named by the period key.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *slog.Logger
}

// Ensure interface conformance
var (
	_ ports.SnapshotStore = (*Client)(nil)
	_ ports.PeriodLister  = (*Client)(nil)
)

// Config selects the spreadsheet and credentials. Service account
// credentials take precedence over an OAuth client + token pair.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
}

// New creates a Sheets client from cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        slog.Default().With("component", "sheets"),
	}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	saJSON, err := readInlineOrFile(cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account: %w", err)
	}
	if len(saJSON) > 0 {
		slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
			"credentials_size", len(saJSON),
			"scope", gsheet.SpreadsheetsScope)
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		)
	}

	clientJSON, err := readInlineOrFile(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	tokenJSON, err := readInlineOrFile(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if len(clientJSON) == 0 || len(tokenJSON) == 0 {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or an OAuth client and token)")
	}
	oauthCfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tok, err := parseToken(tokenJSON)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with OAuth token", "has_refresh_token", tok.RefreshToken != "")
	// The oauth2 transport picks up the pooled client from the context.
	octx := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(octx, tok)))
}

func readInlineOrFile(inline, path string) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
	case path != "":
		return os.ReadFile(path)
	default:
		return nil, nil
	}
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// ReadPeriod returns the rows of the tab named periodKey. A missing tab reads
// as an empty period.
func (c *Client) ReadPeriod(ctx context.Context, periodKey string) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, ports.Unavailable("read period", errors.New("sheets service not initialized"))
	}
	titles, err := c.tabs(ctx)
	if err != nil {
		return nil, ports.Unavailable("read period", err)
	}
	if _, ok := titles[periodKey]; !ok {
		c.logger.DebugContext(ctx, "Period tab not found, starting empty", "period", periodKey)
		return []core.Transaction{}, nil
	}

	rng := tabRange(periodKey)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, ports.Unavailable("read "+rng, err)
	}
	rows, err := ports.DecodeRows(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rng, err)
	}
	return rows, nil
}

// WritePeriod overwrites the tab named periodKey with rows, creating the tab
// when it does not exist yet.
func (c *Client) WritePeriod(ctx context.Context, periodKey string, rows []core.Transaction) error {
	if c.svc == nil {
		return ports.Unavailable("write period", errors.New("sheets service not initialized"))
	}
	titles, err := c.tabs(ctx)
	if err != nil {
		return ports.Unavailable("write period", err)
	}
	if _, ok := titles[periodKey]; !ok {
		if err := c.addTab(ctx, periodKey); err != nil {
			return ports.Unavailable("create tab "+periodKey, err)
		}
		c.logger.InfoContext(ctx, "Created period tab", "period", periodKey)
	}

	values, err := ports.EncodeRows(rows)
	if err != nil {
		return err
	}
	rng := tabRange(periodKey)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return ports.Unavailable("clear "+rng, err)
	}
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return ports.Unavailable("update "+rng, err)
	}
	c.logger.InfoContext(ctx, "Wrote period snapshot", "period", periodKey, "rows", len(rows))
	return nil
}

// ListPeriods returns the tab titles that are valid period keys.
func (c *Client) ListPeriods(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, ports.Unavailable("list periods", errors.New("sheets service not initialized"))
	}
	titles, err := c.tabs(ctx)
	if err != nil {
		return nil, ports.Unavailable("list periods", err)
	}
	var out []string
	for title := range titles {
		if _, err := core.ParsePeriodKey(title); err == nil {
			out = append(out, title)
		}
	}
	return core.SortPeriodKeys(out), nil
}

func (c *Client) tabs(ctx context.Context) (map[string]int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			out[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return out, nil
}

func (c *Client) addTab(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return err
}

func tabRange(periodKey string) string {
	return fmt.Sprintf("%s!%s", periodKey, columns)
}
