package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spesecli/internal/core"
	"spesecli/internal/log"
	ports "spesecli/internal/sheets"
)

const defaultRowCacheTTL = 5 * time.Minute

// Options selects the spreadsheet and credentials. Service account
// credentials win over OAuth client + token when both are present.
type Options struct {
	SpreadsheetID string
	// SheetName is the base name; the report year is prefixed ("2024 Reports").
	SheetName string

	ServiceAccountFile string
	ServiceAccountJSON string

	OAuthClientFile string
	OAuthClientJSON string
	OAuthTokenFile  string
	OAuthTokenJSON  string

	Logger *log.Logger
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger

	// next free row per sheet, so consecutive exports skip the A:A read
	mu                 sync.Mutex
	cachedRowCount     map[string]int
	cacheExpiresAt     map[string]time.Time
	cacheValidDuration time.Duration
}

var _ ports.ReportExporter = (*Client)(nil)

// New creates a Sheets client from the given options.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, opts.SpreadsheetID, opts.SheetName, logger), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheetBase string, logger *log.Logger) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Reports"
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      strings.TrimSpace(spreadsheetID),
		sheetBase:          strings.TrimSpace(sheetBase),
		logger:             logger,
		cachedRowCount:     make(map[string]int),
		cacheExpiresAt:     make(map[string]time.Time),
		cacheValidDuration: defaultRowCacheTTL,
	}
}

// newSheetsService initializes a Sheets Service from service account
// credentials, or from an OAuth client and a stored token.
func newSheetsService(ctx context.Context, opts Options, logger *log.Logger) (*gsheet.Service, error) {
	saJSON, err := readInlineOrFile(opts.ServiceAccountJSON, opts.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account: %w", err)
	}
	if len(saJSON) > 0 {
		logger.InfoContext(ctx, "Creating Google Sheets service with service account", "credentials_size", len(saJSON))
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}

	clientJSON, err := readInlineOrFile(opts.OAuthClientJSON, opts.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	tokenJSON, err := readInlineOrFile(opts.OAuthTokenJSON, opts.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if len(clientJSON) == 0 || len(tokenJSON) == 0 {
		return nil, errors.New("missing credentials (set a service account, or an OAuth client and token)")
	}

	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	logger.InfoContext(ctx, "Creating Google Sheets service with OAuth token")
	// token refreshes go through the pooled client too
	oauthCtx := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(oauthCtx, &tok)))
}

func readInlineOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if p := strings.TrimSpace(path); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
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
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
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

// Export appends the report to the "<year> <base>" sheet. A header row is
// written first when the sheet is empty. The returned reference is the A1
// range that was written.
func (c *Client) Export(ctx context.Context, r core.MonthlyReport) (string, error) {
	if err := r.Period().Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.sheetBase, r.Year)
	used, err := c.usedRows(ctx, sheet)
	if err != nil {
		return "", err
	}

	rows := reportRows(r, time.Now())
	if used == 0 {
		rows = append([][]any{headerRow()}, rows...)
	}
	first := used + 1
	last := used + len(rows)
	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, first, lastColumn, last)

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.invalidateRowCache(sheet)
		return "", fmt.Errorf("failed to write %s: %w", rng, err)
	}

	c.mu.Lock()
	c.cachedRowCount[sheet] = last
	c.cacheExpiresAt[sheet] = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldSheetsRef, rng,
		log.FieldYear, r.Year,
		log.FieldMonth, r.Month,
		"rows", len(rows))
	return rng, nil
}

// usedRows returns how many rows of column A are filled. A missing sheet is
// created on the fly.
func (c *Client) usedRows(ctx context.Context, sheet string) (int, error) {
	c.mu.Lock()
	if n, ok := c.cachedRowCount[sheet]; ok && time.Now().Before(c.cacheExpiresAt[sheet]) {
		c.mu.Unlock()
		return n, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			if cerr := c.addSheet(ctx, sheet); cerr != nil {
				return 0, fmt.Errorf("failed to create sheet %s: %w", sheet, cerr)
			}
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	return len(resp.Values), nil
}

func (c *Client) addSheet(ctx context.Context, sheet string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Created report sheet", "sheet", sheet)
	return nil
}

func (c *Client) invalidateRowCache(sheet string) {
	c.mu.Lock()
	delete(c.cachedRowCount, sheet)
	delete(c.cacheExpiresAt, sheet)
	c.mu.Unlock()
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
