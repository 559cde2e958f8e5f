package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"exam-flashcards/internal/quiz"
)

const (
	DefaultBaseURL = "https://sheets.googleapis.com"
	ReadonlyScope  = "https://www.googleapis.com/auth/spreadsheets.readonly"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4096
)

// Client reads worksheet titles and cell values from one spreadsheet.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
}

func NewClient(httpClient *http.Client, baseURL, spreadsheetID string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:    httpClient,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		spreadsheetID: spreadsheetID,
	}
}

type Options struct {
	SpreadsheetID   string
	CredentialsFile string
	BaseURL         string
	Timeout         time.Duration
}

// NewGoogleClient authenticates with a service-account file, or with application default
// credentials when no file is given.
func NewGoogleClient(ctx context.Context, opts Options) (*Client, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if opts.CredentialsFile != "" {
		data, readErr := os.ReadFile(opts.CredentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("read credentials: %w", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, ReadonlyScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, ReadonlyScope)
	}
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = timeout

	return NewClient(httpClient, opts.BaseURL, opts.SpreadsheetID), nil
}

type spreadsheetResponse struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

type valueRangeResponse struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) ListSheets(ctx context.Context) ([]string, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}

	query := url.Values{"fields": {"sheets.properties.title"}}
	reqURL := c.baseURL + "/v4/spreadsheets/" + url.PathEscape(c.spreadsheetID) + "?" + query.Encode()

	var payload spreadsheetResponse
	if err := c.getJSON(ctx, reqURL, "spreadsheet", &payload); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(payload.Sheets))
	for _, sheet := range payload.Sheets {
		titles = append(titles, sheet.Properties.Title)
	}
	return titles, nil
}

// FetchRows returns every populated row of sheet as strings. Trailing empty cells are
// omitted by the API, so rows may be shorter than the header.
func (c *Client) FetchRows(ctx context.Context, sheet string) ([][]string, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + "/v4/spreadsheets/" + url.PathEscape(c.spreadsheetID) +
		"/values/" + url.PathEscape(quoteSheetName(sheet))

	var payload valueRangeResponse
	if err := c.getJSON(ctx, reqURL, fmt.Sprintf("worksheet %q", sheet), &payload); err != nil {
		return nil, err
	}

	rows := make([][]string, len(payload.Values))
	for idx, row := range payload.Values {
		cells := make([]string, len(row))
		for col, value := range row {
			cells[col] = cellString(value)
		}
		rows[idx] = cells
	}
	return rows, nil
}

func (c *Client) checkConfigured() error {
	if strings.TrimSpace(c.spreadsheetID) == "" {
		return fmt.Errorf("%w: spreadsheet id is not configured", quiz.ErrSourceUnavailable)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, reqURL, what string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", quiz.ErrUnexpected, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", quiz.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp, what)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", quiz.ErrMalformedContent, what, err)
	}
	return nil
}

func statusError(resp *http.Response, what string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := strings.TrimSpace(string(body))
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	detail := fmt.Sprintf("sheets api returned status %d for %s: %s", resp.StatusCode, what, message)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", quiz.ErrNotFound, detail)
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(message, "Unable to parse range"):
		// A missing tab is reported as an unparsable range.
		return fmt.Errorf("%w: %s", quiz.ErrNotFound, detail)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: quota exceeded: %s", quiz.ErrRateLimited, detail)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", quiz.ErrSourceUnavailable, detail)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", quiz.ErrSourceUnavailable, detail)
	default:
		return fmt.Errorf("%w: %s", quiz.ErrUnexpected, detail)
	}
}

// quoteSheetName builds an A1 range covering the whole sheet.
func quoteSheetName(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(v)
	}
}
