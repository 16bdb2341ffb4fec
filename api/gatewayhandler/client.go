package gatewayhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/nfc-attendance/api"
	"github.com/ruteri/nfc-attendance/interfaces"
)

// DefaultClientTimeout bounds every request made by Client.
const DefaultClientTimeout = 3 * time.Second

// StatusError is returned for a non-2xx gateway response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway responded %d", e.Code)
	}
	return fmt.Sprintf("gateway responded %d: %s", e.Code, e.Message)
}

// Unwrap maps gateway status codes back onto the interfaces error taxonomy.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusConflict:
		return interfaces.ErrDuplicateRegistration
	case http.StatusServiceUnavailable:
		return interfaces.ErrLedgerUnreachable
	case http.StatusBadGateway:
		return interfaces.ErrTransactionFailed
	case http.StatusBadRequest:
		return interfaces.ErrInvalidTagID
	}
	return nil
}

// Client calls the gateway routes over HTTP. The tag agent uses it to forward
// attendance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the gateway at baseURL (for example
// "http://127.0.0.1:5000"). A non-positive timeout selects DefaultClientTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// MarkAttendance posts a tag to /mark and returns the confirmed event.
func (c *Client) MarkAttendance(ctx context.Context, tag interfaces.TagID) (*interfaces.AttendanceEvent, error) {
	var resp api.MarkResponse
	if err := c.do(ctx, http.MethodPost, "/mark", api.MarkRequest{TagID: string(tag)}, &resp); err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

// RegisterStudent posts a registration to /register.
func (c *Client) RegisterStudent(ctx context.Context, tag interfaces.TagID, name string) (*interfaces.Registration, error) {
	var resp api.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/register", api.RegisterRequest{TagID: string(tag), Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp.Registration, nil
}

// RequestRegistrationScan opens the registration window.
func (c *Client) RequestRegistrationScan(ctx context.Context) error {
	var resp api.ScanResponse
	return c.do(ctx, http.MethodPost, "/request_registration_scan", nil, &resp)
}

// ScannedUID claims the captured tag; ok is false while nothing is captured.
func (c *Client) ScannedUID(ctx context.Context) (interfaces.TagID, bool, error) {
	var resp api.ScannedUIDResponse
	if err := c.do(ctx, http.MethodGet, "/get_scanned_uid", nil, &resp); err != nil {
		return "", false, err
	}
	if resp.UID == nil {
		return "", false, nil
	}
	return *resp.UID, true, nil
}

// RecentEvents fetches the confirmed attendance events newer than since.
func (c *Client) RecentEvents(ctx context.Context, since float64) ([]interfaces.AttendanceEvent, error) {
	query := url.Values{"since": []string{strconv.FormatFloat(since, 'f', -1, 64)}}

	var events []interfaces.AttendanceEvent
	if err := c.do(ctx, http.MethodGet, "/api/attendance/recent?"+query.Encode(), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Health fetches the gateway's ledger connectivity report.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach gateway: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		_ = json.Unmarshal(data, &errResp)
		return &StatusError{Code: resp.StatusCode, Message: errResp.Message}
	}

	if err := json.Unmarshal(data, respBody); err != nil {
		return fmt.Errorf("could not parse gateway response: %w", err)
	}
	return nil
}
