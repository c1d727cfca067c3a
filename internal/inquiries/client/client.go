// Package client provides the HTTP client for the marketplace inquiries API.
package client

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

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/internal/inquiries/filter"
	"inquiry_desk/platform/apperr"
	"inquiry_desk/platform/config"
	"inquiry_desk/platform/logger"
)

const maxErrorBody = 64 << 10

// Client talks to the inquiries endpoints on behalf of one signed-in user.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *logger.Logger
}

// New creates a client for the configured API. token is the caller's bearer
// access token and may be empty for anonymous calls.
func New(cfg config.APIClientConfig, token string, log *logger.Logger) *Client {
	timeout := cfg.GetAPITimeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.GetAPIBaseURL(), "/"),
		token:      token,
		log:        log,
	}
}

// WithHTTPClient swaps the underlying transport. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// StatusPayload is the body of PATCH /inquiries/{id}/status.
type StatusPayload struct {
	Status domain.Status `json:"status"`
	Notes  *string       `json:"notes,omitempty"`
}

// ViewingPayload is the body of POST /inquiries/{id}/schedule-viewing.
type ViewingPayload struct {
	ViewingTime string  `json:"viewing_time"`
	Address     *string `json:"address,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// BulkPayload is the body of PATCH /inquiries/bulk. Patch fields are
// flattened next to ids.
type BulkPayload struct {
	IDs   []int64
	Patch map[string]any
}

// MarshalJSON flattens the patch into the top level object.
func (b BulkPayload) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(b.Patch)+1)
	for k, v := range b.Patch {
		body[k] = v
	}
	body["ids"] = b.IDs
	return json.Marshal(body)
}

// ListInquiries fetches one page of inquiries matching filters.
func (c *Client) ListInquiries(ctx context.Context, filters filter.APIFilters) (domain.Page, error) {
	var page domain.Page
	err := c.do(ctx, http.MethodGet, "/inquiries", filters.Values(), nil, &page)
	return page, err
}

// GetInquiry fetches a single inquiry.
func (c *Client) GetInquiry(ctx context.Context, id int64) (domain.Inquiry, error) {
	var inq domain.Inquiry
	err := c.do(ctx, http.MethodGet, inquiryPath(id, ""), nil, nil, &inq)
	return inq, err
}

// GetActivity fetches the timeline of an inquiry. The endpoint returns either
// a bare array or a paginated envelope.
func (c *Client) GetActivity(ctx context.Context, id int64) ([]domain.ActivityEvent, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, inquiryPath(id, "activity"), nil, nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var events []domain.ActivityEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, apperr.Wrap(apperr.KindUpstream, apperr.GenericMessage, fmt.Errorf("decode activity: %w", err))
		}
		return events, nil
	}
	var envelope struct {
		Results []domain.ActivityEvent `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, apperr.GenericMessage, fmt.Errorf("decode activity: %w", err))
	}
	return envelope.Results, nil
}

// UpdateStatus changes the status of an inquiry.
func (c *Client) UpdateStatus(ctx context.Context, id int64, payload StatusPayload) error {
	return c.do(ctx, http.MethodPatch, inquiryPath(id, "status"), nil, payload, nil)
}

// AssignToMe assigns an inquiry to the token's user.
func (c *Client) AssignToMe(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, inquiryPath(id, "assign-to-me"), nil, nil, nil)
}

// ScheduleViewing books a property viewing for an inquiry.
func (c *Client) ScheduleViewing(ctx context.Context, id int64, payload ViewingPayload) error {
	return c.do(ctx, http.MethodPost, inquiryPath(id, "schedule-viewing"), nil, payload, nil)
}

// BulkUpdate applies one patch to many inquiries in a single request.
func (c *Client) BulkUpdate(ctx context.Context, payload BulkPayload) error {
	return c.do(ctx, http.MethodPatch, "/inquiries/bulk", nil, payload, nil)
}

// DashboardStats fetches the aggregate counters.
func (c *Client) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	err := c.do(ctx, http.MethodGet, "/inquiries/dashboard-stats", nil, nil, &stats)
	return stats, err
}

// Export starts an export of the inquiries matching filters.
func (c *Client) Export(ctx context.Context, filters filter.APIFilters) (domain.ExportJob, error) {
	var job domain.ExportJob
	err := c.do(ctx, http.MethodGet, "/inquiries/export", filters.WithoutPaging().Values(), nil, &job)
	return job, err
}

func inquiryPath(id int64, action string) string {
	p := "/inquiries/" + strconv.FormatInt(id, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, apperr.GenericMessage, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, apperr.GenericMessage, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("inquiries api request failed", "method", method, "path", path, "error", err)
		return apperr.Unavailable(apperr.GenericMessage, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()
	c.log.APICall(method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(method, path, resp.StatusCode, payload)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		c.log.Error("inquiries api decode failed", "path", path, "error", err)
		return apperr.Wrap(apperr.KindUpstream, apperr.GenericMessage, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

func statusError(method, path string, status int, body []byte) error {
	msg := ExtractMessage(body)
	cause := fmt.Errorf("%s %s: status %d", method, path, status)

	var kind apperr.Kind
	switch {
	case status == http.StatusUnauthorized:
		kind = apperr.KindUnauthorized
	case status == http.StatusForbidden:
		kind = apperr.KindForbidden
	case status == http.StatusNotFound:
		kind = apperr.KindNotFound
	case status == http.StatusConflict:
		kind = apperr.KindConflict
	case status >= 500:
		kind = apperr.KindUpstream
	default:
		kind = apperr.KindBadRequest
	}

	e := apperr.Wrap(kind, msg, cause).WithOp(method + " " + path)
	if fields := fieldErrors(body); len(fields) > 0 {
		e = e.WithDetails(fields)
	}
	return e
}
