package api

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
)

// Client is the HTTP client the CLI uses to talk to a running daemon.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client against the daemon's bind address. The address
// may be a bare host:port or a full http URL.
func NewClient(address, token string) *Client {
	base := strings.TrimSpace(address)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	err := c.get(ctx, "/api/status", nil, &status)
	return status, err
}

// Health fetches the health summary.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var health HealthResponse
	err := c.get(ctx, "/api/health", nil, &health)
	return health, err
}

// Folders lists the daemon's configured folders.
func (c *Client) Folders(ctx context.Context) ([]Folder, error) {
	var resp FolderListResponse
	if err := c.get(ctx, "/api/folders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Folders, nil
}

// Jobs lists jobs, optionally filtered by status.
func (c *Client) Jobs(ctx context.Context, status string, limit int) ([]Job, error) {
	query := url.Values{}
	if strings.TrimSpace(status) != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp JobListResponse
	if err := c.get(ctx, "/api/jobs", query, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Job fetches one job by id.
func (c *Client) Job(ctx context.Context, id string) (Job, error) {
	var resp JobResponse
	err := c.get(ctx, "/api/jobs/"+url.PathEscape(id), nil, &resp)
	return resp.Job, err
}

// Results lists persisted result files, optionally for one folder.
func (c *Client) Results(ctx context.Context, folder string, limit int) ([]Result, error) {
	query := url.Values{}
	if strings.TrimSpace(folder) != "" {
		query.Set("folder", folder)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp ResultListResponse
	if err := c.get(ctx, "/api/results", query, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Process submits content for an immediate transform.
func (c *Client) Process(ctx context.Context, req ProcessRequest) (ProcessResponse, error) {
	var resp ProcessResponse
	err := c.post(ctx, "/api/process", req, &resp)
	return resp, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr ErrorResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon error (http %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon error (http %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
