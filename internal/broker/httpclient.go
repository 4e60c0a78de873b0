package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Wire types for the broker daemon protocol. The daemon (internal/brokerd)
// decodes and encodes the same structs.
type (
	// StatusResponse is the body of POST /status.
	StatusResponse struct {
		Status SdkStatus `json:"status"`
	}

	// InitializeResponse is the body of POST /initialize.
	InitializeResponse struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason,omitempty"`
	}

	// PermissionRequestBody is the request body of POST /request_permission.
	PermissionRequestBody struct {
		Pairs []Pair `json:"pairs"`
	}

	// PermissionResponse is the response body of POST /request_permission.
	PermissionResponse struct {
		Granted []Pair `json:"granted"`
	}
)

// HTTPClient talks to a broker daemon over localhost HTTP. It implements
// Client so the orchestrator cannot tell it apart from the in-process Sim.
type HTTPClient struct {
	addr string
	hc   *http.Client
}

// NewHTTPClient creates a client for the daemon at addr (host:port).
// No request timeout is set on the underlying client: permission requests
// legitimately block on external consent UI, and the orchestrator's own
// timeout policy decides when to stop waiting.
func NewHTTPClient(addr string) *HTTPClient {
	return &HTTPClient{
		addr: addr,
		hc:   &http.Client{},
	}
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	url := fmt.Sprintf("http://%s%s", c.addr, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("broker daemon request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("broker daemon %s: %s: %s", endpoint, resp.Status, bytes.TrimSpace(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// GetStatus polls the daemon's status endpoint.
func (c *HTTPClient) GetStatus(ctx context.Context) (SdkStatus, error) {
	var resp StatusResponse
	if err := c.post(ctx, "/status", nil, &resp); err != nil {
		return StatusNotInstalled, err
	}
	return resp.Status, nil
}

// Initialize asks the daemon to establish its native session.
func (c *HTTPClient) Initialize(ctx context.Context) (bool, error) {
	var resp InitializeResponse
	if err := c.post(ctx, "/initialize", nil, &resp); err != nil {
		return false, err
	}
	if !resp.OK && resp.Reason != "" {
		return false, fmt.Errorf("broker daemon: %s", resp.Reason)
	}
	return resp.OK, nil
}

// RequestPermission forwards the request to the daemon and returns its grant.
func (c *HTTPClient) RequestPermission(ctx context.Context, req Request) (Grant, error) {
	var resp PermissionResponse
	body := PermissionRequestBody{Pairs: req.Pairs()}
	if err := c.post(ctx, "/request_permission", body, &resp); err != nil {
		return Grant{}, err
	}
	return Grant{Pairs: resp.Granted}, nil
}

// Ping reports whether the daemon is reachable. Used by CLI preflight checks.
func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.post(ctx, "/health", nil, nil)
}
