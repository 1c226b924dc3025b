// Package worker implements the HTTP client side of the tool worker wire
// contract: a GET on the component root lists its tools, and a POST of an
// arguments object to /<tool_name> invokes one.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fastertools/ftl-gateway/pkg/mcp"
)

// internalSuffix is the host-internal address suffix for worker components.
const internalSuffix = ".spin.internal"

// CallError is returned when a worker answers a tool invocation with a
// non-200 status. The status and body are surfaced to the JSON-RPC caller.
type CallError struct {
	Component string
	Status    int
	Body      string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("worker %s returned status %d: %s", e.Component, e.Status, e.Body)
}

// Resolver maps a component name to its root address, without a trailing slash.
type Resolver func(component string) string

// DefaultResolver addresses components on the host-internal network.
func DefaultResolver(component string) string {
	return "http://" + component + internalSuffix
}

// Client talks to tool worker components over the host-internal network.
type Client struct {
	httpClient *http.Client
	resolve    Resolver
}

// NewClient creates a worker client using the host-internal addressing scheme.
func NewClient() *Client {
	return NewClientWithResolver(DefaultResolver)
}

// NewClientWithResolver creates a worker client with a custom address
// resolver, used by tests to point components at local servers.
func NewClientWithResolver(resolve Resolver) *Client {
	return &Client{
		httpClient: &http.Client{},
		resolve:    resolve,
	}
}

// baseURL returns the component's root address. withSlash controls the
// trailing slash; some runtimes only route one of the two forms.
func (c *Client) baseURL(component string, withSlash bool) string {
	url := c.resolve(component)
	if withSlash {
		url += "/"
	}
	return url
}

// ListTools fetches the component's tool catalog from its root endpoint.
// The trailing-slash form is tried first, then the bare form.
func (c *Client) ListTools(ctx context.Context, component string) ([]mcp.ToolMetadata, error) {
	tools, err := c.listTools(ctx, c.baseURL(component, true))
	if err != nil {
		tools, err = c.listTools(ctx, c.baseURL(component, false))
	}
	if err != nil {
		return nil, err
	}
	return tools, nil
}

func (c *Client) listTools(ctx context.Context, url string) ([]mcp.ToolMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tool listing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tools []mcp.ToolMetadata
	if err := json.Unmarshal(body, &tools); err != nil {
		return nil, fmt.Errorf("invalid tool listing: %w", err)
	}

	return tools, nil
}

// CallTool posts the arguments object to the owning worker and parses the
// ToolResponse. A non-200 answer becomes a CallError carrying status and body.
func (c *Client) CallTool(ctx context.Context, component, tool string, arguments json.RawMessage) (*mcp.ToolResponse, error) {
	if len(arguments) == 0 {
		arguments = json.RawMessage("{}")
	}

	url := c.baseURL(component, false) + "/" + tool
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(arguments))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &CallError{
			Component: component,
			Status:    resp.StatusCode,
			Body:      strings.TrimSpace(string(body)),
		}
	}

	var toolResp mcp.ToolResponse
	if err := json.Unmarshal(body, &toolResp); err != nil {
		return nil, fmt.Errorf("invalid tool response from %s: %w", component, err)
	}

	return &toolResp, nil
}
