package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fastertools/ftl-gateway/internal/gateway/internal/catalog"
	"github.com/fastertools/ftl-gateway/internal/gateway/internal/worker"
	"github.com/fastertools/ftl-gateway/internal/gateway/middleware"
	"github.com/fastertools/ftl-gateway/pkg/mcp"
)

// toolServer serves a worker: GET / lists tools, POST /<name> invokes them.
func toolServer(t *testing.T, tools []mcp.ToolMetadata, invoke http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(tools)
			return
		}
		invoke(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

// echoInvoke answers every invocation with a text content echoing the body.
func echoInvoke(w http.ResponseWriter, r *http.Request) {
	var args map[string]any
	_ = json.NewDecoder(r.Body).Decode(&args)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(mcp.ToolResponse{
		Content: []mcp.Content{{Type: "text", Text: "echoed"}},
	})
}

// testGateway wires a dispatcher whose components resolve to local servers.
func testGateway(t *testing.T, components map[string]*httptest.Server, validateArguments bool, pipeline *middleware.Pipeline) Handler {
	t.Helper()

	if pipeline == nil {
		pipeline = middleware.NewPipeline()
	}

	var order []string
	for name := range components {
		order = append(order, name)
	}

	workers := worker.NewClientWithResolver(func(component string) string {
		if server, ok := components[component]; ok {
			return server.URL
		}
		// Unroutable address: the component is down.
		return "http://127.0.0.1:1"
	})

	return NewDispatcher(catalog.New(workers, order), workers, pipeline, validateArguments)
}

// call runs one request through the dispatcher.
func call(t *testing.T, handler Handler, method string, params any, id string) *Response {
	t.Helper()

	req := &Request{
		JSONRPC: "2.0",
		Method:  method,
		ID:      json.RawMessage(id),
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("failed to marshal params: %v", err)
		}
		req.Params = raw
	}

	return handler.HandleRequest(context.Background(), req)
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	handler := testGateway(t, nil, false, nil)

	resp := call(t, handler, "initialize", map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test-client", "version": "1.0.0"},
	}, "1")

	if resp.Error != nil {
		t.Fatalf("initialize error: %v", resp.Error)
	}

	result, ok := resp.Result.(InitializeResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if result.ProtocolVersion != "2025-06-18" {
		t.Errorf("protocolVersion = %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "ftl-mcp-gateway" {
		t.Errorf("serverInfo.name = %q, want ftl-mcp-gateway", result.ServerInfo.Name)
	}
	if !result.Capabilities.Tools.ListChanged {
		t.Error("capabilities.tools.listChanged = false, want true")
	}
	if result.Capabilities.Resources.Subscribe || result.Capabilities.Resources.ListChanged {
		t.Error("capabilities.resources should be all false")
	}
	if result.Capabilities.Prompts.ListChanged {
		t.Error("capabilities.prompts.listChanged = true, want false")
	}
	if result.Capabilities.Experimental.Logging == nil {
		t.Error("experimental_capabilities.logging missing")
	}
	if result.Instructions == "" {
		t.Error("instructions missing")
	}
}

func TestInitialize_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	handler := testGateway(t, nil, false, nil)

	resp := call(t, handler, "initialize", map[string]any{
		"protocolVersion": "1.0.0",
	}, "1")

	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("error = %v, want -32602", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "Invalid initialize parameters") {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestInitialize_MissingParams(t *testing.T) {
	t.Parallel()

	handler := testGateway(t, nil, false, nil)

	resp := call(t, handler, "initialize", nil, "1")
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("error = %v, want -32602", resp.Error)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	handler := testGateway(t, nil, false, nil)

	resp := call(t, handler, "ping", nil, "1")
	if resp.Error != nil {
		t.Fatalf("ping error: %v", resp.Error)
	}
	if data, _ := json.Marshal(resp.Result); string(data) != "{}" {
		t.Errorf("ping result = %s, want {}", data)
	}
}

func TestMethodNotFound(t *testing.T) {
	t.Parallel()

	handler := testGateway(t, nil, false, nil)

	resp := call(t, handler, "unknown/method", nil, "1")
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("error = %v, want -32601", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "not found") {
		t.Errorf("message = %q, want not-found text", resp.Error.Message)
	}
}

func TestPromptsAndResourcesEmpty(t *testing.T) {
	t.Parallel()

	handler := testGateway(t, nil, false, nil)

	prompts := call(t, handler, "prompts/list", nil, "1")
	if data, _ := json.Marshal(prompts.Result); string(data) != `{"prompts":[]}` {
		t.Errorf("prompts/list result = %s", data)
	}

	resources := call(t, handler, "resources/list", nil, "2")
	if data, _ := json.Marshal(resources.Result); string(data) != `{"resources":[]}` {
		t.Errorf("resources/list result = %s", data)
	}
}

func TestToolsList_MergesInConfigOrder(t *testing.T) {
	t.Parallel()

	first := toolServer(t, []mcp.ToolMetadata{
		{Name: "alpha", Description: "first tool"},
		{Name: "beta", Description: "second tool"},
	}, echoInvoke)
	second := toolServer(t, []mcp.ToolMetadata{
		{Name: "gamma", Description: "third tool"},
	}, echoInvoke)

	workers := worker.NewClientWithResolver(func(component string) string {
		if component == "first" {
			return first.URL
		}
		return second.URL
	})
	handler := NewDispatcher(
		catalog.New(workers, []string{"first", "second"}),
		workers, middleware.NewPipeline(), false,
	)

	resp := call(t, handler, "tools/list", nil, "1")
	if resp.Error != nil {
		t.Fatalf("tools/list error: %v", resp.Error)
	}

	result := resp.Result.(ToolsListResult)
	want := []string{"alpha", "beta", "gamma"}
	if len(result.Tools) != len(want) {
		t.Fatalf("tools = %v, want %v", result.Tools, want)
	}
	for i, name := range want {
		if result.Tools[i].Name != name {
			t.Errorf("tools[%d] = %q, want %q", i, result.Tools[i].Name, name)
		}
	}
}

// A failing worker is skipped; the partial catalog is returned.
func TestToolsList_SkipsFailingWorker(t *testing.T) {
	t.Parallel()

	healthy := toolServer(t, []mcp.ToolMetadata{{Name: "alpha"}}, echoInvoke)

	workers := worker.NewClientWithResolver(func(component string) string {
		if component == "healthy" {
			return healthy.URL
		}
		return "http://127.0.0.1:1"
	})
	handler := NewDispatcher(
		catalog.New(workers, []string{"down", "healthy"}),
		workers, middleware.NewPipeline(), false,
	)

	resp := call(t, handler, "tools/list", nil, "1")
	result := resp.Result.(ToolsListResult)
	if len(result.Tools) != 1 || result.Tools[0].Name != "alpha" {
		t.Errorf("tools = %v, want only alpha", result.Tools)
	}
}

// Duplicate tool names keep the earlier configured worker's entry.
func TestToolsList_DuplicateDropped(t *testing.T) {
	t.Parallel()

	first := toolServer(t, []mcp.ToolMetadata{{Name: "alpha", Description: "wins"}}, echoInvoke)
	second := toolServer(t, []mcp.ToolMetadata{{Name: "alpha", Description: "loses"}}, echoInvoke)

	workers := worker.NewClientWithResolver(func(component string) string {
		if component == "first" {
			return first.URL
		}
		return second.URL
	})
	handler := NewDispatcher(
		catalog.New(workers, []string{"first", "second"}),
		workers, middleware.NewPipeline(), false,
	)

	resp := call(t, handler, "tools/list", nil, "1")
	result := resp.Result.(ToolsListResult)
	if len(result.Tools) != 1 {
		t.Fatalf("tools = %v, want one entry", result.Tools)
	}
	if result.Tools[0].Description != "wins" {
		t.Errorf("duplicate resolution kept %q", result.Tools[0].Description)
	}
}

func TestToolsCall_Success(t *testing.T) {
	t.Parallel()

	server := toolServer(t, []mcp.ToolMetadata{{Name: "echo"}}, echoInvoke)
	handler := testGateway(t, map[string]*httptest.Server{"worker": server}, false, nil)

	resp := call(t, handler, "tools/call", map[string]any{
		"name":      "echo",
		"arguments": map[string]any{"message": "hi"},
	}, "1")

	if resp.Error != nil {
		t.Fatalf("tools/call error: %v", resp.Error)
	}

	result := resp.Result.(*mcp.ToolResponse)
	if len(result.Content) != 1 || result.Content[0].Text != "echoed" {
		t.Errorf("content = %v", result.Content)
	}
}

func TestToolsCall_UnknownTool(t *testing.T) {
	t.Parallel()

	server := toolServer(t, []mcp.ToolMetadata{{Name: "echo"}}, echoInvoke)
	handler := testGateway(t, map[string]*httptest.Server{"worker": server}, false, nil)

	resp := call(t, handler, "tools/call", map[string]any{"name": "missing"}, "1")
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("error = %v, want -32602", resp.Error)
	}
	if resp.Error.Message != "Unknown tool: missing" {
		t.Errorf("message = %q, want Unknown tool: missing", resp.Error.Message)
	}
}

func TestToolsCall_WorkerErrorSurfaced(t *testing.T) {
	t.Parallel()

	server := toolServer(t, []mcp.ToolMetadata{{Name: "broken"}}, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("backend exploded"))
	})
	handler := testGateway(t, map[string]*httptest.Server{"worker": server}, false, nil)

	resp := call(t, handler, "tools/call", map[string]any{"name": "broken"}, "1")
	if resp.Error == nil || resp.Error.Code != CodeInternalError {
		t.Fatalf("error = %v, want -32603", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "502") || !strings.Contains(resp.Error.Message, "backend exploded") {
		t.Errorf("message = %q, want status and body surfaced", resp.Error.Message)
	}
}

func TestToolsCall_SchemaValidation(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type":     "object",
		"required": []any{"message"},
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
	}
	server := toolServer(t, []mcp.ToolMetadata{{Name: "echo", InputSchema: schema}}, echoInvoke)
	handler := testGateway(t, map[string]*httptest.Server{"worker": server}, true, nil)

	// Valid arguments pass.
	resp := call(t, handler, "tools/call", map[string]any{
		"name":      "echo",
		"arguments": map[string]any{"message": "hi"},
	}, "1")
	if resp.Error != nil {
		t.Fatalf("tools/call error for valid arguments: %v", resp.Error)
	}

	// Missing required property fails before dispatch.
	resp = call(t, handler, "tools/call", map[string]any{
		"name":      "echo",
		"arguments": map[string]any{"other": 1},
	}, "2")
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("error = %v, want -32602", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "message") {
		t.Errorf("message = %q, want validator detail", resp.Error.Message)
	}
}

func TestToolsCall_FatalMiddlewareAborts(t *testing.T) {
	t.Parallel()

	server := toolServer(t, []mcp.ToolMetadata{{Name: "echo"}}, echoInvoke)

	pipeline := middleware.NewPipeline()
	pipeline.Add(&fatalMiddleware{})

	handler := testGateway(t, map[string]*httptest.Server{"worker": server}, false, pipeline)

	resp := call(t, handler, "tools/call", map[string]any{"name": "echo"}, "1")
	if resp.Error == nil || resp.Error.Code != CodeInternalError {
		t.Fatalf("error = %v, want -32603 from fatal middleware", resp.Error)
	}
}

// fatalMiddleware fails every pre hook fatally.
type fatalMiddleware struct{}

func (*fatalMiddleware) PreProcess(context.Context, *middleware.Context) *middleware.Error {
	return middleware.NewFatalError("refused")
}

func (*fatalMiddleware) PostProcess(context.Context, *middleware.Context) *middleware.Error {
	return nil
}

func (*fatalMiddleware) Shutdown(context.Context) *middleware.Error {
	return nil
}
