package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastertools/ftl-gateway/internal/gateway/internal/catalog"
	"github.com/fastertools/ftl-gateway/internal/gateway/internal/worker"
	"github.com/fastertools/ftl-gateway/internal/gateway/middleware"
)

// dispatcher implements Handler. It routes JSON-RPC requests to the
// appropriate method handlers and runs the middleware pipeline around
// each tool invocation.
type dispatcher struct {
	catalog           *catalog.Catalog
	workers           *worker.Client
	pipeline          *middleware.Pipeline
	validateArguments bool
}

// NewDispatcher creates the MCP method dispatcher.
func NewDispatcher(
	cat *catalog.Catalog,
	workers *worker.Client,
	pipeline *middleware.Pipeline,
	validateArguments bool,
) Handler {
	if cat == nil {
		panic("catalog cannot be nil")
	}
	if workers == nil {
		panic("workers cannot be nil")
	}
	if pipeline == nil {
		panic("pipeline cannot be nil")
	}

	return &dispatcher{
		catalog:           cat,
		workers:           workers,
		pipeline:          pipeline,
		validateArguments: validateArguments,
	}
}

// HandleRequest processes an MCP JSON-RPC request.
// Notifications execute their side effects but yield a nil response.
func (d *dispatcher) HandleRequest(ctx context.Context, req *Request) *Response {
	resp := d.route(ctx, req)
	if req.IsNotification() {
		return nil
	}
	return resp
}

// route dispatches by method name.
func (d *dispatcher) route(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return d.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Client acknowledgement; nothing to do.
		return NewResponse(req.ID, map[string]any{})
	case "ping":
		return NewResponse(req.ID, map[string]any{})
	case "tools/list":
		return d.handleToolsList(ctx, req)
	case "tools/call":
		return d.handleToolsCall(ctx, req)
	case "prompts/list":
		return NewResponse(req.ID, PromptsListResult{Prompts: []any{}})
	case "resources/list":
		return NewResponse(req.ID, ResourcesListResult{Resources: []any{}})
	default:
		return NewErrorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

// handleInitialize validates the protocol version and reports capabilities.
func (d *dispatcher) handleInitialize(req *Request) *Response {
	var params InitializeParams
	if req.Params == nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Invalid initialize parameters", nil)
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Invalid initialize parameters", err.Error())
	}
	if !SupportedProtocolVersions[params.ProtocolVersion] {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Invalid initialize parameters",
			fmt.Sprintf("unsupported protocol version: %s", params.ProtocolVersion))
	}

	result := InitializeResult{
		ProtocolVersion: params.ProtocolVersion,
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
		Capabilities: Capabilities{
			Tools:        ToolsCapability{ListChanged: true},
			Resources:    ResourcesCapability{Subscribe: false, ListChanged: false},
			Prompts:      PromptsCapability{ListChanged: false},
			Experimental: ExperimentalCapability{Logging: map[string]any{}},
		},
		Instructions: "This gateway aggregates tools from independently deployed worker components. Use tools/list to discover them and tools/call to invoke one.",
	}

	return NewResponse(req.ID, result)
}

// handleToolsList fans out to every configured worker and merges the catalogs.
func (d *dispatcher) handleToolsList(ctx context.Context, req *Request) *Response {
	return NewResponse(req.ID, ToolsListResult{Tools: d.catalog.Tools(ctx)})
}

// handleToolsCall routes the invocation to the owning worker through the
// middleware pipeline.
func (d *dispatcher) handleToolsCall(ctx context.Context, req *Request) *Response {
	if req.Params == nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Invalid tools/call params", nil)
	}

	var params ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Invalid tools/call params", err.Error())
	}
	if params.Name == "" {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Invalid tools/call params", "tool name is required")
	}

	entry, ok := d.catalog.Resolve(ctx, params.Name)
	if !ok {
		return NewErrorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name), nil)
	}

	if d.validateArguments && entry.Tool.InputSchema != nil {
		if err := validateArguments(entry.Tool.InputSchema, params.Arguments); err != nil {
			return NewErrorResponse(req.ID, CodeInvalidParams, err.Error(), nil)
		}
	}

	mc := middleware.NewContext(params.Name, entry.Component)
	mc.SetRequestSize(uint64(len(params.Arguments)))
	if auth, ok := AuthFromContext(ctx); ok {
		mc.Metadata.ClientID = auth.ClientID
		if auth.UserID != "" {
			mc.Metadata.Additional["user_id"] = auth.UserID
		}
		if auth.Issuer != "" {
			mc.Metadata.Additional["auth_provider"] = auth.Issuer
		}
	}

	if err := d.pipeline.PreProcess(ctx, mc); err != nil {
		return NewErrorResponse(req.ID, CodeInternalError, fmt.Sprintf("Middleware error: %s", err.Message), nil)
	}

	mc.Timing.ToolStart = time.Now()
	toolResp, err := d.workers.CallTool(ctx, entry.Component, params.Name, params.Arguments)
	mc.Timing.ToolEnd = time.Now()

	if err != nil {
		mc.SetToolResult(false, nil)
		mc.SetError(err.Error())
	} else {
		var responseSize *uint64
		if data, merr := json.Marshal(toolResp); merr == nil {
			size := uint64(len(data))
			responseSize = &size
		}
		mc.SetToolResult(!toolResp.IsError, responseSize)
	}

	if perr := d.pipeline.PostProcess(ctx, mc); perr != nil {
		return NewErrorResponse(req.ID, CodeInternalError, fmt.Sprintf("Middleware error: %s", perr.Message), nil)
	}

	if err != nil {
		return NewErrorResponse(req.ID, CodeInternalError, fmt.Sprintf("Tool call failed: %s", err.Error()), nil)
	}

	return NewResponse(req.ID, toolResp)
}

// AuthContext carries the normalized authentication context the authorizer
// injected on the internal hop.
type AuthContext struct {
	ClientID string
	UserID   string
	Issuer   string

	// RawToken is the re-emitted bearer credential, available to middleware
	// that wants to re-verify it.
	RawToken string
}

type authContextKey struct{}

// ContextWithAuth stores the authentication context on the request context.
func ContextWithAuth(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// AuthFromContext retrieves the authentication context, if present.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey{}).(AuthContext)
	return auth, ok
}
