package middleware

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Context is the per-invocation mutable state passed through the pipeline.
// It is owned by the request task and never shared across requests.
type Context struct {
	// RequestID uniquely identifies the invocation (uuid plus epoch millis).
	RequestID string

	// ToolName is the invoked tool; ComponentName is its owning worker.
	ToolName      string
	ComponentName string

	// Metadata describes the caller.
	Metadata RequestMetadata

	// Timing records the invocation's monotonic timestamps.
	Timing Timing

	// extensions is a type-keyed map for middleware-private state.
	extensions map[reflect.Type]any

	// ToolResult is set once the tool returns.
	ToolResult *ToolResult

	// Err records a failure message, if any.
	Err string
}

// RequestMetadata describes the caller of an invocation.
type RequestMetadata struct {
	ClientID   string
	UserAgent  string
	SourceIP   string
	Additional map[string]string
}

// ToolResult records the outcome of the tool execution.
type ToolResult struct {
	Success      bool
	ResponseSize *uint64
}

// Timing holds the monotonic timestamps of one invocation.
type Timing struct {
	ReceivedAt time.Time
	PreStart   time.Time
	PreEnd     time.Time
	ToolStart  time.Time
	ToolEnd    time.Time
	PostStart  time.Time
	PostEnd    time.Time
}

// ToolDuration returns the tool execution time, or zero when incomplete.
func (t *Timing) ToolDuration() time.Duration {
	if t.ToolStart.IsZero() || t.ToolEnd.IsZero() {
		return 0
	}
	return t.ToolEnd.Sub(t.ToolStart)
}

// NewContext creates the context for one tool invocation.
func NewContext(toolName, componentName string) *Context {
	return &Context{
		RequestID:     fmt.Sprintf("%s-%d", uuid.NewString(), time.Now().UnixMilli()),
		ToolName:      toolName,
		ComponentName: componentName,
		Metadata: RequestMetadata{
			Additional: make(map[string]string),
		},
		Timing: Timing{
			ReceivedAt: time.Now(),
		},
		extensions: make(map[reflect.Type]any),
	}
}

// SetToolResult records the tool outcome.
func (c *Context) SetToolResult(success bool, responseSize *uint64) {
	c.ToolResult = &ToolResult{
		Success:      success,
		ResponseSize: responseSize,
	}
}

// SetError records a failure and marks any recorded tool result unsuccessful.
func (c *Context) SetError(message string) {
	c.Err = message
	if c.ToolResult != nil {
		c.ToolResult.Success = false
	}
}

// IsSuccess reports whether the tool completed successfully.
func (c *Context) IsSuccess() bool {
	return c.ToolResult != nil && c.ToolResult.Success
}

// requestSize is the extension slot for the argument payload size.
type requestSize uint64

// SetRequestSize records the argument payload size.
func (c *Context) SetRequestSize(size uint64) {
	SetExtension(c, requestSize(size))
}

// RequestSize returns the argument payload size, when recorded.
func (c *Context) RequestSize() *uint64 {
	if size, ok := GetExtension[requestSize](c); ok {
		value := uint64(size)
		return &value
	}
	return nil
}

// SetExtension stores a value in the context's type-keyed extension map.
func SetExtension[T any](c *Context, value T) {
	c.extensions[reflect.TypeOf(value)] = value
}

// GetExtension retrieves a value from the context's type-keyed extension map.
func GetExtension[T any](c *Context) (T, bool) {
	var zero T
	value, ok := c.extensions[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}
