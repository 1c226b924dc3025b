// Package middleware provides the pluggable pre/post hook pipeline run
// around each tool invocation.
package middleware

import (
	"context"
	"fmt"
)

// Error is a middleware failure. Non-fatal errors are logged and swallowed
// by the pipeline; fatal errors abort the request chain where they occur.
type Error struct {
	Message string
	Fatal   bool
}

// NewError creates a non-fatal middleware error.
func NewError(message string) *Error {
	return &Error{Message: message}
}

// NewFatalError creates a fatal middleware error.
func NewFatalError(message string) *Error {
	return &Error{Message: message, Fatal: true}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("middleware error: %s", e.Message)
}

// Middleware is one stage of the invocation pipeline.
type Middleware interface {
	// PreProcess runs before the tool is dispatched.
	PreProcess(ctx context.Context, mc *Context) *Error

	// PostProcess runs after the tool returns, before the response is written.
	PostProcess(ctx context.Context, mc *Context) *Error

	// Shutdown is called once at process teardown.
	Shutdown(ctx context.Context) *Error
}
