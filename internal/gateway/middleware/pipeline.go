package middleware

import (
	"context"
	"log/slog"
	"time"
)

// now is stubbed in tests.
var now = time.Now

// Pipeline runs an ordered middleware chain around each tool invocation.
// Non-fatal errors are logged and swallowed; a fatal error aborts the chain
// at the point it occurs.
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add appends a middleware to the chain.
func (p *Pipeline) Add(m Middleware) {
	p.middlewares = append(p.middlewares, m)
}

// Len returns the number of middlewares in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// PreProcess invokes every middleware's PreProcess in order.
func (p *Pipeline) PreProcess(ctx context.Context, mc *Context) *Error {
	mc.Timing.PreStart = now()
	defer func() { mc.Timing.PreEnd = now() }()

	for _, m := range p.middlewares {
		if err := m.PreProcess(ctx, mc); err != nil {
			slog.Warn("middleware pre_process error", "error", err.Message, "fatal", err.Fatal)
			if err.Fatal {
				return err
			}
		}
	}
	return nil
}

// PostProcess invokes every middleware's PostProcess in order.
func (p *Pipeline) PostProcess(ctx context.Context, mc *Context) *Error {
	mc.Timing.PostStart = now()
	defer func() { mc.Timing.PostEnd = now() }()

	for _, m := range p.middlewares {
		if err := m.PostProcess(ctx, mc); err != nil {
			slog.Warn("middleware post_process error", "error", err.Message, "fatal", err.Fatal)
			if err.Fatal {
				return err
			}
		}
	}
	return nil
}

// Shutdown invokes every middleware's Shutdown. Errors are logged only;
// teardown always proceeds through the full chain.
func (p *Pipeline) Shutdown(ctx context.Context) {
	for _, m := range p.middlewares {
		if err := m.Shutdown(ctx); err != nil {
			slog.Warn("middleware shutdown error", "error", err.Message)
		}
	}
}
