// Package cas is the Go host API over the casbridge algebra engine.
//
// Values and contexts are owned objects: release them with Free when done,
// or let the garbage collector do it. Every computation returns a fresh
// Value together with an error whose message is the engine's own text.
//
//	cas.Init()
//	ctx := cas.NewContext()
//	defer ctx.Free()
//	v, err := ctx.Eval("factor(x^2-1)")
package cas

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/agbru/casbridge/internal/boundary"
)

// Context is an evaluation context holding bindings, the numeric epsilon and
// a random source. A Context should be used by one goroutine at a time.
type Context struct {
	h boundary.ContextHandle
}

var (
	initOnce sync.Once
	global   = &Context{h: boundary.GlobalContext}
)

// Init prepares the process-wide default context. It must run before
// Global is used; calling it again has no effect.
func Init() {
	initOnce.Do(boundary.InitGlobalContext)
}

// Global returns the process-wide default context. Its Free is a no-op.
func Global() *Context { return global }

// SetLogger sends debug diagnostics of failed calls to l. Nothing is logged
// until it is called.
func SetLogger(l zerolog.Logger) { boundary.SetLogger(l) }

// Teardown drops the engine's process-wide caches. Call it at exit, once no
// computation is running.
func Teardown() { boundary.ReleaseGlobals() }

// NewContext returns a fresh context with default settings.
func NewContext() *Context {
	c := &Context{h: boundary.NewContext()}
	runtime.SetFinalizer(c, (*Context).Free)
	return c
}

// Free releases the context. It is safe to call more than once.
func (c *Context) Free() {
	if c == nil || c == global || c.h == 0 {
		return
	}
	boundary.FreeContext(c.h)
	c.h = 0
	runtime.SetFinalizer(c, nil)
}

func (c *Context) handle() (boundary.ContextHandle, error) {
	if c == nil || c.h == 0 {
		return 0, ErrFreed
	}
	return c.h, nil
}

// SetEpsilon sets the tolerance used by IsZero and Float2Rational.
func (c *Context) SetEpsilon(eps float64) {
	if h, err := c.handle(); err == nil {
		boundary.SetEpsilon(eps, h)
		runtime.KeepAlive(c)
	}
}

// Epsilon returns the context's tolerance.
func (c *Context) Epsilon() float64 {
	if h, err := c.handle(); err == nil {
		eps := boundary.Epsilon(h)
		runtime.KeepAlive(c)
		return eps
	}
	return 0
}

// Seed reseeds the context's random source.
func (c *Context) Seed(seed int64) {
	if h, err := c.handle(); err == nil {
		boundary.SeedContext(seed, h)
		runtime.KeepAlive(c)
	}
}

// Eval parses and evaluates text under the context.
func (c *Context) Eval(text string) (*Value, error) {
	h, err := c.handle()
	if err != nil {
		return nil, err
	}
	out := boundary.Allocate()
	err = boundary.FromText(text, h, out)
	runtime.KeepAlive(c)
	if err != nil {
		boundary.Free(out)
		return nil, wrap("Eval", err)
	}
	return newValue(out), nil
}

// EvalContext is Eval wrapped in a tracing span. The evaluation itself is
// not interruptible; use RunWithTimeout to bound its latency.
func (c *Context) EvalContext(ctx context.Context, text string) (*Value, error) {
	_, span := otel.Tracer("casbridge").Start(ctx, "Eval")
	defer span.End()
	span.SetAttributes(attribute.Int("expr.length", len(text)))

	v, err := c.Eval(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("result.type", int(v.Type())))
	return v, nil
}

// IsZero reports whether v is zero under the context's epsilon.
func (c *Context) IsZero(v *Value) (bool, error) {
	h, err := c.handle()
	if err != nil {
		return false, err
	}
	vh, err := v.handle()
	if err != nil {
		return false, err
	}
	var z bool
	err = boundary.IsZero(vh, &z, h)
	runtime.KeepAlive(c)
	runtime.KeepAlive(v)
	if err != nil {
		return false, wrap("IsZero", err)
	}
	return z, nil
}
