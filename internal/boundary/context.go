package boundary

import (
	"github.com/rs/zerolog"

	"github.com/agbru/casbridge/internal/engine"
)

// InitGlobalContext silences the process-wide default context and makes it
// reachable as GlobalContext. Calling it again only resets the log sink.
func InitGlobalContext() {
	g := engine.Global()
	g.SetLogger(zerolog.Nop())
	contexts.putAt(uint64(GlobalContext), g)
}

// NewContext allocates a fresh context with a silent log sink. The caller
// owns the handle and releases it with FreeContext.
func NewContext() ContextHandle {
	c := engine.NewContext()
	c.SetLogger(zerolog.Nop())
	return ContextHandle(contexts.put(c))
}

// FreeContext releases a context obtained from NewContext. Freeing the
// global context or an unknown handle does nothing.
func FreeContext(h ContextHandle) {
	if h == GlobalContext {
		return
	}
	contexts.remove(uint64(h))
}

// ReleaseGlobals drops the engine's process-wide caches. It is meant for
// teardown, once no call is in flight.
func ReleaseGlobals() {
	engine.ReleaseGlobals()
}

// SetEpsilon sets the numeric tolerance of the context. Unknown handles are
// ignored.
func SetEpsilon(eps float64, h ContextHandle) {
	if c, err := lookupContext(h); err == nil {
		c.SetEpsilon(eps)
	}
}

// Epsilon reports the numeric tolerance of the context, or zero for an
// unknown handle.
func Epsilon(h ContextHandle) float64 {
	if c, err := lookupContext(h); err == nil {
		return c.Epsilon()
	}
	return 0
}

// SeedContext reseeds the random source used by Rand under the context.
func SeedContext(seed int64, h ContextHandle) {
	if c, err := lookupContext(h); err == nil {
		c.Seed(seed)
	}
}

// SetContextLogger redirects the diagnostic sink of the context, which is
// silent by default.
func SetContextLogger(l zerolog.Logger, h ContextHandle) {
	if c, err := lookupContext(h); err == nil {
		c.SetLogger(l)
	}
}
