package engine

import (
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultEpsilon is the numeric tolerance of a fresh context.
const DefaultEpsilon = 1e-12

// Context holds per-session evaluation state: numeric tolerance, variable
// bindings, the random source, the last parser diagnostic and the
// diagnostic log sink.
//
// A Context is safe for concurrent use, but computations running under the
// same context observe each other's bindings and random draws.
type Context struct {
	mu        sync.Mutex
	epsilon   float64
	vars      map[string]Gen
	rng       *rand.Rand
	lastParse *ParseError
	logger    zerolog.Logger
}

// NewContext returns a context with default epsilon, no bindings, a
// time-seeded random source and a silent logger.
func NewContext() *Context {
	return &Context{
		epsilon: DefaultEpsilon,
		vars:    make(map[string]Gen),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  zerolog.Nop(),
	}
}

var (
	globalOnce sync.Once
	global     *Context
)

// Global returns the process-wide default context.
func Global() *Context {
	globalOnce.Do(func() { global = NewContext() })
	return global
}

// Epsilon returns the current numeric tolerance.
func (c *Context) Epsilon() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epsilon
}

// SetEpsilon replaces the numeric tolerance.
func (c *Context) SetEpsilon(eps float64) {
	c.mu.Lock()
	c.epsilon = eps
	c.mu.Unlock()
}

// SetLogger replaces the diagnostic sink. zerolog.Nop() silences it.
func (c *Context) SetLogger(l zerolog.Logger) {
	c.mu.Lock()
	c.logger = l
	c.mu.Unlock()
}

// Logger returns the diagnostic sink.
func (c *Context) Logger() zerolog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// debug starts a debug event on the diagnostic sink. A nil context yields
// a nil event, on which every zerolog method is a no-op.
func (c *Context) debug() *zerolog.Event {
	if c == nil {
		return nil
	}
	l := c.Logger()
	return l.Debug()
}

// Seed reseeds the context's random source.
func (c *Context) Seed(seed int64) {
	c.mu.Lock()
	c.rng = rand.New(rand.NewSource(seed))
	c.mu.Unlock()
}

// Bind assigns value to name.
func (c *Context) Bind(name string, value Gen) {
	c.mu.Lock()
	c.vars[name] = value
	c.mu.Unlock()
}

// Lookup returns the value bound to name.
func (c *Context) Lookup(name string) (Gen, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.vars[name]
	return g, ok
}

// Unbind removes every binding.
func (c *Context) Unbind() {
	c.mu.Lock()
	c.vars = make(map[string]Gen)
	c.mu.Unlock()
}

// LastParseError returns the diagnostic of the most recent failed parse
// under this context, or nil.
func (c *Context) LastParseError() *ParseError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastParse
}

func (c *Context) setParseError(e *ParseError) {
	c.mu.Lock()
	c.lastParse = e
	c.mu.Unlock()
}

// randBelow draws uniformly from [0, n). n must be positive.
func (c *Context) randBelow(n *big.Int) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n.IsInt64() {
		return big.NewInt(c.rng.Int63n(n.Int64()))
	}
	// Rejection sampling on the bit length of n.
	bits := n.BitLen()
	buf := make([]byte, (bits+7)/8)
	r := new(big.Int)
	for {
		c.rng.Read(buf)
		if extra := uint(len(buf)*8 - bits); extra > 0 {
			buf[0] &= byte(0xff >> extra)
		}
		if r.SetBytes(buf).Cmp(n) < 0 {
			return r
		}
	}
}

// ReleaseGlobals drops process-wide caches. It is meant for teardown; the
// caches are rebuilt on demand if the engine is used again.
func ReleaseGlobals() {
	resetPrimeTable()
}
