package engine

import (
	"fmt"
	"math/big"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MaxFactorial is the largest n for which Factorial is computed eagerly.
const MaxFactorial = 1 << 20

// ─────────────────────────────────────────────────────────────────────────────
// Backend registry
// ─────────────────────────────────────────────────────────────────────────────

// FactorialBackend computes exact factorials.
type FactorialBackend interface {
	// Name returns the identifier under which the backend is registered.
	Name() string
	// Factorial returns n!.
	Factorial(n uint64) *big.Int
}

// BackendFactory creates and caches factorial backends by name.
type BackendFactory struct {
	mu       sync.RWMutex
	creators map[string]func() FactorialBackend
	backends map[string]FactorialBackend
	active   string
}

// NewBackendFactory returns a factory holding the pure Go product-tree
// backend, which is also the initial active backend.
//
// Returns:
//   - *BackendFactory: An empty registry whose active backend is "tree".
func NewBackendFactory() *BackendFactory {
	f := &BackendFactory{
		creators: make(map[string]func() FactorialBackend),
		backends: make(map[string]FactorialBackend),
		active:   "tree",
	}
	f.creators["tree"] = func() FactorialBackend { return treeBackend{} }
	return f
}

// Register adds a backend creator under name.
//
// Parameters:
//   - name: The unique identifier for the backend.
//   - creator: A function that creates the backend on first use.
//
// Returns:
//   - error: An error if name is empty or creator is nil.
func (f *BackendFactory) Register(name string, creator func() FactorialBackend) error {
	if name == "" || creator == nil {
		return fmt.Errorf("invalid factorial backend registration: %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[name] = creator
	delete(f.backends, name)
	return nil
}

// Get returns the backend registered under name, creating it on first use.
//
// Parameters:
//   - name: The registered backend name.
//
// Returns:
//   - FactorialBackend: A new instance of the backend.
//   - error: An error if the name is unknown.
func (f *BackendFactory) Get(name string) (FactorialBackend, error) {
	f.mu.RLock()
	if b, ok := f.backends[name]; ok {
		f.mu.RUnlock()
		return b, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.backends[name]; ok {
		return b, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, fmt.Errorf("unknown factorial backend: %s", name)
	}
	b := creator()
	f.backends[name] = b
	return b, nil
}

// List returns the registered backend names in alphabetical order.
func (f *BackendFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Use makes name the backend used by Factorial.
//
// Parameters:
//   - name: The registered backend name.
//
// Returns:
//   - error: An error if the name is unknown.
func (f *BackendFactory) Use(name string) error {
	if _, err := f.Get(name); err != nil {
		return err
	}
	f.mu.Lock()
	f.active = name
	f.mu.Unlock()
	return nil
}

// Active returns the backend used by Factorial.
//
// Returns:
//   - FactorialBackend: The backend Factorial currently delegates to.
func (f *BackendFactory) Active() FactorialBackend {
	f.mu.RLock()
	name := f.active
	f.mu.RUnlock()
	b, err := f.Get(name)
	if err != nil {
		// active is only set after a successful Get.
		panic(err)
	}
	return b
}

var globalBackends = NewBackendFactory()

// FactorialBackends returns the process-wide backend factory.
func FactorialBackends() *BackendFactory { return globalBackends }

// RegisterFactorialBackend registers a backend in the process-wide factory.
//
// Parameters:
//   - name: The backend name.
//   - creator: Builds a backend instance.
//
// Returns:
//   - error: An error if the registration is invalid.
func RegisterFactorialBackend(name string, creator func() FactorialBackend) error {
	return globalBackends.Register(name, creator)
}

// Factorial returns n! using the active backend.
//
// Parameters:
//   - n: The argument, at most MaxFactorial.
//
// Returns:
//   - *big.Int: n! computed by the active backend.
func Factorial(n uint64) *big.Int {
	return globalBackends.Active().Factorial(n)
}

// ─────────────────────────────────────────────────────────────────────────────
// Product tree
// ─────────────────────────────────────────────────────────────────────────────

// leafSize is the range length multiplied sequentially at the tree leaves.
const leafSize = 32

type treeBackend struct{}

func (treeBackend) Name() string { return "tree" }

func (treeBackend) Factorial(n uint64) *big.Int {
	if n < 2 {
		return big.NewInt(1)
	}
	depth := 0
	for c := runtime.NumCPU(); c > 1; c >>= 1 {
		depth++
	}
	return productRange(2, n, depth, parallelThreshold())
}

// productRange returns lo*(lo+1)*...*hi. The two halves of ranges longer
// than threshold are multiplied concurrently while depth remains.
func productRange(lo, hi uint64, depth int, threshold uint64) *big.Int {
	if hi < lo {
		return big.NewInt(1)
	}
	if hi-lo < leafSize {
		z := new(big.Int).SetUint64(lo)
		t := new(big.Int)
		for i := lo + 1; i <= hi; i++ {
			z.Mul(z, t.SetUint64(i))
		}
		return z
	}
	mid := lo + (hi-lo)/2
	if depth <= 0 || hi-lo < threshold {
		left := productRange(lo, mid, 0, threshold)
		return left.Mul(left, productRange(mid+1, hi, 0, threshold))
	}
	var left *big.Int
	var g errgroup.Group
	g.Go(func() error {
		left = productRange(lo, mid, depth-1, threshold)
		return nil
	})
	right := productRange(mid+1, hi, depth-1, threshold)
	_ = g.Wait()
	return left.Mul(left, right)
}
