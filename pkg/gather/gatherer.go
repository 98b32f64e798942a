package gather

import (
	"context"
	"sync"

	"github.com/odvcencio/beacon/pkg/config"
)

// Page is the shared browser page handle. The session core passes it through
// to the gatherers untouched; only the gatherers mutate page state.
type Page interface {
	// ID identifies the underlying page target, for logs and traces.
	ID() string
}

// Requestor is the capability a navigation gatherer uses to cause the
// navigation. It is either a URL the gatherer drives the page to itself, or
// a trigger function it must call once instrumentation is armed.
type Requestor interface {
	isRequestor()
}

// URLRequestor tells the gatherer to navigate the page to this URL.
type URLRequestor string

func (URLRequestor) isRequestor() {}

func (r URLRequestor) String() string { return string(r) }

// TriggerRequestor is called by the gatherer at the exact moment it is ready
// for the triggering action. The function blocks until the action has been
// performed (or the context ends) and returns its outcome.
type TriggerRequestor func(ctx context.Context) error

func (TriggerRequestor) isRequestor() {}

// RunOptions carries the configuration inputs for one gather invocation.
type RunOptions struct {
	Config *config.Config
	Flags  *config.Flags
}

// RunnerOptions pairs the resolved configuration a step was gathered under
// with the computation cache built during gathering. Both are required to
// score the step's artifacts without re-deriving shared computations.
type RunnerOptions struct {
	Config        *config.ResolvedConfig
	ComputedCache *ComputedCache
}

// Result is the output of a completed gather invocation.
type Result struct {
	Artifacts     *Artifacts
	RunnerOptions *RunnerOptions
}

// TimespanHandle represents a capture in progress.
type TimespanHandle interface {
	// EndTimespanGather stops the capture and returns its result.
	EndTimespanGather(ctx context.Context) (*Result, error)
}

// Gatherer collects page artifacts for each gather mode.
type Gatherer interface {
	// RunNavigation performs a full page-load gather. It fails if the
	// requestor itself fails.
	RunNavigation(ctx context.Context, page Page, requestor Requestor, opts RunOptions) (*Result, error)
	// RunTimespan begins a time-windowed capture and returns a handle that
	// ends it.
	RunTimespan(ctx context.Context, page Page, opts RunOptions) (TimespanHandle, error)
	// RunSnapshot captures the page state at a single point in time.
	RunSnapshot(ctx context.Context, page Page, opts RunOptions) (*Result, error)
}

// ConfigInitializer normalizes raw configuration for a gather mode. The
// session core uses it only to reconstruct runner options for steps whose
// recorded options are no longer available.
type ConfigInitializer interface {
	InitializeConfig(ctx context.Context, mode Mode, cfg *config.Config, flags *config.Flags) (*config.ResolvedConfig, error)
}

// ComputedCache memoizes derived computations for a single step. A cache is
// only meaningful for the page context that produced it, which is why
// reconstruction always starts from a fresh one.
type ComputedCache struct {
	mu      sync.Mutex
	entries map[string]any
}

// NewComputedCache returns an empty cache.
func NewComputedCache() *ComputedCache {
	return &ComputedCache{entries: make(map[string]any)}
}

// Get returns the cached value for key, if any.
func (c *ComputedCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a value under key, replacing any previous entry.
func (c *ComputedCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Len reports the number of cached entries.
func (c *ComputedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
