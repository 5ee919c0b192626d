package connector

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultDegradedLatency is the probe latency above which a reachable
// connector is reported as degraded.
const DefaultDegradedLatency = 2 * time.Second

// ProbeFunc is a minimal, non-mutating call used to verify reachability and
// credentials (e.g. "list 1 item").
type ProbeFunc func(ctx context.Context) error

// Config holds the resiliency settings of a connector.
type Config struct {
	// Name identifies the external system (e.g. "erp", "storefront.write").
	Name string
	// RateLimit bounds the outbound request rate.
	RateLimit RateLimit
	// Shared is a limiter also used by other connectors to the same system.
	// Every attempt acquires it before the connector's own limiter.
	Shared *RateLimiter
	// Retry controls backoff for transient failures.
	Retry RetryPolicy
	// Timeout is applied to every attempt. Zero disables it.
	Timeout time.Duration
	// DegradedLatency is the probe latency threshold for the degraded status.
	DegradedLatency time.Duration
	// Clock drives pacing and backoff. Defaults to SystemClock.
	Clock Clock
}

// OperationStats holds outcome counters for one operation name.
type OperationStats struct {
	Calls         int64  `json:"calls"`
	Failures      int64  `json:"failures"`
	LastLatencyMs int64  `json:"lastLatencyMs"`
	LastError     string `json:"lastError,omitempty"`
}

// Connector wraps calls to one external system with rate limiting, retries and
// per-attempt timeouts, and tracks their latency for health reporting.
type Connector struct {
	cfg     Config
	limiter *RateLimiter
	clock   Clock
	probe   ProbeFunc

	mu          sync.Mutex
	stats       map[string]*OperationStats
	lastFailed  bool
	health      Health
	healthGroup singleflight.Group
}

// New creates a connector. probe may be nil, in which case HealthCheck reports
// the connector as healthy based on its recorded operations only.
func New(cfg Config, probe ProbeFunc) *Connector {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.DegradedLatency <= 0 {
		cfg.DegradedLatency = DefaultDegradedLatency
	}

	return &Connector{
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateLimit, clock),
		clock:   clock,
		probe:   probe,
		stats:   make(map[string]*OperationStats),
		health:  Health{Name: cfg.Name, Status: StatusUnknown},
	}
}

// Name returns the connector name.
func (c *Connector) Name() string {
	return c.cfg.Name
}

// Execute runs fn under the connector's policies. Every attempt first acquires a
// rate limit slot and then runs with the configured timeout; transient failures
// are retried. The returned error is the last error of fn, unmodified.
func (c *Connector) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := c.clock.Now()

	err := c.cfg.Retry.Do(ctx, c.clock, func(ctx context.Context) error {
		if err := c.cfg.Shared.Acquire(ctx); err != nil {
			return err
		}
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}
		return c.attempt(ctx, fn)
	})

	c.record(operation, c.clock.Now().Sub(start), err)
	return err
}

// attempt runs fn once with the per-attempt timeout.
func (c *Connector) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.cfg.Timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	return fn(attemptCtx)
}

func (c *Connector) record(operation string, latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stats[operation]
	if !ok {
		s = &OperationStats{}
		c.stats[operation] = s
	}
	s.Calls++
	s.LastLatencyMs = latency.Milliseconds()
	if err != nil {
		s.Failures++
		s.LastError = err.Error()
	} else {
		s.LastError = ""
	}

	if operation != probeOperation {
		c.lastFailed = err != nil
	}
}

// Stats returns a copy of the per-operation counters.
func (c *Connector) Stats() map[string]OperationStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]OperationStats, len(c.stats))
	for name, s := range c.stats {
		out[name] = *s
	}
	return out
}
