package connector

import (
	"context"
	"time"
)

const probeOperation = "health_check"

// Status is the coarse health of a connector.
type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Health is the last observed connectivity of a connector.
// It says nothing about the freshness of the data behind it.
type Health struct {
	Name          string    `json:"name"`
	Status        Status    `json:"status"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`
	LatencyMs     int64     `json:"latencyMs"`
	Error         string    `json:"error,omitempty"`
}

// HealthCheck runs the probe through Execute and refreshes the stored health.
// Concurrent calls share a single probe, which is detached from the caller's
// cancellation and bounded by the connector timeout instead.
func (c *Connector) HealthCheck(ctx context.Context) Health {
	v, _, _ := c.healthGroup.Do(probeOperation, func() (interface{}, error) {
		return c.check(context.WithoutCancel(ctx)), nil
	})
	return v.(Health)
}

// LastHealth returns the health recorded by the most recent HealthCheck.
func (c *Connector) LastHealth() Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

func (c *Connector) check(ctx context.Context) Health {
	start := c.clock.Now()

	var err error
	if c.probe != nil {
		err = c.Execute(ctx, probeOperation, func(ctx context.Context) error {
			return c.probe(ctx)
		})
	}
	latency := c.clock.Now().Sub(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	h := Health{
		Name:          c.cfg.Name,
		LastCheckedAt: c.clock.Now(),
		LatencyMs:     latency.Milliseconds(),
	}

	switch {
	case err != nil:
		h.Status = StatusDown
		h.Error = err.Error()
	case latency > c.cfg.DegradedLatency || c.lastFailed:
		h.Status = StatusDegraded
	default:
		h.Status = StatusHealthy
	}

	c.health = h
	return h
}
