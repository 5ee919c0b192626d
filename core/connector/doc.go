// Package connector provides the resilient wrapper shared by every outbound integration.
//
// A Connector bundles three policies around a single external system:
//
//  1. RateLimiter: a token bucket budget (MaxRequests per Window) plus an optional
//     minimum spacing between consecutive requests. It only ever delays a caller.
//  2. RetryPolicy: exponential backoff for transient failures (network errors,
//     timeouts, HTTP 429 and 5xx). Anything else fails on the first attempt.
//  3. Timeout: every attempt runs under its own deadline.
//
// Connectors also track latency and outcome of the operations they execute and expose
// a HealthCheck that runs a caller-supplied, non-mutating probe.
//
// # Clock
//
// All waiting goes through the Clock interface so pacing and backoff can be tested
// without wall-clock delays. Production code uses SystemClock.
//
// # Usage
//
//	c := connector.New(connector.Config{
//	    Name:       "erp",
//	    RateLimit:  connector.RateLimit{MaxRequests: 300, Window: 5 * time.Minute},
//	    Retry:      connector.RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
//	    Timeout:    30 * time.Second,
//	}, client.Probe)
//
//	err := c.Execute(ctx, "fetch_stock_page", func(ctx context.Context) error {
//	    return client.fetchPage(ctx, page)
//	})
package connector
