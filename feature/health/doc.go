// Package health exposes connectivity of each store's ERP and storefront
// connectors and a schema check of the run-log table.
//
// Endpoints:
//   - GET /health          every store
//   - GET /health/:store   one store
//   - GET /health/runlog   run-log columns and archive reachability
//
// A store reported as healthy is reachable with valid credentials. Nothing here
// says how recent the synced data is.
package health
