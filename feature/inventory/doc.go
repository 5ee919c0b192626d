// Package inventory exposes the ERP to storefront inventory sync.
//
// A Registry builds one Pipeline per configured store (ERP client, storefront
// client and reconciliation engine). The Service resolves a store, takes its run
// lock, runs the engine, records the run log and optionally archives a snapshot.
// The Handler serves POST /sync, GET /sync and GET /sync/runs.
//
// A run with failed writes is still a success from the caller's point of view:
// the response is 200 with stats.errors > 0 and status partial. Fetch failures
// and configuration errors are returned as {"error": "..."} with a non-2xx status.
package inventory
