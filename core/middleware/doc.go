// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - RayID: assigns a Request ID (RayID) to every incoming request, storing it in the
//     context locals and the X-Ray-ID response header for tracing.
//   - Logging: logs each request with its RayID.
package middleware
