// Package server holds the HTTP server configuration.
//
// The serve command builds the Fiber app from it; timeouts are expressed in
// seconds so they can be set from the environment (SERVER_WRITE_TIMEOUT_SECONDS).
package server
