// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between the HTTP and websocket
// boundaries and makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Storage caps the time allowed for a single Record Store call issued on
// behalf of one request.
const Storage = 2 * time.Second
