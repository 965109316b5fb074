// Package delivery defines the entry-point contract every transport
// implementation (HTTP, workers) satisfies.
package delivery

import "context"

// Delivery is a server that can be started by the application runtime.
type Delivery interface {
	// Serve blocks, running the server until it fails or is shut down.
	Serve(ctx context.Context) error
}
