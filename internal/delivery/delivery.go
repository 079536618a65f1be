// Package delivery holds the transports that expose the attribute schema engine.
package delivery

import "context"

// Delivery is a long-running transport started by the fx application.
type Delivery interface {
	// Serve blocks until the transport stops or fails.
	Serve(ctx context.Context) error
}
