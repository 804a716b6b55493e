// Package delivery defines the contract every transport entrypoint satisfies.
package delivery

import "context"

// Delivery is a long-running transport server (HTTP, worker, ...). Serve
// blocks until the server stops or fails.
type Delivery interface {
	Serve(ctx context.Context) error
}
