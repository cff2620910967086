package auth

import "context"

// Store is the pluggable persistence boundary for session state. Adapters
// exist for memory, a JSON file, and SQLite; hosts with other needs (browser
// local storage behind wasm, keyrings) implement the same five operations.
//
// Get returns (nil, nil) for an absent key. Implementations must be safe for
// sequential reuse; the session layer never interleaves writes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	// Available reports whether the backing medium is usable in this host
	// environment.
	Available() bool
}
