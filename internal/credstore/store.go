// Package credstore persists the opaque bearer tokens across runs. It is a
// pure key-value layer: no token-shape validation, no expiry tracking beyond
// what the server enforces. Concurrent processes sharing one store follow
// last-writer-wins.
package credstore

import "context"

// ErrNotFound is returned by Get when the slot holds no value.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "credential not found" }

// Store is the durable token storage contract. Delete is idempotent.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
