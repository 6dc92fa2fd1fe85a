package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no blob is persisted for the visitor.
var ErrNotFound = errors.New("session: not found")

// Store is the durable home of session blobs, one key per visitor id. It is
// written only on login, cleared only on logout and read only while
// restoring; nothing else touches it.
type Store interface {
	Save(ctx context.Context, sid string, blob []byte, ttl time.Duration) error
	Load(ctx context.Context, sid string) ([]byte, error)
	// Delete is idempotent; deleting an absent key is not an error.
	Delete(ctx context.Context, sid string) error
	Ping(ctx context.Context) error
}
