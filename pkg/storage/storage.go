package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested object does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is a minimal object store. Objects are addressed by slash separated
// keys and are always read and written whole.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Locator is implemented by storages whose objects live on the local
// filesystem.
type Locator interface {
	Locate(key string) string
}
