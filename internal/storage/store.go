package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// ErrNotFound is returned when a key holds no value
var ErrNotFound = errors.New("key not found")

// KeyValueStore persists opaque blobs per key
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Counter is implemented by stores that can increment a counter atomically
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// Keys builds namespaced keys, e.g. garden:memory:<user>
type Keys struct {
	Prefix string
}

func (k Keys) join(parts ...string) string {
	if k.Prefix != "" {
		parts = append([]string{k.Prefix}, parts...)
	}
	return strings.Join(parts, ":")
}

// Memory is the key of a user's garden memory blob
func (k Keys) Memory(userID string) string { return k.join("memory", userID) }

// Knowledge is the key of a user's taught knowledge entries
func (k Keys) Knowledge(userID string) string { return k.join("knowledge", userID) }

// GuestCounter is the key of a guest's interaction count
func (k Keys) GuestCounter(userID string) string { return k.join("guest", userID, "interactions") }

// SyncRecord is the key of a mirrored teaching record
func (k Keys) SyncRecord(userID, id string) string { return k.join("sync", userID, id) }

// GetJSON loads key into dest. A missing key returns ErrNotFound.
func GetJSON(ctx context.Context, kv KeyValueStore, key string, dest any) error {
	data, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// SetJSON stores value under key
func SetJSON(ctx context.Context, kv KeyValueStore, key string, value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return kv.Set(ctx, key, data)
}

// Open returns the KeyValueStore for backend: memory, redis or sqlite
func Open(ctx context.Context, backend, redisURL, sqlitePath string, ttl time.Duration) (KeyValueStore, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(ttl), nil
	case "redis":
		return NewRedisStore(ctx, redisURL, ttl)
	case "sqlite":
		return NewSQLiteStore(ctx, sqlitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
