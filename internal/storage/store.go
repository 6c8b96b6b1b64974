// Package storage provides the durable key-value stores interview state is
// persisted to. Every backend offers the same synchronous get/set/remove
// contract, the server-side counterpart of browser local storage.
package storage

import (
	"context"
	"fmt"
)

// Store is a durable string key-value store
type Store interface {
	// Get returns the value for key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend
type Options struct {
	Backend string

	Dir string // file

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	PostgresDSN string
}

// Open creates the configured backend
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(opts.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, RedisConfig{
			Address:  opts.RedisAddress,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
	case BackendPostgres:
		return NewPostgresStore(ctx, PostgresConfig{DSN: opts.PostgresDSN})
	default:
		return nil, fmt.Errorf("unknown store backend: %q", opts.Backend)
	}
}

// prefixed namespaces all keys of an underlying store
type prefixed struct {
	Store
	prefix string
}

// Prefixed returns a view of store whose keys are transparently prefixed.
// Closing the view does not close the underlying store.
func Prefixed(store Store, prefix string) Store {
	return &prefixed{Store: store, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.Store.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.Store.Remove(ctx, p.prefix+key)
}

func (p *prefixed) Close() error {
	return nil
}
