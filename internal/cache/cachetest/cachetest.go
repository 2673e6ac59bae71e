// Package cachetest runs caches backed by an in-process Redis for tests.
package cachetest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/openbook/hub/internal/cache"
)

// New returns a cache on a fresh miniredis server, both closed at test cleanup
func New(t testing.TB) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return cache.NewWithClient(client), server
}
