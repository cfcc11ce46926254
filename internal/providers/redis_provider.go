// Package providers builds the external clients the application wires
// together.
package providers

import (
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedisProvider returns the shared client backing the record store
// and the login rate limiter.
func NewRedisProvider(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 3 * time.Second,
	})
}
