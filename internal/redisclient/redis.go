// Package redisclient establishes the process-wide Redis connection,
// adapted from the teacher's internal/redis/redis.go (same Connect
// shape, same go-redis/v9 client).
package redisclient

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect establishes a connection to Redis and verifies it with a ping.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
