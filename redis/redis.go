// Package redis provides Redis-backed dedup and frontier state shared by
// concurrent workers.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "sift"

// Open connects to the server at url (redis://host:port/db) and verifies
// the connection.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func key(topicID string, parts ...string) string {
	k := KeyPrefix + ":" + topicID
	for _, p := range parts {
		k += ":" + p
	}
	return k
}
