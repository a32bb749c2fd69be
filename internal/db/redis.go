package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenRedis connects to Redis and verifies the connection with a ping. The
// cache layer treats later failures as misses, but the device registry also
// lives here, so startup insists on a reachable server.
func OpenRedis(ctx context.Context, addr, password string, dbIndex int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           dbIndex,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
