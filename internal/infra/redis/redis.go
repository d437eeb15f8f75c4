package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect はRedisに接続して *redis.Client を返す。
// クライアントは起動時に1つ作り、CartStoreへ参照で渡す（グローバルには置かない）。
func Connect(addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
