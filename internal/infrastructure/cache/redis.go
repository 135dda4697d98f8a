package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis connects and pings. Editing sessions and idempotency keys share
// the client.
func OpenRedis(o RedisOptions) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}
