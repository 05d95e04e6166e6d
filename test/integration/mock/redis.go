package mock

import (
	"context"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var redisOnce sync.Once
var redisMock *Redis

// Redis bundles an in-process miniredis server with a client connected to it.
type Redis struct {
	Server *miniredis.Miniredis
	Client *redis.Client
}

// NewRedis starts the shared miniredis server on first use.
func NewRedis() *Redis {
	redisOnce.Do(func() {
		server, err := miniredis.Run()
		if err != nil {
			panic(err)
		}

		redisMock = &Redis{
			Server: server,
			Client: redis.NewClient(&redis.Options{
				Addr: server.Addr(),
			}),
		}
	})

	return redisMock
}

// Clear removes every key.
func (r *Redis) Clear() error {
	return r.Client.FlushAll(context.TODO()).Err()
}
