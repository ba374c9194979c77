package redis_test

import (
	"context"
	"log"

	"github.com/caarlos0/env/v11"

	"github.com/platformkit/notifyhub/pkg/offline"
	"github.com/platformkit/notifyhub/pkg/ratelimit"
	"github.com/platformkit/notifyhub/pkg/redis"
)

func Example() {
	var cfg redis.Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	// The client backs the shared rate-limit store and the Redis offline
	// backlog; hand both to notifyhub.New via WithRateLimitStore and
	// WithOfflineStorage.
	store, err := ratelimit.NewRedisStore(client, "notifyhub")
	if err != nil {
		log.Fatal(err)
	}
	_ = store

	storage, err := offline.NewRedisStorage(client, "notifyhub")
	if err != nil {
		log.Fatal(err)
	}
	_ = storage

	healthy := redis.Healthcheck(client)
	if err := healthy(ctx); err != nil {
		log.Fatal(err)
	}
}
