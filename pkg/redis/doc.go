// Package redis provides the Redis bootstrap shared by the distributed
// rate-limit store and the Redis-backed offline storage.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the connection using the supplied
//     configuration so the hub survives a Redis that starts late.
//   - Healthcheck helpers to integrate Redis into liveness and
//     readiness probes.
//
// Configuration is described by the Config struct whose fields can be
// populated from environment variables via github.com/caarlos0/env.
//
// # Usage
//
//	var cfg redis.Config
//	if err := env.Parse(&cfg); err != nil {
//	    panic(err)
//	}
//
//	ctx := context.Background()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    panic(err)
//	}
//	defer client.Close()
//
//	store, err := ratelimit.NewRedisStore(client, "notifyhub")
//	if err != nil {
//	    panic(err)
//	}
//	engine, err := notifyhub.New(notifyhub.WithRateLimitStore(store))
//
// # Errors
//
// The package defines sentinel errors (e.g. ErrRedisNotReady) that wrap
// the underlying go-redis errors using errors.Join, keeping them easy to
// compare and unwrap.
package redis
