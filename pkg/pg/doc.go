// Package pg bootstraps the PostgreSQL layer behind the durable offline
// storage, using the pgx/v5 driver.
//
// It exposes three cooperating building blocks:
//
//   - Config: a declarative struct whose fields are populated from
//     environment variables via github.com/caarlos0/env. It controls
//     connection pool limits and retry cadence.
//
//   - Connect: opens a *pgxpool.Pool based on Config, retrying with
//     backoff until the database becomes available.
//
//   - Healthcheck: a func(context.Context) error probe suitable for
//     liveness and readiness endpoints.
//
// # Usage
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//	    panic(err)
//	}
//
//	ctx := context.Background()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    panic(err)
//	}
//	defer pool.Close()
//
//	storage, err := offline.NewPostgresStorage(ctx, pool)
//	if err != nil {
//	    panic(err)
//	}
//	engine, err := notifyhub.New(notifyhub.WithOfflineStorage(storage))
//
// # Error Handling
//
// Helpers such as [IsDuplicateKeyError] and [IsForeignKeyViolationError]
// unwrap *pgconn.PgError values so callers can classify failures without
// matching SQLSTATE codes by hand.
package pg
