// Package notifyhub is a role-aware, real-time notification delivery
// engine. A single Submit call runs a message through the whole pipeline:
// structural build, content screening, tiered rate limiting, abuse
// scoring, authorization, and fan-out to live connections or the offline
// backlog.
//
// # Pipeline
//
// Submit is synchronous and cheap; everything slow happens behind the
// delivery hub's per-connection buffers. The stages run in a fixed order
// and each rejection carries a reason code in the Receipt:
//
//  1. notification.Build screens structure (CodeMalformed).
//  2. pipeline.Validate screens content and serialization safety
//     (CodeInvalid, CodeSerializationFailed).
//  3. The per-IP ceiling, then the role and priority tier, are checked
//     against the sliding-window store (CodeRateLimited with a
//     retry-after hint).
//  4. The abuse detector scores the event; suppressed actors are dropped
//     silently (CodeSuppressed).
//  5. authz.Authorize resolves the target namespaces (CodeUnauthorized).
//  6. The hub delivers to live members or queues the message offline.
//
// # Usage
//
// With no options the engine runs fully in-memory:
//
//	engine, err := notifyhub.New()
//	if err != nil {
//	    panic(err)
//	}
//	defer engine.Close()
//
//	receipt := engine.Submit(ctx, notifyhub.SubmitInput{
//	    Type:     notification.TypeInfo,
//	    Category: notification.CategoryUser,
//	    Priority: notification.PriorityNormal,
//	    Title:    "Build finished",
//	    Body:     "Your build completed successfully.",
//	    Scope:    notification.UserScope("u1"),
//	}, notifyhub.Context{UserID: "u1", Role: authz.RoleUser, IP: "203.0.113.10"})
//
// Mount the WebSocket transport over the hub:
//
//	handler, err := ws.NewHandler(engine.Hub(), authenticate)
//	r := chi.NewRouter()
//	r.Mount("/ws", handler.Routes())
//
// For multi-instance deployments swap the in-memory backends for the
// shared ones:
//
//	store, err := ratelimit.NewRedisStore(client, "notifyhub")
//	if err != nil {
//	    panic(err)
//	}
//	storage, err := offline.NewPostgresStorage(ctx, pool)
//	if err != nil {
//	    panic(err)
//	}
//	engine, err := notifyhub.New(
//	    notifyhub.WithRateLimitStore(store),
//	    notifyhub.WithOfflineStorage(storage),
//	)
//
// Deployment tunables load from the environment through Config and
// pkg/config.
package notifyhub
