// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, typed attribute constructors
// for the notification domain, and transparent injection of values stored in
// context.Context.
//
// The package standardises structured logging across the delivery engine by
// exposing a single factory - New - that creates a *slog.Logger configured by
// a set of Option functions:
//
//	log := logger.New(
//	    logger.WithProduction("notifyhub"),
//	    logger.WithContextValue("actor_id", actorContextKey),
//	)
//	log.LogAttrs(ctx, slog.LevelWarn, "message rejected",
//	    logger.ActorID(actor),
//	    logger.Category("admin"),
//	    logger.Reason("unauthorized"),
//	)
//
// Attribute constructors (ActorID, MessageID, Category, Namespace, Reason,
// RiskScore, ...) keep log keys consistent across packages so audit queries
// do not have to account for per-call-site spelling.
package logger
