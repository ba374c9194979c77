package notifyhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/platformkit/notifyhub/pkg/abuse"
	"github.com/platformkit/notifyhub/pkg/authz"
	"github.com/platformkit/notifyhub/pkg/delivery"
	"github.com/platformkit/notifyhub/pkg/fingerprint"
	"github.com/platformkit/notifyhub/pkg/logger"
	"github.com/platformkit/notifyhub/pkg/notification"
	"github.com/platformkit/notifyhub/pkg/offline"
	"github.com/platformkit/notifyhub/pkg/pipeline"
	"github.com/platformkit/notifyhub/pkg/ratelimit"
)

// Context identifies the authenticated producer behind a Submit call.
type Context struct {
	UserID    string
	Role      authz.Role
	SessionID string
	IP        string
	UserAgent string
}

// actorID picks the rate/abuse accounting key: the user id when
// authenticated, the source IP otherwise.
func (c Context) actorID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.IP
}

// SubmitInput carries the producer-supplied message fields.
type SubmitInput struct {
	Type      notification.Type
	Category  notification.Category
	Priority  notification.Priority
	Title     string
	Body      string
	Data      map[string]any
	ActionURL string
	Scope     notification.Scope
}

// Engine wires the full submission pipeline: structural build, content
// validation, rate limiting, abuse scoring, authorization, and delivery.
// Submit is synchronous from the producer's perspective; actual transport
// writes happen asynchronously behind the hub's per-connection buffers.
type Engine struct {
	tiers ratelimit.Tiers

	store     ratelimit.Store
	limiterMu sync.Mutex
	limiters  map[time.Duration]*ratelimit.SlidingWindow
	burst     *ratelimit.BurstDetector
	detector  *abuse.Detector
	hub       *delivery.Hub

	// ownedStore and ownedOffline are set only when the engine created the
	// default in-memory backends and is responsible for stopping their
	// cleanup loops.
	ownedStore   *ratelimit.MemoryStore
	ownedOffline *offline.MemoryStorage

	log *slog.Logger
	now func() time.Time

	closeOnce sync.Once
}

// New creates an engine. With no options it runs fully in-memory: sharded
// rate-limit store, in-memory offline storage, default tiers and abuse
// thresholds.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		tiers:    cfg.tiers,
		store:    cfg.store,
		limiters: make(map[time.Duration]*ratelimit.SlidingWindow),
		log:      cfg.log,
		now:      cfg.now,
	}

	if e.store == nil {
		owned := ratelimit.NewMemoryStore()
		e.store = owned
		e.ownedStore = owned
	}

	offlineStore := cfg.offline
	if offlineStore == nil {
		owned := offline.NewMemoryStorage()
		offlineStore = owned
		e.ownedOffline = owned
	}

	hub, err := delivery.NewHub(offlineStore,
		delivery.WithBufferSize(cfg.bufferSize),
		delivery.WithOfflineTTL(cfg.offlineTTL),
		delivery.WithLogger(cfg.log),
		delivery.WithHubClock(cfg.now),
	)
	if err != nil {
		return nil, err
	}
	e.hub = hub

	e.burst = ratelimit.NewBurstDetector(cfg.burstRate, cfg.burstAllowance,
		ratelimit.WithBurstClock(cfg.now))

	e.detector = abuse.New(
		abuse.WithHalfLife(cfg.abuseHalfLife),
		abuse.WithSuppressionThreshold(cfg.suppressionThreshold),
		abuse.WithSuppressionTTL(cfg.suppressionTTL),
		abuse.WithLogger(cfg.log),
		abuse.WithDetectorClock(cfg.now),
		abuse.WithAlertFunc(e.alertSuppression),
		abuse.WithRevokeFunc(e.revokeActor),
	)

	return e, nil
}

// Hub exposes the delivery hub for mounting a transport.
func (e *Engine) Hub() *delivery.Hub { return e.hub }

// ClearSuppression lifts an actor's suppression, for the operator path.
func (e *Engine) ClearSuppression(actorID string) {
	e.detector.ClearSuppression(actorID)
}

// Close shuts the hub and the background loops down.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.hub.Close()
		e.detector.Close()
		if e.ownedStore != nil {
			e.ownedStore.Close()
		}
		if e.ownedOffline != nil {
			e.ownedOffline.Close()
		}
	})
}

// Submit runs one message through the pipeline and returns the producer's
// receipt. Rejections carry a reason code; rate-limited rejections also
// carry a retry-after hint. Suppressed actors get a rejection that the
// delivery side never explains to them.
func (e *Engine) Submit(ctx context.Context, in SubmitInput, producer Context) Receipt {
	msg, err := notification.Build(notification.BuildInput{
		Type:      in.Type,
		Category:  in.Category,
		Priority:  in.Priority,
		Title:     in.Title,
		Body:      in.Body,
		Data:      in.Data,
		ActionURL: in.ActionURL,
		Scope:     in.Scope,
	})
	if err != nil {
		e.logRejection(ctx, producer, string(in.Category), CodeMalformed, err)
		return rejected(CodeMalformed)
	}

	if err := pipeline.Validate(msg); err != nil {
		code := CodeInvalid
		if errors.Is(err, pipeline.ErrSerializationUnsafe) {
			// A message that survived the structural build but cannot
			// round-trip indicates a pipeline bug; operators hear about it.
			code = CodeSerializationFailed
			e.alertSerializationFailure(ctx, msg, err)
		}
		e.logRejection(ctx, producer, string(msg.Category), code, err)
		return rejected(code)
	}

	actor := producer.actorID()

	// Per-source ceiling first: it guards against multi-account abuse and
	// is independent of any user quota.
	if producer.IP != "" {
		res, err := e.allow(ctx, e.tiers.IP.Window, ratelimit.IPKey(producer.IP), e.tiers.IP.Limit)
		if err != nil {
			e.logRejection(ctx, producer, string(msg.Category), CodeRateLimited, err)
			return rejected(CodeRateLimited)
		}
		if !res.Allowed {
			return rateLimited(res.RetryAfterAt(e.now()))
		}
	}

	role := producer.Role.String()
	res, err := e.allow(ctx, e.tiers.WindowFor(role),
		ratelimit.UserKey(actor, msg.Priority),
		e.tiers.LimitFor(role, msg.Priority),
	)
	if err != nil {
		e.logRejection(ctx, producer, string(msg.Category), CodeRateLimited, err)
		return rejected(CodeRateLimited)
	}
	if !res.Allowed {
		return rateLimited(res.RetryAfterAt(e.now()))
	}

	// The burst probe never blocks; it only feeds the abuse signal.
	bursting := e.burst.Observe(actor)

	assessment, err := e.detector.Observe(ctx, abuse.Event{
		ActorID:            actor,
		Role:               role,
		Category:           string(msg.Category),
		AdminCategory:      authz.AdminOnly(msg.Category),
		SessionID:          producer.SessionID,
		RequestFingerprint: requestFingerprint(producer),
		ContentFingerprint: abuse.ContentFingerprint(msg.Title, msg.Body),
		Bursting:           bursting,
		At:                 e.now(),
	})
	if err != nil {
		e.logRejection(ctx, producer, string(msg.Category), CodeSuppressed, err)
		return rejected(CodeSuppressed)
	}
	if assessment.Suppressed {
		// Silent drop: the producer learns nothing beyond the code, and
		// nothing is delivered.
		return rejected(CodeSuppressed)
	}

	namespaces, err := authz.Authorize(authz.Context{
		UserID:    producer.UserID,
		Role:      producer.Role,
		SessionID: producer.SessionID,
	}, &msg)
	if err != nil {
		e.logRejection(ctx, producer, string(msg.Category), CodeUnauthorized, err)
		return rejected(CodeUnauthorized)
	}

	if err := e.hub.Deliver(ctx, &msg, namespaces); err != nil {
		// Offline enqueue failed; the message is lost. Surface it to
		// operators rather than the producer, who already got "accepted"
		// semantics everywhere short of this storage fault.
		e.log.ErrorContext(ctx, "delivery handoff failed",
			logger.MessageID(msg.ID),
			logger.Category(string(msg.Category)),
			logger.Error(err),
		)
	}

	return Receipt{Accepted: true, Code: CodeAccepted, MessageID: msg.ID}
}

// allow runs one sliding-window check, creating the per-window limiter on
// first use.
func (e *Engine) allow(ctx context.Context, window time.Duration, key string, limit int) (*ratelimit.Result, error) {
	e.limiterMu.Lock()
	limiter, ok := e.limiters[window]
	if !ok {
		var err error
		limiter, err = ratelimit.NewSlidingWindow(e.store, window, ratelimit.WithClock(e.now))
		if err != nil {
			e.limiterMu.Unlock()
			return nil, err
		}
		e.limiters[window] = limiter
	}
	e.limiterMu.Unlock()

	return limiter.Allow(ctx, key, limit)
}

// alertSuppression is the abuse detector's response path: a critical
// admin-category message documenting the suppression, delivered straight
// to the admin namespace. This is the only way the engine reports its own
// state to humans.
func (e *Engine) alertSuppression(ctx context.Context, alert abuse.Alert) {
	signals := make([]string, 0, len(alert.Signals))
	for _, sig := range alert.Signals {
		signals = append(signals, sig.Name)
	}

	e.emitAdminAlert(ctx,
		"Actor suppressed",
		fmt.Sprintf("Actor %s crossed the abuse threshold and is suppressed.", alert.ActorID),
		map[string]any{
			"actor_id":   alert.ActorID,
			"risk_score": alert.Score,
			"signals":    strings.Join(signals, ","),
		},
	)
}

func (e *Engine) alertSerializationFailure(ctx context.Context, msg notification.Message, cause error) {
	e.emitAdminAlert(ctx,
		"Serialization-unsafe message rejected",
		"A structurally valid message failed the serialization round trip; this usually indicates a pipeline bug.",
		map[string]any{
			"message_id": msg.ID,
			"category":   string(msg.Category),
			"reason":     cause.Error(),
		},
	)
}

func (e *Engine) emitAdminAlert(ctx context.Context, title, body string, data map[string]any) {
	msg, err := notification.Build(notification.BuildInput{
		Type:     notification.TypeWarning,
		Category: notification.CategoryAdmin,
		Priority: notification.PriorityCritical,
		Title:    title,
		Body:     body,
		Data:     data,
		Scope:    notification.BroadcastScope(),
	})
	if err != nil {
		e.log.ErrorContext(ctx, "admin alert build failed", logger.Error(err))
		return
	}

	adminNS := []authz.Namespace{authz.CategoryNamespace(notification.CategoryAdmin)}
	if err := e.hub.Deliver(ctx, &msg, adminNS); err != nil {
		e.log.ErrorContext(ctx, "admin alert delivery failed", logger.Error(err))
	}
}

func (e *Engine) revokeActor(ctx context.Context, actorID, reason string) {
	n := e.hub.RevokeActor(actorID)
	e.log.WarnContext(ctx, "actor authorization revoked",
		logger.ActorID(actorID),
		logger.Reason(reason),
		slog.Int("connections", n),
	)
}

func (e *Engine) logRejection(ctx context.Context, producer Context, category string, code ReasonCode, err error) {
	// Content-screen failures arrive pre-redacted: sanitizer errors name
	// the matched rule, never the offending payload.
	e.log.InfoContext(ctx, "message rejected",
		logger.ActorID(producer.actorID()),
		logger.Category(category),
		logger.Reason(string(code)),
		logger.Error(err),
	)
}

func requestFingerprint(producer Context) string {
	if producer.IP == "" && producer.UserAgent == "" {
		return ""
	}
	return fingerprint.FromParts(producer.IP, producer.UserAgent)
}
