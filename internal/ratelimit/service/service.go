// Package service implements the rate governor: it classifies requests into
// policies, derives limit keys, and enforces fixed-window counters.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"gatekeeper/internal/ratelimit/config"
	"gatekeeper/internal/ratelimit/metrics"
	"gatekeeper/internal/ratelimit/models"
	"gatekeeper/internal/ratelimit/observability"
	"gatekeeper/internal/ratelimit/ports"
	"gatekeeper/pkg/platform/circuit"
)

// DefaultStoreTimeout bounds each counter store call made on the request path.
const DefaultStoreTimeout = 100 * time.Millisecond

// Governor enforces the policy table against a counter store.
// Store failures never block a request: the governor degrades to allow.
type Governor struct {
	cfg         *config.Config
	store       ports.CounterStore
	conditional ports.ConditionalIncrementer

	breaker      *circuit.Breaker
	logger       *slog.Logger
	metrics      *metrics.Metrics
	warner       *observability.StoreWarner
	tracer       *observability.Tracer
	now          func() time.Time
	storeTimeout time.Duration
	warnInterval time.Duration
	healthPath   string
}

type Option func(*Governor)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Governor) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Governor) {
		g.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		if now != nil {
			g.now = now
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(g *Governor) {
		if d > 0 {
			g.storeTimeout = d
		}
	}
}

// WithBreaker replaces the default store circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(g *Governor) {
		if b != nil {
			g.breaker = b
		}
	}
}

func WithTracer(t *observability.Tracer) Option {
	return func(g *Governor) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithHealthPath sets the path exempt from limiting. Sub-paths are exempt too.
func WithHealthPath(path string) Option {
	return func(g *Governor) {
		g.healthPath = path
	}
}

// WithWarnInterval bounds how often store outages are logged.
func WithWarnInterval(d time.Duration) Option {
	return func(g *Governor) {
		g.warnInterval = d
	}
}

func New(cfg *config.Config, store ports.CounterStore, opts ...Option) (*Governor, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Governor{
		cfg:          cfg,
		store:        store,
		logger:       slog.Default(),
		now:          time.Now,
		storeTimeout: DefaultStoreTimeout,
		healthPath:   "/health",
	}
	if c, ok := store.(ports.ConditionalIncrementer); ok {
		g.conditional = c
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.breaker == nil {
		g.breaker = circuit.New("ratelimit-store")
	}
	if g.tracer == nil {
		g.tracer = observability.NewTracer(nil)
	}
	g.warner = observability.NewStoreWarner(g.logger, g.warnInterval)
	return g, nil
}

// Check gates a request before it reaches the handler. Every allowed request
// reserves one unit of quota; for deferred policies Record hands the unit
// back once the status shows the outcome is not counted.
func (g *Governor) Check(ctx context.Context, req models.RequestInfo) *models.Decision {
	if g.isExempt(req) {
		g.metrics.IncrementDecision("none", metrics.OutcomeExempt)
		return &models.Decision{Allowed: true, Exempt: true}
	}

	name, policy := g.policyFor(ctx, g.Classify(req))
	key := DeriveKey(req, name)
	now := g.now()
	d := &models.Decision{
		Policy:   name,
		Key:      key.String(),
		Limit:    policy.Max,
		WindowMs: policy.WindowMs,
		Message:  policy.Message,
		Deferred: policy.Deferred(),
		ResetAt:  now.Add(policy.Window()),
	}

	ctx, span := g.tracer.Start(ctx, observability.SpanCheck,
		attribute.String("ratelimit.policy", name.String()),
		attribute.Bool("ratelimit.deferred", d.Deferred),
	)
	defer func() {
		span.SetAttributes(attribute.String("ratelimit.outcome", outcome(d)))
		span.End()
	}()

	if !g.breaker.Allow() {
		return g.degrade(d)
	}

	storeCtx, cancel := context.WithTimeout(ctx, g.storeTimeout)
	defer cancel()

	count, allowed, op, err := g.consume(storeCtx, d.Key, policy)
	if err != nil {
		g.storeFailed(ctx, op, err, name)
		return g.degrade(d)
	}
	g.storeSucceeded(ctx)

	if !allowed {
		return g.deny(ctx, d, req)
	}
	d.Allowed = true
	d.Remaining = max(policy.Max-count, 0)
	g.metrics.IncrementDecision(name.String(), metrics.OutcomeAllowed)
	return d
}

// consume reserves one unit of quota for key and returns the resulting count.
func (g *Governor) consume(ctx context.Context, key string, policy config.Policy) (count int, allowed bool, op string, err error) {
	if g.conditional != nil {
		count, allowed, err = g.conditional.IncrementBelow(ctx, key, policy.Max, policy.Window())
		if err != nil {
			return 0, false, "increment_below", err
		}
		return count, allowed, "", nil
	}

	// Stores without a conditional increment: a saturated counter is never
	// incremented, and a request that loses the race at max-1 returns its unit.
	count, _, err = g.store.Get(ctx, key)
	if err != nil {
		return 0, false, "get", err
	}
	if count >= policy.Max {
		return count, false, "", nil
	}
	count, err = g.store.IncrementWithTTL(ctx, key, policy.Window())
	if err != nil {
		return 0, false, "increment", err
	}
	if count > policy.Max {
		if _, err := g.store.Decrement(ctx, key); err != nil {
			g.metrics.IncrementStoreError("decrement")
		}
		return policy.Max, false, "", nil
	}
	return count, true, "", nil
}

// Record is the post-response hook for deferred policies. The unit reserved
// by Check stays counted when the status matches what the policy counts and
// is returned otherwise.
func (g *Governor) Record(ctx context.Context, d *models.Decision, status int) {
	if d == nil || !d.Deferred || !d.Allowed || d.Exempt || d.Degraded {
		return
	}
	policy, ok := g.cfg.Policy(d.Policy)
	if !ok {
		return
	}
	failed := status >= 400
	skipped := (policy.SkipSuccessfulRequests && !failed) || (policy.SkipFailedRequests && failed)
	if !skipped {
		return
	}
	if !g.breaker.Allow() {
		g.metrics.IncrementDegraded(d.Policy.String())
		return
	}

	// A client that hangs up must still get its unit back.
	ctx = context.WithoutCancel(ctx)
	ctx, span := g.tracer.Start(ctx, observability.SpanRecord,
		attribute.String("ratelimit.policy", d.Policy.String()),
		attribute.Int("http.status_code", status),
	)
	storeCtx, cancel := context.WithTimeout(ctx, g.storeTimeout)
	defer cancel()

	_, err := g.store.Decrement(storeCtx, d.Key)
	observability.EndSpan(span, err)
	if err != nil {
		g.storeFailed(ctx, "decrement", err, d.Policy)
		return
	}
	g.storeSucceeded(ctx)
}

func (g *Governor) deny(ctx context.Context, d *models.Decision, req models.RequestInfo) *models.Decision {
	d.Allowed = false
	d.Remaining = 0
	d.RetryAfter = int(d.WindowMs / 1000)
	g.metrics.IncrementDecision(d.Policy.String(), metrics.OutcomeDenied)

	attrs := []any{
		"policy", d.Policy.String(),
		"limit", d.Limit,
		"window_ms", d.WindowMs,
		"path", req.Path,
	}
	if req.Authenticated() {
		attrs = append(attrs, "user_id", req.UserID)
	}
	if d.Policy.IsSecuritySensitive() {
		observability.LogSecurity(ctx, g.logger, "rate_limit_exceeded", attrs...)
	} else {
		g.logger.DebugContext(ctx, "rate limit exceeded", attrs...)
	}
	return d
}

func (g *Governor) degrade(d *models.Decision) *models.Decision {
	d.Allowed = true
	d.Degraded = true
	d.Remaining = d.Limit
	g.metrics.IncrementDegraded(d.Policy.String())
	g.metrics.IncrementDecision(d.Policy.String(), metrics.OutcomeDegraded)
	return d
}

func (g *Governor) storeFailed(ctx context.Context, op string, err error, policy models.PolicyName) {
	g.metrics.IncrementStoreError(op)
	g.warner.Warn(ctx, op, err, "policy", policy.String())
	// A caller that went away, or a bounded store at capacity, says nothing
	// about store health.
	if ctx.Err() != nil || errors.Is(err, ports.ErrStoreFull) {
		return
	}
	if change := g.breaker.RecordFailure(); change.Opened {
		g.metrics.SetBreakerOpen(true)
		g.logger.ErrorContext(ctx, "rate limit store circuit opened",
			"breaker", g.breaker.Name(),
			"error", err,
		)
	}
}

func (g *Governor) storeSucceeded(ctx context.Context) {
	if change := g.breaker.RecordSuccess(); change.Closed {
		g.metrics.SetBreakerOpen(false)
		g.logger.InfoContext(ctx, "rate limit store circuit closed", "breaker", g.breaker.Name())
	}
}

// policyFor returns the configured policy, falling back to public for names
// missing from the table.
func (g *Governor) policyFor(ctx context.Context, name models.PolicyName) (models.PolicyName, config.Policy) {
	if p, ok := g.cfg.Policy(name); ok {
		return name, p
	}
	g.logger.WarnContext(ctx, "unknown rate limit policy, falling back to public",
		"policy", name.String(),
		"error", fmt.Errorf("%w: %q", config.ErrMisconfiguredPolicy, name),
	)
	p, _ := g.cfg.Policy(models.PolicyPublic)
	return models.PolicyPublic, p
}

// Policies returns the table without message text.
func (g *Governor) Policies() map[models.PolicyName]models.SanitizedPolicy {
	return g.cfg.Sanitized()
}

func outcome(d *models.Decision) string {
	switch {
	case d.Degraded:
		return metrics.OutcomeDegraded
	case d.Allowed:
		return metrics.OutcomeAllowed
	default:
		return metrics.OutcomeDenied
	}
}
