package service

import (
	"context"

	"gatekeeper/internal/ratelimit/models"
	dErrors "gatekeeper/pkg/domain-errors"
)

// GetStatus projects the counter for key without touching it.
func (g *Governor) GetStatus(ctx context.Context, key models.LimitKey) (*models.Status, error) {
	policy, ok := g.cfg.Policy(key.Policy())
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown rate limit policy %q", key.Policy())
	}

	count, found, err := g.store.Get(ctx, key.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read rate limit counter")
	}
	status := &models.Status{
		Policy:    key.Policy(),
		Key:       key.String(),
		Limit:     policy.Max,
		Count:     count,
		Remaining: max(policy.Max-count, 0),
		Available: count < policy.Max,
	}
	if !found {
		return status, nil
	}

	ttl, found, err := g.store.TTL(ctx, key.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read rate limit window")
	}
	if found {
		reset := g.now().Add(ttl).UTC()
		status.ResetTime = &reset
	}
	return status, nil
}

// Clear deletes the counter for key, restoring the full quota. It reports
// whether a counter existed.
func (g *Governor) Clear(ctx context.Context, key models.LimitKey) (bool, error) {
	if !key.Policy().IsValid() {
		return false, dErrors.Newf(dErrors.CodeValidation, "unknown rate limit policy %q", key.Policy())
	}
	existed, err := g.store.Delete(ctx, key.String())
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to clear rate limit counter")
	}
	return existed, nil
}
