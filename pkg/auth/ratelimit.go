package auth

import (
	"context"
	"sync"
	"time"

	"github.com/prompt-arena/arena/pkg/observability"
)

// RateLimiter checks whether a request from the given identity should
// be allowed. Implementations must fail open: a request is only
// rejected with ErrTooManyRequests, never for internal reasons.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// DefaultTier is the service tier assumed for identities that carry none.
const DefaultTier = "default"

// TierLimiter is a fixed-window, per-subject rate limiter kept entirely
// in process memory. Each identity is budgeted by its service tier:
// the tier's requests-per-minute if configured, the default otherwise.
// A tier mapped to 0 (or a 0 default) is unlimited.
type TierLimiter struct {
	tierRPM    map[string]int
	defaultRPM int
	now        func() time.Time

	mu      sync.Mutex
	windows map[string]*requestWindow
}

// requestWindow counts requests for one subject+tier since openedAt.
type requestWindow struct {
	count    int
	openedAt time.Time
}

// NewTierLimiter creates a limiter from a tier-name to requests-per-minute
// table. Subjects in unknown tiers fall back to defaultRPM.
func NewTierLimiter(tierRPM map[string]int, defaultRPM int) *TierLimiter {
	return &TierLimiter{
		tierRPM:    tierRPM,
		defaultRPM: defaultRPM,
		now:        time.Now,
		windows:    make(map[string]*requestWindow),
	}
}

// Allow counts the request against the identity's minute window and
// rejects with ErrTooManyRequests once the tier budget is spent.
// Rejections are reported on the arena_ratelimit_rejected_total metric.
func (l *TierLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.ServiceTier
	if tier == "" {
		tier = DefaultTier
	}

	rpm := l.defaultRPM
	if tierRPM, ok := l.tierRPM[tier]; ok {
		rpm = tierRPM
	}
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + "/" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win := l.windows[key]
	if win == nil || now.Sub(win.openedAt) >= time.Minute {
		l.pruneLocked(now)
		l.windows[key] = &requestWindow{count: 1, openedAt: now}
		return nil
	}

	win.count++
	if win.count > rpm {
		observability.RateLimitRejectedTotal.WithLabelValues(tier).Inc()
		return ErrTooManyRequests
	}
	return nil
}

// pruneLocked drops expired windows so idle subjects do not accumulate.
// Called with the mutex held, on the window-rollover path only.
func (l *TierLimiter) pruneLocked(now time.Time) {
	for key, win := range l.windows {
		if now.Sub(win.openedAt) >= time.Minute {
			delete(l.windows, key)
		}
	}
}
