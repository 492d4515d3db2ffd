package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/ports"
)

// DefaultLockKey names the lock guarding the shared driver session.
const DefaultLockKey = "driver"

// DefaultLockTTL bounds how long a crashed run can hold a distributed lock.
const DefaultLockTTL = 5 * time.Minute

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures where results are persisted.
func WithStore(store ports.ResultStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithLocker replaces the default in-process lock.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Runner) {
		r.Locker = locker
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithLifecycleHooks registers hooks on every workflow the runner builds.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.Hooks = hooks
	}
}

// WithConflictPolicy sets the collect conflict policy.
func WithConflictPolicy(policy domain.ConflictPolicy) Option {
	return func(r *Runner) {
		r.Policy = policy
	}
}

// WithLockTTL sets the TTL passed to the locker.
func WithLockTTL(ttl time.Duration) Option {
	return func(r *Runner) {
		r.LockTTL = ttl
	}
}

// WithLockKey sets the lock key; runners driving different browsers
// through one Redis should use different keys.
func WithLockKey(key string) Option {
	return func(r *Runner) {
		r.LockKey = key
	}
}
