package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/trawler/internal/config"
	"github.com/aretw0/trawler/pkg/adapters/chromedp"
	"github.com/aretw0/trawler/pkg/adapters/file"
	"github.com/aretw0/trawler/pkg/adapters/memory"
	"github.com/aretw0/trawler/pkg/adapters/redis"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/observability"
	"github.com/aretw0/trawler/pkg/persistence/middleware"
	"github.com/aretw0/trawler/pkg/ports"
	"github.com/aretw0/trawler/pkg/runner"
)

// Stack holds the adapters selected by the configuration.
type Stack struct {
	Config  *config.Config
	Logger  *slog.Logger
	Driver  ports.Driver
	Store   ports.ResultStore
	Locker  ports.DistributedLocker
	Policy  domain.ConflictPolicy
	closers []func() error
}

// Build creates the driver, store and locker described by cfg.
// The caller must Close the stack.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	s := &Stack{Config: cfg, Logger: logger, Policy: policy}

	if err := s.buildStore(); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.buildDriver(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Stack) buildDriver(ctx context.Context) error {
	dc := s.Config.Driver
	switch dc.Kind {
	case config.DriverMemory:
		var pages map[string]memory.Page
		if dc.Fixtures != "" {
			loaded, err := memory.LoadFixtures(dc.Fixtures)
			if err != nil {
				return err
			}
			pages = loaded
		}
		s.Driver = memory.NewDriver(pages)
		return nil
	case config.DriverChrome:
		drv, err := chromedp.New(ctx, chromedp.Config{
			RemoteURL:       dc.RemoteURL,
			Headless:        dc.Headless,
			Timeout:         dc.Timeout,
			PageLoadTimeout: dc.PageLoadTimeout,
			ProxyServer:     dc.Proxy,
			UserAgent:       dc.UserAgent,
		}, s.Logger)
		if err != nil {
			return err
		}
		s.Driver = drv
		s.closers = append(s.closers, drv.Close)
		return nil
	}
	return fmt.Errorf("unknown driver kind %q", dc.Kind)
}

func (s *Stack) buildStore() error {
	sc := s.Config.Store
	switch sc.Kind {
	case config.StoreMemory:
		s.Store = memory.NewStore()
		s.Locker = memory.NewLocker()
	case config.StoreFile:
		s.Store = file.New(sc.Path)
		s.Locker = memory.NewLocker()
	case config.StoreRedis:
		opts := []redis.Option{redis.WithTTL(sc.Redis.TTL)}
		if sc.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(sc.Redis.Prefix))
		}
		store := redis.New(sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB, opts...)
		s.Store = store
		s.Locker = redis.NewLocker(store.Client(), sc.Redis.Prefix)
		s.closers = append(s.closers, store.Close)
	default:
		return fmt.Errorf("unknown store kind %q", sc.Kind)
	}
	return s.wrapStore()
}

// wrapStore masks before encrypting so sealed results are already masked.
func (s *Stack) wrapStore() error {
	sc := s.Config.Store
	var mws []middleware.Middleware
	if len(sc.Mask) > 0 {
		mw, err := middleware.NewMaskMiddleware(sc.Mask)
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}
	if sc.EncryptionKey != "" {
		active, fallback, err := sc.Keys()
		if err != nil {
			return err
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}
	s.Store = middleware.Wrap(s.Store, mws...)
	return nil
}

// Runner builds a runner over the stack. Hooks are chained with debug logging
// when the logger is at debug level.
func (s *Stack) Runner(hooks ...domain.LifecycleHooks) *runner.Runner {
	if s.Logger.Enabled(context.Background(), slog.LevelDebug) {
		hooks = append(hooks, observability.LogHooks(s.Logger))
	}
	return runner.New(s.Driver,
		runner.WithStore(s.Store),
		runner.WithLocker(s.Locker),
		runner.WithLogger(s.Logger),
		runner.WithConflictPolicy(s.Policy),
		runner.WithLifecycleHooks(observability.Chain(hooks...)),
		runner.WithLockTTL(s.Config.Server.LockTTL),
	)
}

// Close releases the driver and the store connections, newest first.
func (s *Stack) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
