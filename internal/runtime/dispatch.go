package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/ports"
)

// dispatch routes an action to its handler.
func dispatch(ctx context.Context, env Env, action domain.Action) error {
	switch a := action.(type) {
	case domain.DriverAction:
		return callDriver(ctx, env.Driver, a.Call)
	case domain.CollectAction:
		return collect(ctx, env, a)
	case domain.FallbackAction:
		switch a.Inner.(type) {
		case domain.DriverAction, domain.CollectAction:
			return dispatch(ctx, env, a.Inner)
		case domain.FallbackAction:
			return &domain.ConfigError{Err: domain.ErrNestedFallback}
		default:
			return domain.NewConfigError(domain.ErrUnknownActionType, "fallback of %T", a.Inner)
		}
	case domain.InvalidAction:
		return a.Err
	}
	return domain.NewConfigError(domain.ErrUnknownActionType, "%T", action)
}

// callDriver forwards a call to the driver operation named by call.Op.
// Values returned by read and find are discarded.
func callDriver(ctx context.Context, drv ports.Driver, call domain.DriverCall) error {
	switch call.Op {
	case domain.OpNavigate:
		return drv.Navigate(ctx, call.URL)
	case domain.OpWrite:
		return drv.Write(ctx, call.Selector, call.Text)
	case domain.OpClick:
		return drv.Click(ctx, call.Selector)
	case domain.OpRead:
		_, err := drv.Read(ctx, call.Selector, call.Multiple)
		return err
	case domain.OpFind:
		_, err := drv.Find(ctx, call.Selector, call.Multiple)
		return err
	}
	return domain.NewConfigError(domain.ErrUnknownDriverMethod, "%q", call.Op)
}

func collect(ctx context.Context, env Env, a domain.CollectAction) error {
	// Validate the path before touching the page.
	if _, err := domain.SplitPath(a.Path); err != nil {
		return err
	}
	value, err := env.Driver.Read(ctx, a.Selector, a.Multiple)
	if err != nil {
		return err
	}
	if err := env.State.Store(a.Path, value, env.Policy); err != nil {
		return fmt.Errorf("collect %q: %w", a.Path, err)
	}
	return nil
}
