// Package chromedp drives a Chrome browser over the DevTools protocol.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/trawler/internal/logging"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// ErrDriverInit is returned by New when the browser cannot be started or reached.
var ErrDriverInit = errors.New("driver initialization failed")

const (
	DefaultTimeout         = 10 * time.Second
	DefaultPageLoadTimeout = 30 * time.Second
)

// Config selects and tunes the browser.
type Config struct {
	// RemoteURL attaches to a running browser (ws://host:9222) instead of
	// launching one.
	RemoteURL string
	Headless  bool
	// Timeout bounds every element lookup.
	Timeout time.Duration
	// PageLoadTimeout bounds navigate.
	PageLoadTimeout time.Duration
	ProxyServer     string
	UserAgent       string
}

// Driver implements ports.Driver on a single browser tab.
// Calls are serialized; the tab is shared by every caller.
type Driver struct {
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      Config
	logger      *slog.Logger
	mu          sync.Mutex
}

// New launches (or attaches to) a browser and opens a tab. The parent context
// governs the browser lifetime; Close releases it earlier.
func New(parent context.Context, config Config, logger *slog.Logger) (*Driver, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.PageLoadTimeout <= 0 {
		config.PageLoadTimeout = DefaultPageLoadTimeout
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if config.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(parent, config.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(parent, execOptions(config)...)
	}

	logger = logger.With("component", "chromedp")
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// The first Run starts the browser and the tab.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %w", ErrDriverInit, err)
	}

	logger.Info("browser started", "remote", config.RemoteURL != "", "headless", config.Headless)

	return &Driver{
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		config:      config,
		logger:      logger,
	}, nil
}

func execOptions(config Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.ProxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(config.ProxyServer))
	}
	return opts
}

// Close shuts the tab and the browser (or the remote connection) down.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Info("closing browser")
	d.cancel()
	d.allocCancel()
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("navigating", "url", url)
	if err := d.run(ctx, d.config.PageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (d *Driver) Write(ctx context.Context, sel domain.Selector, text string) error {
	query, opts, err := queryOptions(sel, false)
	if err != nil {
		return err
	}
	err = d.run(ctx, d.config.Timeout, chromedp.SendKeys(query, text, opts...))
	return lookupError(ctx, sel, err)
}

func (d *Driver) Click(ctx context.Context, sel domain.Selector) error {
	query, opts, err := queryOptions(sel, false)
	if err != nil {
		return err
	}
	err = d.run(ctx, d.config.Timeout, chromedp.Click(query, opts...))
	return lookupError(ctx, sel, err)
}

// Read returns the text of the first match, or the texts of every match as
// a []string when multiple is set.
func (d *Driver) Read(ctx context.Context, sel domain.Selector, multiple bool) (any, error) {
	nodes, err := d.nodes(ctx, sel, multiple)
	if err != nil {
		return nil, err
	}
	if !multiple {
		nodes = nodes[:1]
	}

	texts := make([]string, len(nodes))
	err = d.run(ctx, d.config.Timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		for i, n := range nodes {
			if err := chromedp.Text([]cdp.NodeID{n.NodeID}, &texts[i], chromedp.ByNodeID).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return nil, lookupError(ctx, sel, err)
	}

	if !multiple {
		return texts[0], nil
	}
	return texts, nil
}

// Find waits for the selector and returns how many elements matched.
func (d *Driver) Find(ctx context.Context, sel domain.Selector, multiple bool) (int, error) {
	nodes, err := d.nodes(ctx, sel, multiple)
	if err != nil {
		return 0, err
	}
	if !multiple {
		return 1, nil
	}
	return len(nodes), nil
}

func (d *Driver) nodes(ctx context.Context, sel domain.Selector, multiple bool) ([]*cdp.Node, error) {
	query, opts, err := queryOptions(sel, multiple)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	if err := d.run(ctx, d.config.Timeout, chromedp.Nodes(query, &nodes, opts...)); err != nil {
		return nil, lookupError(ctx, sel, err)
	}
	if len(nodes) == 0 {
		return nil, &domain.ElementNotFoundError{Selector: sel}
	}
	return nodes, nil
}

// run executes actions on the tab within timeout. Cancelling the caller's
// context aborts the run as well.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	runCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// lookupError turns a lookup deadline into ElementNotFoundError. Deadlines
// caused by the caller's own context are returned unchanged.
func lookupError(ctx context.Context, sel domain.Selector, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return &domain.ElementNotFoundError{Selector: sel}
	}
	return err
}

// queryOptions maps a selector to a chromedp query. Multiple css lookups use
// querySelectorAll; xpath searches already return every match.
func queryOptions(sel domain.Selector, multiple bool) (string, []chromedp.QueryOption, error) {
	switch sel.Strategy() {
	case domain.ByXPath:
		return sel.Value, []chromedp.QueryOption{chromedp.BySearch}, nil
	case domain.ByCSS:
		if multiple {
			return sel.Value, []chromedp.QueryOption{chromedp.ByQueryAll}, nil
		}
		return sel.Value, []chromedp.QueryOption{chromedp.ByQuery}, nil
	case domain.ByID:
		return sel.Value, []chromedp.QueryOption{chromedp.ByID}, nil
	case domain.ByJS:
		return sel.Value, []chromedp.QueryOption{chromedp.ByJSPath}, nil
	}
	return "", nil, domain.NewConfigError(domain.ErrInvalidArguments, "unknown selector strategy %q", sel.By)
}
