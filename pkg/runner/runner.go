package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/trawler"
	"github.com/aretw0/trawler/internal/logging"
	"github.com/aretw0/trawler/pkg/adapters/memory"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/dsl"
	"github.com/aretw0/trawler/pkg/ports"
	"github.com/google/uuid"
)

// Runner serializes workflow runs on a shared driver.
type Runner struct {
	Driver  ports.Driver
	Store   ports.ResultStore
	Locker  ports.DistributedLocker
	Logger  *slog.Logger
	Hooks   domain.LifecycleHooks
	Policy  domain.ConflictPolicy
	LockKey string
	LockTTL time.Duration

	// NewID generates result IDs. Defaults to random UUIDs.
	NewID func() string
}

// Result is the outcome of one run. State and Report are set even when the
// workflow halted; Err carries the halting error.
type Result struct {
	ID     string          `json:"id,omitempty"`
	State  domain.Tree     `json:"state"`
	Report *trawler.Report `json:"report"`
	Error  string          `json:"error,omitempty"`
	Err    error           `json:"-"`
}

// New creates a runner for driver.
func New(driver ports.Driver, opts ...Option) *Runner {
	r := &Runner{
		Driver:  driver,
		LockKey: DefaultLockKey,
		LockTTL: DefaultLockTTL,
		NewID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Locker == nil {
		r.Locker = memory.NewLocker()
	}
	return r
}

// RunScript runs every task of a decoded script. Invalid tuples are kept and
// halt their task when reached.
func (r *Runner) RunScript(ctx context.Context, script *dsl.Script) (*Result, error) {
	return r.Run(ctx, script.ParseLenient())
}

// Run executes tasks as one workflow while holding the driver lock.
// The returned error is the halting error, a lock failure or a store failure.
func (r *Runner) Run(ctx context.Context, tasks [][]domain.Action) (*Result, error) {
	unlock, err := r.Locker.Lock(ctx, r.LockKey, r.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire driver lock: %w", err)
	}
	defer func() {
		// The run context may already be cancelled.
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			r.Logger.Error("failed to release driver lock", "err", err)
		}
	}()

	wf := trawler.New(r.Driver,
		trawler.WithLogger(r.Logger),
		trawler.WithLifecycleHooks(r.Hooks),
		trawler.WithConflictPolicy(r.Policy),
		trawler.WithResultStore(r.Store),
	)
	for _, actions := range tasks {
		wf.Add(actions)
	}

	report, runErr := wf.Execute(ctx)
	res := &Result{
		State:  wf.State(),
		Report: report,
		Err:    runErr,
	}
	if runErr != nil {
		res.Error = runErr.Error()
	}

	if r.Store != nil {
		res.ID = r.NewID()
		if err := wf.Save(context.WithoutCancel(ctx), res.ID); err != nil {
			return res, fmt.Errorf("failed to save result %s: %w", res.ID, err)
		}
		r.Logger.Info("result saved", "id", res.ID, "halted", report.Halted)
	}

	return res, runErr
}

// Load returns a previously saved result.
func (r *Runner) Load(ctx context.Context, id string) (domain.Tree, error) {
	if r.Store == nil {
		return nil, trawler.ErrNoStore
	}
	return r.Store.Load(ctx, id)
}

// List returns the saved result IDs.
func (r *Runner) List(ctx context.Context) ([]string, error) {
	if r.Store == nil {
		return nil, trawler.ErrNoStore
	}
	return r.Store.List(ctx)
}

// Delete removes a saved result.
func (r *Runner) Delete(ctx context.Context, id string) error {
	if r.Store == nil {
		return trawler.ErrNoStore
	}
	return r.Store.Delete(ctx, id)
}
