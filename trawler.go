package trawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/trawler/internal/logging"
	"github.com/aretw0/trawler/internal/runtime"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/dsl"
	"github.com/aretw0/trawler/pkg/ports"
)

// ErrNoStore is returned by Save when no result store was configured.
var ErrNoStore = errors.New("no result store configured")

// Workflow runs an ordered list of tasks against one driver session and
// accumulates everything they collect into a shared state tree.
type Workflow struct {
	driver ports.Driver
	state  domain.Tree
	tasks  []*runtime.Task
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	policy domain.ConflictPolicy
	store  ports.ResultStore
	opts   []Option
}

// Option defines a functional option for configuring the Workflow.
type Option func(*Workflow)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workflow) {
		w.hooks = hooks
	}
}

// WithConflictPolicy sets how collect handles a path that walks through a
// leaf value (default: overwrite).
func WithConflictPolicy(policy domain.ConflictPolicy) Option {
	return func(w *Workflow) {
		w.policy = policy
	}
}

// WithResultStore configures the sink used by Save.
func WithResultStore(store ports.ResultStore) Option {
	return func(w *Workflow) {
		w.store = store
	}
}

// New creates a workflow bound to driver. The caller keeps ownership of the
// driver and closes it when done.
func New(driver ports.Driver, opts ...Option) *Workflow {
	w := &Workflow{
		driver: driver,
		state:  domain.NewTree(),
		opts:   opts,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	return w
}

// Add appends a task wrapping actions and returns its 1-based ID.
// Actions are not validated here; InvalidAction entries fail when reached.
func (w *Workflow) Add(actions []domain.Action) int {
	id := len(w.tasks) + 1
	w.tasks = append(w.tasks, runtime.NewTask(id, actions))
	return id
}

// AddScript parses raw action tuples and adds them as one task.
// Tuples that do not parse are kept as InvalidAction.
func (w *Workflow) AddScript(raw []any) int {
	return w.Add(dsl.ParseLenient(raw))
}

// Len returns the number of tasks.
func (w *Workflow) Len() int {
	return len(w.tasks)
}

// Execute runs every task in insertion order. The first unrecoverable task
// error stops the workflow: it is logged, recorded in the report and
// returned. Values collected before the fault stay in the state tree.
func (w *Workflow) Execute(ctx context.Context) (*Report, error) {
	env := runtime.Env{
		Driver: w.driver,
		State:  w.state,
		Policy: w.policy,
		Logger: w.logger,
		Hooks:  w.hooks,
	}

	report := &Report{Tasks: make([]TaskReport, 0, len(w.tasks))}
	for _, task := range w.tasks {
		ledger, err := task.Execute(ctx, env)
		report.add(task.ID(), ledger, err)
		if err != nil {
			report.Halted = true
			report.Err = err
			w.logger.ErrorContext(ctx, "workflow execution failed", "task", task.ID(), "error", err)
			break
		}
	}

	if w.hooks.OnWorkflowEnd != nil {
		w.hooks.OnWorkflowEnd(ctx, &domain.WorkflowEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventWorkflowEnd},
			Tasks:     len(report.Tasks),
			Halted:    report.Halted,
			Err:       report.Err,
		})
	}

	return report, report.Err
}

// State returns a deep copy of the state tree.
func (w *Workflow) State() domain.Tree {
	return w.state.Snapshot()
}

// Save persists the current state tree under id in the configured store.
func (w *Workflow) Save(ctx context.Context, id string) error {
	if w.store == nil {
		return ErrNoStore
	}
	return w.store.Save(ctx, id, w.state)
}

// Fork returns a new workflow on the same driver and options, with an empty
// state tree and no tasks.
func (w *Workflow) Fork() *Workflow {
	return New(w.driver, w.opts...)
}
