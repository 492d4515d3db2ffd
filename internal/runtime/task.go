package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/trawler/internal/logging"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/ports"
)

// Env is what a task execution borrows from its workflow: the driver session,
// the shared state tree and the execution policies. Tasks never keep it.
type Env struct {
	Driver ports.Driver
	State  domain.Tree
	Policy domain.ConflictPolicy
	Logger *slog.Logger
	Hooks  domain.LifecycleHooks
}

func (env Env) logger() *slog.Logger {
	if env.Logger == nil {
		return logging.NewNop()
	}
	return env.Logger
}

// Task is an ordered action script with a 1-based identifier.
type Task struct {
	id      int
	actions []domain.Action
}

// NewTask creates a task. The action slice is copied.
func NewTask(id int, actions []domain.Action) *Task {
	return &Task{
		id:      id,
		actions: append([]domain.Action(nil), actions...),
	}
}

// ID returns the task identifier.
func (t *Task) ID() int {
	return t.id
}

// Len returns the number of actions in the script.
func (t *Task) Len() int {
	return len(t.actions)
}

// Execute interprets the actions in order and returns the ledger of this run.
//
// A fallback runs only when the ledger entry of the index right before it is
// failed. Element-not-found failures are recorded and execution continues;
// any other error aborts the task and is returned as a *domain.TaskError
// together with the partial ledger.
func (t *Task) Execute(ctx context.Context, env Env) (domain.Ledger, error) {
	log := env.logger().With("task", t.id)
	ledger := domain.NewLedger()

	t.emitTaskStart(ctx, env)

	for i, action := range t.actions {
		step := i + 1

		if isFallback(action) && !ledger.Failed(i-1) {
			log.DebugContext(ctx, "fallback skipped", "step", step)
			t.emitAction(ctx, env, &domain.ActionEvent{Index: i, Kind: domain.KindFallback, Skipped: true})
			continue
		}

		if invalid, ok := action.(domain.InvalidAction); ok {
			err := &domain.TaskError{TaskID: t.id, Step: step, Err: invalid.Err}
			t.emitTaskEnd(ctx, env, ledger, err)
			return ledger, err
		}

		log.DebugContext(ctx, "executing action", "step", step, "kind", action.Kind())
		started := time.Now()
		err := dispatch(ctx, env, action)
		elapsed := time.Since(started)

		switch {
		case err == nil:
			ledger.Record(i, domain.OutcomeSucceeded)
		case errors.Is(err, domain.ErrElementNotFound):
			ledger.Record(i, domain.OutcomeFailed)
			log.WarnContext(ctx, "action failed", "step", step, "kind", action.Kind(), "error", err)
		default:
			taskErr := &domain.TaskError{TaskID: t.id, Step: step, Err: err}
			t.emitAction(ctx, env, &domain.ActionEvent{Index: i, Kind: action.Kind(), Duration: elapsed, Err: err})
			t.emitTaskEnd(ctx, env, ledger, taskErr)
			return ledger, taskErr
		}

		outcome, _ := ledger.Lookup(i)
		t.emitAction(ctx, env, &domain.ActionEvent{
			Index:    i,
			Kind:     action.Kind(),
			Outcome:  outcome,
			Duration: elapsed,
			Err:      err,
		})
	}

	t.emitTaskEnd(ctx, env, ledger, nil)
	return ledger, nil
}

// isFallback reports whether action is a fallback that may be skipped. A
// fallback whose wrapped action is invalid counts too, so its error surfaces
// only when it would run.
func isFallback(action domain.Action) bool {
	switch a := action.(type) {
	case domain.FallbackAction:
		return true
	case domain.InvalidAction:
		return a.Kind() == domain.KindFallback && len(a.Raw) > 1 && !errors.Is(a.Err, domain.ErrNestedFallback)
	}
	return false
}

func (t *Task) emitTaskStart(ctx context.Context, env Env) {
	if env.Hooks.OnTaskStart == nil {
		return
	}
	env.Hooks.OnTaskStart(ctx, &domain.TaskEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTaskStart},
		TaskID:    t.id,
		Actions:   len(t.actions),
	})
}

func (t *Task) emitTaskEnd(ctx context.Context, env Env, ledger domain.Ledger, err error) {
	if env.Hooks.OnTaskEnd == nil {
		return
	}
	env.Hooks.OnTaskEnd(ctx, &domain.TaskEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTaskEnd},
		TaskID:    t.id,
		Actions:   len(t.actions),
		Ledger:    ledger,
		Err:       err,
	})
}

func (t *Task) emitAction(ctx context.Context, env Env, ev *domain.ActionEvent) {
	if env.Hooks.OnActionEnd == nil {
		return
	}
	ev.EventBase = domain.EventBase{Timestamp: time.Now(), Type: domain.EventActionEnd}
	ev.TaskID = t.id
	env.Hooks.OnActionEnd(ctx, ev)
}
