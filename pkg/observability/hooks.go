package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/trawler/pkg/domain"
)

// Chain fans every event out to each hook set in order. Nil callbacks are
// skipped.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskStart: func(ctx context.Context, e *domain.TaskEvent) {
			for _, h := range hooks {
				if h.OnTaskStart != nil {
					h.OnTaskStart(ctx, e)
				}
			}
		},
		OnTaskEnd: func(ctx context.Context, e *domain.TaskEvent) {
			for _, h := range hooks {
				if h.OnTaskEnd != nil {
					h.OnTaskEnd(ctx, e)
				}
			}
		},
		OnActionEnd: func(ctx context.Context, e *domain.ActionEvent) {
			for _, h := range hooks {
				if h.OnActionEnd != nil {
					h.OnActionEnd(ctx, e)
				}
			}
		},
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) {
			for _, h := range hooks {
				if h.OnWorkflowEnd != nil {
					h.OnWorkflowEnd(ctx, e)
				}
			}
		},
	}
}

// LogHooks writes task and workflow boundaries to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskStart: func(ctx context.Context, e *domain.TaskEvent) {
			logger.InfoContext(ctx, "task_start", "task", e.TaskID, "actions", e.Actions)
		},
		OnTaskEnd: func(ctx context.Context, e *domain.TaskEvent) {
			attrs := []any{"task", e.TaskID, "failed", e.Ledger.Count(domain.OutcomeFailed)}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.InfoContext(ctx, "task_end", attrs...)
		},
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) {
			logger.InfoContext(ctx, "workflow_end", "tasks", e.Tasks, "halted", e.Halted)
		},
	}
}
