package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTaskStart   EventType = "task_start"
	EventTaskEnd     EventType = "task_end"
	EventActionEnd   EventType = "action_end"
	EventWorkflowEnd EventType = "workflow_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TaskEvent marks the start or end of a task.
type TaskEvent struct {
	EventBase
	TaskID  int    `json:"task_id"`
	Actions int    `json:"actions"`
	Ledger  Ledger `json:"ledger,omitempty"`
	Err     error  `json:"-"`
}

// ActionEvent reports how one action ended. Skipped is set for suppressed
// fallbacks, which carry no outcome.
type ActionEvent struct {
	EventBase
	TaskID   int           `json:"task_id"`
	Index    int           `json:"index"`
	Kind     Kind          `json:"kind"`
	Outcome  Outcome       `json:"outcome,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// WorkflowEvent is emitted once per Execute.
type WorkflowEvent struct {
	EventBase
	Tasks  int   `json:"tasks"`
	Halted bool  `json:"halted"`
	Err    error `json:"-"`
}

// LifecycleHooks defines callbacks for execution observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnTaskStart   func(context.Context, *TaskEvent)
	OnTaskEnd     func(context.Context, *TaskEvent)
	OnActionEnd   func(context.Context, *ActionEvent)
	OnWorkflowEnd func(context.Context, *WorkflowEvent)
}
