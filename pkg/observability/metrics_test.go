package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/trawler"
	"github.com/aretw0/trawler/pkg/adapters/memory"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const site = "https://example.test"

func TestMetrics_RecordWorkflow(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	drv := memory.NewDriver(map[string]memory.Page{
		site: {Elements: map[string][]string{"//title": {"T"}}},
	})
	wf := trawler.New(drv, trawler.WithLifecycleHooks(metrics.Hooks()))
	wf.Add([]domain.Action{
		domain.Navigate(site),
		domain.Collect("t", domain.XPath("//h1")),
		domain.Fallback(domain.Collect("t", domain.XPath("//title"))),
		domain.Fallback(domain.Collect("t", domain.XPath("//h2"))),
	})
	_, err := wf.Execute(context.Background())
	require.NoError(t, err)

	expected := `
# HELP trawler_actions_total Actions executed, by kind and outcome (succeeded, failed, skipped, error).
# TYPE trawler_actions_total counter
trawler_actions_total{kind="collect",outcome="failed"} 1
trawler_actions_total{kind="driver",outcome="succeeded"} 1
trawler_actions_total{kind="fallback",outcome="skipped"} 1
trawler_actions_total{kind="fallback",outcome="succeeded"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "trawler_actions_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "trawler_workflows_total"))
	assert.Equal(t, 3, testutil.CollectAndCount(reg, "trawler_action_duration_seconds"))
}

func TestMetrics_HaltedWorkflow(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	drv := memory.NewDriver(nil)
	drv.Fail(domain.OpNavigate, site, errors.New("net down"))
	wf := trawler.New(drv, trawler.WithLifecycleHooks(metrics.Hooks()))
	wf.Add([]domain.Action{domain.Navigate(site)})

	_, err := wf.Execute(context.Background())
	require.Error(t, err)

	expected := `
# HELP trawler_workflows_total Workflows finished, by status (completed, halted).
# TYPE trawler_workflows_total counter
trawler_workflows_total{status="halted"} 1
# HELP trawler_tasks_total Tasks finished, by status (completed, aborted).
# TYPE trawler_tasks_total counter
trawler_tasks_total{status="aborted"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "trawler_workflows_total", "trawler_tasks_total"))
}

func TestChain(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnTaskStart: func(context.Context, *domain.TaskEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnTaskStart: func(context.Context, *domain.TaskEvent) { calls = append(calls, "b") },
		OnActionEnd: func(context.Context, *domain.ActionEvent) { calls = append(calls, "b-action") },
	}

	chained := observability.Chain(a, domain.LifecycleHooks{}, b)
	chained.OnTaskStart(context.Background(), &domain.TaskEvent{})
	chained.OnActionEnd(context.Background(), &domain.ActionEvent{})
	chained.OnWorkflowEnd(context.Background(), &domain.WorkflowEvent{})

	assert.Equal(t, []string{"a", "b", "b-action"}, calls)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	wf := trawler.New(memory.NewDriver(nil), trawler.WithLifecycleHooks(observability.LogHooks(logger)))
	wf.Add([]domain.Action{domain.Navigate(site)})
	_, err := wf.Execute(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "task_start")
	assert.Contains(t, out, "task_end")
	assert.Contains(t, out, "workflow_end")
}
