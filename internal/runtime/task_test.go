package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/trawler/internal/runtime"
	"github.com/aretw0/trawler/pkg/adapters/memory"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const site = "https://example.test"

func newEnv(drv *memory.Driver) runtime.Env {
	return runtime.Env{Driver: drv, State: domain.NewTree()}
}

func page(elements map[string][]string) *memory.Driver {
	return memory.NewDriver(map[string]memory.Page{site: {Elements: elements}})
}

func TestTask_FallbackSkippedAfterSuccess(t *testing.T) {
	drv := page(map[string][]string{"//h1": {"Heading"}, "//title": {"Title"}})
	env := newEnv(drv)

	task := runtime.NewTask(1, []domain.Action{
		domain.Navigate(site),
		domain.Collect("title", domain.XPath("//h1")),
		domain.Fallback(domain.Collect("title", domain.XPath("//title"))),
	})

	ledger, err := task.Execute(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, domain.Tree{"title": "Heading"}, env.State)
	assert.Equal(t, domain.Ledger{0: domain.OutcomeSucceeded, 1: domain.OutcomeSucceeded}, ledger)
	_, recorded := ledger.Lookup(2)
	assert.False(t, recorded, "skipped fallback leaves no ledger entry")
	assert.False(t, drv.Called(domain.OpRead, "//title"), "fallback read must never reach the driver")
}

func TestTask_FallbackRunsAfterNotFound(t *testing.T) {
	drv := page(map[string][]string{"//title": {"Title"}})
	env := newEnv(drv)

	task := runtime.NewTask(1, []domain.Action{
		domain.Navigate(site),
		domain.Collect("title", domain.XPath("//h1")),
		domain.Fallback(domain.Collect("title", domain.XPath("//title"))),
	})

	ledger, err := task.Execute(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, domain.Tree{"title": "Title"}, env.State)
	assert.Equal(t, domain.OutcomeFailed, ledger[1])
	assert.Equal(t, domain.OutcomeSucceeded, ledger[2])
}

func TestTask_FallbackAfterDriverAction(t *testing.T) {
	drv := page(map[string][]string{"//button[2]": {"Accept"}})
	env := newEnv(drv)

	task := runtime.NewTask(1, []domain.Action{
		domain.Navigate(site),
		domain.Click(domain.XPath("//button[1]")),
		domain.Fallback(domain.Click(domain.XPath("//button[2]"))),
	})

	ledger, err := task.Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, ledger[1])
	assert.Equal(t, domain.OutcomeSucceeded, ledger[2])
	assert.True(t, drv.Called(domain.OpClick, "//button[2]"))
}

func TestTask_FallbackAtIndexZeroNeverRuns(t *testing.T) {
	drv := page(map[string][]string{"//h1": {"Heading"}})
	env := newEnv(drv)
	require.NoError(t, drv.Navigate(context.Background(), site))

	task := runtime.NewTask(1, []domain.Action{
		domain.Fallback(domain.Collect("title", domain.XPath("//h1"))),
	})

	ledger, err := task.Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Empty(t, ledger)
	assert.Empty(t, env.State)
	assert.False(t, drv.Called(domain.OpRead, "//h1"))
}

func TestTask_FallbackChain(t *testing.T) {
	chain := func() []domain.Action {
		return []domain.Action{
			domain.Collect("v", domain.XPath("//a")),
			domain.Fallback(domain.Collect("v", domain.XPath("//b"))),
			domain.Fallback(domain.Collect("v", domain.XPath("//c"))),
			domain.Fallback(domain.Collect("v", domain.XPath("//d"))),
		}
	}

	t.Run("each failure hands over to the next", func(t *testing.T) {
		drv := page(map[string][]string{"//d": {"last"}})
		require.NoError(t, drv.Navigate(context.Background(), site))
		env := newEnv(drv)

		ledger, err := runtime.NewTask(1, chain()).Execute(context.Background(), env)
		require.NoError(t, err)
		assert.Equal(t, domain.Ledger{
			0: domain.OutcomeFailed,
			1: domain.OutcomeFailed,
			2: domain.OutcomeFailed,
			3: domain.OutcomeSucceeded,
		}, ledger)
		assert.Equal(t, domain.Tree{"v": "last"}, env.State)
	})

	t.Run("first success suppresses the rest", func(t *testing.T) {
		drv := page(map[string][]string{"//b": {"second"}, "//c": {"third"}, "//d": {"fourth"}})
		require.NoError(t, drv.Navigate(context.Background(), site))
		env := newEnv(drv)

		ledger, err := runtime.NewTask(1, chain()).Execute(context.Background(), env)
		require.NoError(t, err)
		assert.Equal(t, domain.Ledger{0: domain.OutcomeFailed, 1: domain.OutcomeSucceeded}, ledger)
		assert.Equal(t, domain.Tree{"v": "second"}, env.State)
		assert.False(t, drv.Called(domain.OpRead, "//c"))
		assert.False(t, drv.Called(domain.OpRead, "//d"))
	})
}

func TestTask_AdjacencyDoesNotLookPastAbsentEntries(t *testing.T) {
	// 0 fails, 1 succeeds, 2 is skipped (absent), 3 looks only at 2.
	drv := page(map[string][]string{"//b": {"b"}, "//c": {"c"}, "//d": {"d"}})
	require.NoError(t, drv.Navigate(context.Background(), site))
	env := newEnv(drv)

	ledger, err := runtime.NewTask(1, []domain.Action{
		domain.Collect("x", domain.XPath("//a")),
		domain.Collect("y", domain.XPath("//b")),
		domain.Fallback(domain.Collect("z", domain.XPath("//c"))),
		domain.Fallback(domain.Collect("w", domain.XPath("//d"))),
	}).Execute(context.Background(), env)

	require.NoError(t, err)
	assert.Equal(t, domain.Ledger{0: domain.OutcomeFailed, 1: domain.OutcomeSucceeded}, ledger)
	assert.Equal(t, domain.Tree{"y": "b"}, env.State)
}

func TestTask_InvalidActionAbortsWithoutSideEffects(t *testing.T) {
	drv := page(map[string][]string{"//h1": {"Heading"}, "//p": {"Para"}})
	env := newEnv(drv)

	cfgErr := domain.NewConfigError(domain.ErrUnknownActionType, "%q", "jump")
	task := runtime.NewTask(3, []domain.Action{
		domain.Navigate(site),
		domain.Collect("h", domain.XPath("//h1")),
		domain.InvalidAction{Raw: []any{"jump", "//x"}, Err: cfgErr},
		domain.Collect("p", domain.XPath("//p")),
	})

	ledger, err := task.Execute(context.Background(), env)

	var taskErr *domain.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, 3, taskErr.TaskID)
	assert.Equal(t, 3, taskErr.Step)
	assert.ErrorIs(t, err, domain.ErrUnknownActionType)
	assert.True(t, domain.IsConfigError(err))

	assert.Equal(t, domain.Tree{"h": "Heading"}, env.State)
	assert.Len(t, ledger, 2)
	assert.False(t, drv.Called(domain.OpRead, "//p"))
}

func TestTask_UnknownDriverMethodFailsBeforeCall(t *testing.T) {
	drv := page(nil)
	env := newEnv(drv)

	_, err := runtime.NewTask(1, []domain.Action{
		domain.DriverAction{Call: domain.DriverCall{Op: "quit"}},
	}).Execute(context.Background(), env)

	assert.ErrorIs(t, err, domain.ErrUnknownDriverMethod)
	assert.Empty(t, drv.Calls())
}

func TestTask_MalformedFallbackSkippedAfterSuccess(t *testing.T) {
	drv := page(map[string][]string{"//h1": {"Welcome"}, "//title": {"Home"}})
	env := newEnv(drv)

	cfgErr := domain.NewConfigError(domain.ErrUnknownDriverMethod, "%v", "quit")
	task := runtime.NewTask(1, []domain.Action{
		domain.Navigate(site),
		domain.Collect("h", domain.XPath("//h1")),
		domain.InvalidAction{Raw: []any{"fallback", "driver", "quit"}, Err: cfgErr},
		domain.Collect("t", domain.XPath("//title")),
	})

	ledger, err := task.Execute(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, domain.Tree{"h": "Welcome", "t": "Home"}, env.State)
	_, recorded := ledger.Lookup(2)
	assert.False(t, recorded)
}

func TestTask_MalformedFallbackAbortsWhenReached(t *testing.T) {
	drv := page(map[string][]string{"//title": {"Home"}})
	env := newEnv(drv)

	cfgErr := domain.NewConfigError(domain.ErrUnknownDriverMethod, "%v", "quit")
	task := runtime.NewTask(1, []domain.Action{
		domain.Navigate(site),
		domain.Collect("h", domain.XPath("//h1")),
		domain.InvalidAction{Raw: []any{"fallback", "driver", "quit"}, Err: cfgErr},
		domain.Collect("t", domain.XPath("//title")),
	})

	_, err := task.Execute(context.Background(), env)

	var taskErr *domain.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, 3, taskErr.Step)
	assert.ErrorIs(t, err, domain.ErrUnknownDriverMethod)
	assert.False(t, drv.Called(domain.OpRead, "//title"))
}

func TestTask_NestedFallbackIsConfigError(t *testing.T) {
	drv := page(nil)
	env := newEnv(drv)

	_, err := runtime.NewTask(1, []domain.Action{
		domain.Click(domain.XPath("//missing")),
		domain.Fallback(domain.Fallback(domain.Click(domain.XPath("//x")))),
	}).Execute(context.Background(), env)

	assert.ErrorIs(t, err, domain.ErrNestedFallback)
}

func TestTask_UnrecoverableDriverErrorPropagates(t *testing.T) {
	drv := page(map[string][]string{"//h1": {"Heading"}})
	crash := errors.New("session crashed")
	drv.Fail(domain.OpRead, "//p", crash)
	env := newEnv(drv)

	ledger, err := runtime.NewTask(1, []domain.Action{
		domain.Navigate(site),
		domain.Collect("h", domain.XPath("//h1")),
		domain.Collect("p", domain.XPath("//p")),
		domain.Fallback(domain.Collect("p", domain.XPath("//h1"))),
	}).Execute(context.Background(), env)

	assert.ErrorIs(t, err, crash)
	assert.False(t, domain.IsConfigError(err))
	assert.Equal(t, domain.Tree{"h": "Heading"}, env.State, "earlier writes are kept")
	_, recorded := ledger.Lookup(2)
	assert.False(t, recorded)
}

func TestTask_PathConflictUnderErrorPolicy(t *testing.T) {
	drv := page(map[string][]string{"//a": {"leaf"}, "//b": {"nested"}})
	require.NoError(t, drv.Navigate(context.Background(), site))
	env := newEnv(drv)
	env.Policy = domain.ConflictError

	_, err := runtime.NewTask(1, []domain.Action{
		domain.Collect("a", domain.XPath("//a")),
		domain.Collect("a/b", domain.XPath("//b")),
	}).Execute(context.Background(), env)

	var conflict *domain.PathConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, domain.Tree{"a": "leaf"}, env.State)
}

func TestTask_CollectMultiple(t *testing.T) {
	drv := page(map[string][]string{"css=span": {"one", "two"}})
	require.NoError(t, drv.Navigate(context.Background(), site))
	env := newEnv(drv)

	_, err := runtime.NewTask(1, []domain.Action{
		domain.CollectAction{Path: "news/items", Selector: domain.CSS("span"), Multiple: true},
	}).Execute(context.Background(), env)

	require.NoError(t, err)
	assert.Equal(t, domain.Tree{"news": domain.Tree{"items": []string{"one", "two"}}}, env.State)
}

func TestTask_LedgerIsFreshPerExecution(t *testing.T) {
	drv := page(map[string][]string{"//h1": {"Heading"}})
	env := newEnv(drv)
	task := runtime.NewTask(1, []domain.Action{
		domain.Navigate(site),
		domain.Collect("h", domain.XPath("//h1")),
	})

	first, err := task.Execute(context.Background(), env)
	require.NoError(t, err)
	second, err := task.Execute(context.Background(), env)
	require.NoError(t, err)

	first[0] = domain.OutcomeFailed
	assert.Equal(t, domain.OutcomeSucceeded, second[0])
}

func TestTask_Hooks(t *testing.T) {
	drv := page(map[string][]string{"//h1": {"Heading"}})
	env := newEnv(drv)

	var events []*domain.ActionEvent
	var ended *domain.TaskEvent
	env.Hooks = domain.LifecycleHooks{
		OnActionEnd: func(_ context.Context, e *domain.ActionEvent) { events = append(events, e) },
		OnTaskEnd:   func(_ context.Context, e *domain.TaskEvent) { ended = e },
	}

	_, err := runtime.NewTask(7, []domain.Action{
		domain.Navigate(site),
		domain.Collect("h", domain.XPath("//missing")),
		domain.Fallback(domain.Collect("h", domain.XPath("//h1"))),
		domain.Fallback(domain.Collect("h", domain.XPath("//never"))),
	}).Execute(context.Background(), env)
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, domain.OutcomeSucceeded, events[0].Outcome)
	assert.Equal(t, domain.OutcomeFailed, events[1].Outcome)
	assert.Equal(t, domain.KindFallback, events[2].Kind)
	assert.Equal(t, domain.OutcomeSucceeded, events[2].Outcome)
	assert.True(t, events[3].Skipped)
	assert.Equal(t, 7, events[3].TaskID)

	require.NotNil(t, ended)
	assert.NoError(t, ended.Err)
	assert.Len(t, ended.Ledger, 3)
}
