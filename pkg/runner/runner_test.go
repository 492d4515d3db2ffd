package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/trawler"
	"github.com/aretw0/trawler/pkg/adapters/memory"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/dsl"
	"github.com/aretw0/trawler/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const site = "https://example.test"

func newDriver() *memory.Driver {
	return memory.NewDriver(map[string]memory.Page{
		site: {Elements: map[string][]string{"//h1": {"Hello"}}},
	})
}

func TestRunner_RunSavesResult(t *testing.T) {
	store := memory.NewStore()
	r := runner.New(newDriver(), runner.WithStore(store))
	r.NewID = func() string { return "fixed-id" }

	res, err := r.Run(context.Background(), [][]domain.Action{
		{domain.Navigate(site), domain.Collect("title", domain.XPath("//h1"))},
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", res.ID)
	assert.Equal(t, domain.Tree{"title": "Hello"}, res.State)
	assert.False(t, res.Report.Halted)

	saved, err := r.Load(context.Background(), "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, res.State, saved)

	ids, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fixed-id"}, ids)

	require.NoError(t, r.Delete(context.Background(), "fixed-id"))
	_, err = r.Load(context.Background(), "fixed-id")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestRunner_HaltedRunKeepsPartialState(t *testing.T) {
	store := memory.NewStore()
	r := runner.New(newDriver(), runner.WithStore(store))

	script, err := dsl.Decode([]byte(`[[["driver","navigate","https://example.test"],["collect","title","//h1"]],[["jump"]]]`))
	require.NoError(t, err)

	res, err := r.RunScript(context.Background(), script)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownActionType)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.ID, "partial results are saved too")
	assert.Equal(t, domain.Tree{"title": "Hello"}, res.State)
	assert.True(t, res.Report.Halted)
	assert.NotEmpty(t, res.Error)
}

func TestRunner_NoStore(t *testing.T) {
	r := runner.New(newDriver())

	res, err := r.Run(context.Background(), [][]domain.Action{{domain.Navigate(site)}})
	require.NoError(t, err)
	assert.Empty(t, res.ID)

	_, err = r.Load(context.Background(), "x")
	assert.ErrorIs(t, err, trawler.ErrNoStore)
	_, err = r.List(context.Background())
	assert.ErrorIs(t, err, trawler.ErrNoStore)
}

// slowDriver tracks how many navigations overlap.
type slowDriver struct {
	*memory.Driver
	active, peak atomic.Int32
}

func (d *slowDriver) Navigate(ctx context.Context, url string) error {
	n := d.active.Add(1)
	defer d.active.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return d.Driver.Navigate(ctx, url)
}

func TestRunner_SerializesRuns(t *testing.T) {
	drv := &slowDriver{Driver: newDriver()}
	r := runner.New(drv)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(context.Background(), [][]domain.Action{{domain.Navigate(site)}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), drv.peak.Load())
}

func TestRunner_LockCancelled(t *testing.T) {
	locker := memory.NewLocker()
	unlock, err := locker.Lock(context.Background(), runner.DefaultLockKey, time.Minute)
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	r := runner.New(newDriver(), runner.WithLocker(locker))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = r.Run(ctx, [][]domain.Action{{domain.Navigate(site)}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
