package memory_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/trawler/pkg/adapters/memory"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver() *memory.Driver {
	return memory.NewDriver(map[string]memory.Page{
		"https://example.test": {
			Elements: map[string][]string{
				"//h1":     {"Hello"},
				"css=span": {"one", "two"},
				"//input":  {""},
				"//a":      {"next"},
			},
			Links: map[string]string{"//a": "https://example.test/2"},
		},
		"https://example.test/2": {
			Elements: map[string][]string{"//h1": {"Page two"}},
		},
	})
}

func TestDriver_ReadSingleAndMultiple(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver()
	require.NoError(t, drv.Navigate(ctx, "https://example.test"))

	v, err := drv.Read(ctx, domain.XPath("//h1"), false)
	require.NoError(t, err)
	assert.Equal(t, "Hello", v)

	v, err = drv.Read(ctx, domain.CSS("span"), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, v)

	n, err := drv.Find(ctx, domain.CSS("span"), true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDriver_NotFound(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver()
	require.NoError(t, drv.Navigate(ctx, "https://unknown.test"))

	_, err := drv.Read(ctx, domain.XPath("//h1"), false)
	assert.ErrorIs(t, err, domain.ErrElementNotFound)
	assert.ErrorIs(t, drv.Click(ctx, domain.XPath("//a")), domain.ErrElementNotFound)
	assert.ErrorIs(t, drv.Write(ctx, domain.XPath("//input"), "x"), domain.ErrElementNotFound)
}

func TestDriver_ClickFollowsLinksAndRecordsCalls(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver()
	require.NoError(t, drv.Navigate(ctx, "https://example.test"))
	require.NoError(t, drv.Write(ctx, domain.XPath("//input"), "query"))
	require.NoError(t, drv.Click(ctx, domain.XPath("//a")))

	assert.Equal(t, "https://example.test/2", drv.CurrentURL())
	assert.Equal(t, map[string]string{"//input": "query"}, drv.Inputs())
	assert.True(t, drv.Called(domain.OpClick, "//a"))
	assert.False(t, drv.Called(domain.OpRead, "//a"))
	assert.Len(t, drv.Calls(), 3)
}

func TestDriver_InjectedFault(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver()
	crash := errors.New("session crashed")
	drv.Fail(domain.OpNavigate, "https://example.test", crash)

	err := drv.Navigate(ctx, "https://example.test")
	assert.ErrorIs(t, err, crash)
	assert.NotErrorIs(t, err, domain.ErrElementNotFound)
}

func TestDriver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestDriver().Navigate(ctx, "https://example.test")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.yaml")
	content := `pages:
  https://example.test:
    elements:
      //h1: [Hello]
      css=span: [a, b]
    links:
      //a: https://example.test/2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	pages, err := memory.LoadFixtures(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, pages["https://example.test"].Elements["//h1"])
	assert.Equal(t, []string{"a", "b"}, pages["https://example.test"].Elements["css=span"])
	assert.Equal(t, "https://example.test/2", pages["https://example.test"].Links["//a"])
}
