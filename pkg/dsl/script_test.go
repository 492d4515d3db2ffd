package dsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/trawler/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_YAMLTasks(t *testing.T) {
	src := `
tasks:
  - - [driver, navigate, "https://example.test"]
    - [collect, title, "//h1"]
    - [fallback, collect, title, "//title"]
  - - [collect, links, all, [css, a]]
`
	script, err := Decode([]byte(src))
	require.NoError(t, err)
	require.Len(t, script.Tasks, 2)

	tasks, err := script.Parse()
	require.NoError(t, err)
	require.Len(t, tasks[0], 3)
	assert.Equal(t, domain.Fallback(domain.Collect("title", domain.XPath("//title"))), tasks[0][2])
	assert.Equal(t, domain.CollectAction{Path: "links", Selector: domain.CSS("a"), Multiple: true}, tasks[1][0])
}

func TestDecode_JSONActionsPayload(t *testing.T) {
	src := `{"actions": [["driver", "navigate", "https://example.test"], ["driver", "write", "//input", 7]]}`
	script, err := Decode([]byte(src))
	require.NoError(t, err)
	require.Len(t, script.Tasks, 1)

	tasks, err := script.Parse()
	require.NoError(t, err)
	assert.Equal(t, domain.Write(domain.XPath("//input"), "7"), tasks[0][1])
}

func TestDecode_ListShapes(t *testing.T) {
	single, err := Decode([]byte(`[["driver", "navigate", "https://a.test"]]`))
	require.NoError(t, err)
	assert.Len(t, single.Tasks, 1)

	many, err := Decode([]byte(`[[["driver", "navigate", "https://a.test"]], [["collect", "x", "//x"]]]`))
	require.NoError(t, err)
	assert.Len(t, many.Tasks, 2)

	empty, err := Decode([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Tasks)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode([]byte(`{"steps": []}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`"just a string"`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"tasks": ["not a list"]}`))
	assert.Error(t, err)
}

func TestScriptParse_NamesTaskAndAction(t *testing.T) {
	script := &Script{Tasks: [][]any{
		{[]any{"driver", "navigate", "https://a.test"}},
		{[]any{"collect", "x", "//x"}, []any{"jump"}},
	}}

	_, err := script.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task 2: action 2:")
	assert.ErrorIs(t, err, domain.ErrUnknownActionType)

	lenient := script.ParseLenient()
	require.Len(t, lenient, 2)
	assert.IsType(t, domain.InvalidAction{}, lenient[1][1])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("actions:\n  - [driver, navigate, \"https://a.test\"]\n"), 0o644))

	script, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, script.Tasks, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
