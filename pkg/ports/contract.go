package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/trawler/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore
// implementation adheres to the interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	resultID := "contract-test-result-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		tree := domain.NewTree()
		require.NoError(t, tree.Store("page1/title", "Hello", domain.ConflictOverwrite))
		require.NoError(t, tree.Store("news", []string{"a", "b"}, domain.ConflictOverwrite))

		err := store.Save(ctx, resultID, tree)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, resultID)
		require.NoError(t, err, "Load should not return error")

		title, ok := loaded.Lookup("page1/title")
		assert.True(t, ok)
		assert.Equal(t, "Hello", title)

		// JSON backends decode string lists as []any; both shapes are acceptable.
		news, ok := loaded.Lookup("news")
		require.True(t, ok)
		assert.Len(t, news, 2)
	})

	t.Run("Isolation", func(t *testing.T) {
		tree := domain.Tree{"k": "v"}
		require.NoError(t, store.Save(ctx, resultID, tree))
		tree["k"] = "mutated"

		loaded, err := store.Load(ctx, resultID)
		require.NoError(t, err)
		assert.Equal(t, "v", loaded["k"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+resultID)
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, resultID, domain.NewTree()))

		err := store.Delete(ctx, resultID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, resultID)
		assert.ErrorIs(t, err, domain.ErrResultNotFound, "Load after Delete should return ErrResultNotFound")

		assert.NoError(t, store.Delete(ctx, resultID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := resultID + "-1"
		id2 := resultID + "-2"
		_ = store.Save(ctx, id1, domain.NewTree())
		_ = store.Save(ctx, id2, domain.NewTree())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
