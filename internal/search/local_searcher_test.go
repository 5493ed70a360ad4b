package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/internal/gazetteer"
)

func loadTree(t *testing.T) *gazetteer.Tree {
	t.Helper()
	tree, err := gazetteer.LoadFile("../gazetteer/testdata/sample.json")
	require.NoError(t, err)
	return tree
}

func hitIDs(hits []Hit) []string {
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.AdminID)
	}
	return ids
}

func TestLocalSearcher_Search(t *testing.T) {
	ls := NewLocalSearcher(loadTree(t))
	ctx := context.Background()

	t.Run("exact name first", func(t *testing.T) {
		hits, err := ls.Search(ctx, Query{Text: "Quận 1"})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "760", hits[0].AdminID)
		assert.Equal(t, 1.0, hits[0].Score)
		assert.Equal(t, "79", hits[0].ParentID)
		assert.Equal(t, []string{"79"}, hits[0].Path)
	})

	t.Run("same score ordered by id", func(t *testing.T) {
		hits, err := ls.Search(ctx, Query{Text: "chau thanh"})
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(hits), 2)
		assert.Equal(t, []string{"808", "820"}, hitIDs(hits[:2]))
	})

	t.Run("parent filter", func(t *testing.T) {
		hits, err := ls.Search(ctx, Query{Text: "Châu Thành", ParentID: "80"})
		require.NoError(t, err)
		assert.Equal(t, []string{"808"}, hitIDs(hits))
		assert.Equal(t, 2, hits[0].Level)
	})

	t.Run("level filter skips stale", func(t *testing.T) {
		hits, err := ls.Search(ctx, Query{Text: "phuong 6", Level: 3})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "27142", hits[0].AdminID)
		assert.NotContains(t, hitIDs(hits), "27140")
		for _, h := range hits {
			assert.Equal(t, 3, h.Level)
		}
	})

	t.Run("alias", func(t *testing.T) {
		hits, err := ls.Search(ctx, Query{Text: "sai gon", Level: 1})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "79", hits[0].AdminID)
	})

	t.Run("limit", func(t *testing.T) {
		hits, err := ls.Search(ctx, Query{Text: "phuong", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})
}

func TestLocalSearcher_Errors(t *testing.T) {
	ls := NewLocalSearcher(loadTree(t))

	_, err := ls.Search(context.Background(), Query{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ls.Search(ctx, Query{Text: "ha noi"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNameScore(t *testing.T) {
	assert.Equal(t, 1.0, nameScore("ha noi", []string{"thanh pho ha noi", "ha noi"}))
	assert.Equal(t, prefixScore, nameScore("ha", []string{"ha noi"}))
	assert.Less(t, nameScore("ca mau", []string{"ha noi"}), minLocalScore)
	assert.Equal(t, 0.0, nameScore("ha noi", nil))
}
