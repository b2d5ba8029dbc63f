package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteops/internal/model"
)

func intPtr(v int) *int { return &v }

func TestBuildTaskTree(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Title: "foundation"},
		{ID: 2, Title: "excavate", ParentID: intPtr(1)},
		{ID: 3, Title: "pour", ParentID: intPtr(1)},
		{ID: 4, Title: "roofing"},
		{ID: 5, Title: "shingles", ParentID: intPtr(4)},
		{ID: 6, Title: "nested", ParentID: intPtr(2)},
	}

	roots := BuildTaskTree(tasks)

	require.Len(t, roots, 2)
	assert.Equal(t, 1, roots[0].ID)
	assert.Equal(t, 4, roots[1].ID)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, 2, roots[0].Children[0].ID)
	assert.Equal(t, 3, roots[0].Children[1].ID)

	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, 6, roots[0].Children[0].Children[0].ID)

	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, 5, roots[1].Children[0].ID)
}

func TestBuildTaskTreeChildBeforeParent(t *testing.T) {
	tasks := []model.Task{
		{ID: 2, ParentID: intPtr(1)},
		{ID: 1},
	}

	roots := BuildTaskTree(tasks)

	require.Len(t, roots, 1)
	assert.Equal(t, 1, roots[0].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, 2, roots[0].Children[0].ID)
}

func TestBuildTaskTreeOrphanPromoted(t *testing.T) {
	tasks := []model.Task{
		{ID: 1},
		{ID: 2, ParentID: intPtr(99)},
	}

	roots := BuildTaskTree(tasks)

	require.Len(t, roots, 2)
	assert.Equal(t, 2, roots[1].ID)
	assert.Empty(t, roots[1].Children)
}

func TestBuildTaskTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildTaskTree(nil))
	assert.NotNil(t, BuildTaskTree(nil))
}
