package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"note-planner/internal/model"
)

func ptr(v uint) *uint { return &v }

// forest:
//
//	1
//	└── 2
//	    ├── 3
//	    │   └── 5
//	    └── 4
//	6
func testForest() []model.Category {
	return []model.Category{
		{ID: 1, UserID: 7},
		{ID: 2, UserID: 7, ParentID: ptr(1)},
		{ID: 3, UserID: 7, ParentID: ptr(2)},
		{ID: 4, UserID: 7, ParentID: ptr(2)},
		{ID: 5, UserID: 7, ParentID: ptr(3)},
		{ID: 6, UserID: 7},
	}
}

func TestNavigator_Ancestors(t *testing.T) {
	nav := NewNavigator(testForest())

	assert.Empty(t, nav.Ancestors(1))
	assert.Equal(t, []uint{1}, nav.Ancestors(2))
	assert.Equal(t, []uint{3, 2, 1}, nav.Ancestors(5))
	assert.Empty(t, nav.Ancestors(6))
}

func TestNavigator_Descendants(t *testing.T) {
	nav := NewNavigator(testForest())

	assert.ElementsMatch(t, []uint{2, 3, 4, 5}, nav.Descendants(1))
	assert.ElementsMatch(t, []uint{5}, nav.Descendants(3))
	assert.Empty(t, nav.Descendants(5))
	assert.Empty(t, nav.Descendants(6))
}

func TestNavigator_WouldCreateCycle(t *testing.T) {
	nav := NewNavigator(testForest())

	tests := []struct {
		name     string
		id       uint
		proposed uint
		want     bool
	}{
		{"self parent", 2, 2, true},
		{"direct child", 2, 3, true},
		{"deep descendant", 1, 5, true},
		{"sibling", 3, 4, false},
		{"other root", 2, 6, false},
		{"own ancestor", 5, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nav.WouldCreateCycle(tt.id, tt.proposed))
		})
	}
}

func TestNavigator_DepthAndRoot(t *testing.T) {
	nav := NewNavigator(testForest())

	assert.Equal(t, 0, nav.Depth(1))
	assert.Equal(t, 1, nav.Depth(2))
	assert.Equal(t, 3, nav.Depth(5))
	assert.Equal(t, 0, nav.Depth(6))

	assert.Equal(t, uint(1), nav.Root(5))
	assert.Equal(t, uint(1), nav.Root(1))
	assert.Equal(t, uint(6), nav.Root(6))
}

func TestNavigator_MalformedDataDoesNotLoop(t *testing.T) {
	// Two nodes pointing at each other must not hang traversal.
	nav := NewNavigator([]model.Category{
		{ID: 1, ParentID: ptr(2)},
		{ID: 2, ParentID: ptr(1)},
	})

	assert.Equal(t, []uint{2}, nav.Ancestors(1))
	assert.ElementsMatch(t, []uint{2}, nav.Descendants(1))
	assert.True(t, nav.WouldCreateCycle(1, 2))
}
