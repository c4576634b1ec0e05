package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"note-planner/internal/model"
	"note-planner/internal/repository"
	"note-planner/internal/tree"
)

func newFlattenFixture(t *testing.T) (*fixture, *FlattenService) {
	t.Helper()
	f := newFixture(t)
	svc := NewFlattenService(f.db, repository.NewCategoryRepository(f.db), zap.NewNop())
	return f, svc
}

func ownerDepths(t *testing.T, f *fixture, userID uint) map[uint]int {
	t.Helper()
	categories, err := f.categorySvc.List(context.Background(), userID)
	require.NoError(t, err)
	nav := tree.NewNavigator(categories)
	depths := make(map[uint]int, len(categories))
	for _, c := range categories {
		depths[c.ID] = nav.Depth(c.ID)
	}
	return depths
}

func TestFlattenService_CollapsesDeepChains(t *testing.T) {
	f, svc := newFlattenFixture(t)
	ctx := context.Background()

	root := f.mustCategory(t, owner, "Root", nil)
	a := f.mustCategory(t, owner, "A", &root.ID)
	b := f.mustCategory(t, owner, "B", &a.ID)
	c := f.mustCategory(t, owner, "C", &b.ID)

	report, err := svc.FlattenAll(ctx)
	require.NoError(t, err)
	require.Len(t, report.Owners, 1)
	assert.Equal(t, 2, report.Owners[0].Moved)
	assert.Equal(t, 0, report.Failed())

	for id, depth := range ownerDepths(t, f, owner) {
		assert.LessOrEqualf(t, depth, 1, "category %d too deep after flatten", id)
	}

	// Everyone below the root now points directly at it.
	for _, id := range []uint{b.ID, c.ID} {
		got, err := f.categorySvc.Get(ctx, owner, id)
		require.NoError(t, err)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, root.ID, *got.ParentID)
	}
}

func TestFlattenService_IsIdempotent(t *testing.T) {
	f, svc := newFlattenFixture(t)
	ctx := context.Background()

	root := f.mustCategory(t, owner, "Root", nil)
	a := f.mustCategory(t, owner, "A", &root.ID)
	f.mustCategory(t, owner, "B", &a.ID)

	first, err := svc.FlattenAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.Owners[0].Moved)

	second, err := svc.FlattenAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Owners[0].Moved)
}

func TestFlattenService_ProcessesOwnersIndependently(t *testing.T) {
	f, svc := newFlattenFixture(t)
	ctx := context.Background()

	rootA := f.mustCategory(t, owner, "Root", nil)
	midA := f.mustCategory(t, owner, "Mid", &rootA.ID)
	f.mustCategory(t, owner, "Leaf", &midA.ID)

	rootB := f.mustCategory(t, otherOwner, "Root", nil)
	f.mustCategory(t, otherOwner, "Child", &rootB.ID)

	report, err := svc.FlattenAll(ctx)
	require.NoError(t, err)
	require.Len(t, report.Owners, 2)

	moved := map[uint]int{}
	for _, o := range report.Owners {
		require.NoError(t, o.Err)
		moved[o.UserID] = o.Moved
	}
	assert.Equal(t, 1, moved[owner])
	assert.Equal(t, 0, moved[otherOwner])
}

func TestFlattenService_LeavesNotesAndTasksAlone(t *testing.T) {
	f, svc := newFlattenFixture(t)
	ctx := context.Background()

	root := f.mustCategory(t, owner, "Root", nil)
	mid := f.mustCategory(t, owner, "Mid", &root.ID)
	leaf := f.mustCategory(t, owner, "Leaf", &mid.ID)
	note := f.mustNote(t, owner, "pinned", &leaf.ID)
	task := f.mustTask(t, owner, "chore", &leaf.ID)

	_, err := svc.FlattenAll(ctx)
	require.NoError(t, err)

	gotNote, err := f.noteSvc.Get(ctx, owner, note.ID)
	require.NoError(t, err)
	require.NotNil(t, gotNote.CategoryID)
	assert.Equal(t, leaf.ID, *gotNote.CategoryID)

	gotTask, err := f.taskSvc.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	require.NotNil(t, gotTask.CategoryID)
	assert.Equal(t, leaf.ID, *gotTask.CategoryID)
}

func TestFlattenService_NoCategoriesNoWork(t *testing.T) {
	f, svc := newFlattenFixture(t)

	report, err := svc.FlattenAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Owners)

	var count int64
	require.NoError(t, f.db.Model(&model.Category{}).Count(&count).Error)
	assert.Zero(t, count)
}
