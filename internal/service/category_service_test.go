package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner      uint = 1
	otherOwner uint = 2
)

func TestCategoryService_CreateRejectsForeignParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	foreign := f.mustCategory(t, otherOwner, "Their Root", nil)

	_, err := f.categorySvc.Create(ctx, owner, CategoryInput{Name: "Mine", ParentID: &foreign.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryService_CreateRejectsEmptyName(t *testing.T) {
	f := newFixture(t)

	_, err := f.categorySvc.Create(context.Background(), owner, CategoryInput{Name: ""})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCategoryService_UpdateRejectsCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCategory(t, owner, "Root", nil)
	child := f.mustCategory(t, owner, "Child", &root.ID)
	grandchild := f.mustCategory(t, owner, "Grandchild", &child.ID)

	tests := []struct {
		name   string
		id     uint
		parent uint
	}{
		{"self", child.ID, child.ID},
		{"direct child", child.ID, grandchild.ID},
		{"deep descendant", root.ID, grandchild.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.categorySvc.Update(ctx, owner, tt.id, CategoryUpdate{Parent: &tt.parent})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}

	// The tree is unchanged after the rejected updates.
	got, err := f.categorySvc.Get(ctx, owner, grandchild.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, child.ID, *got.ParentID)
}

func TestCategoryService_UpdateReparentAndRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rootA := f.mustCategory(t, owner, "A", nil)
	rootB := f.mustCategory(t, owner, "B", nil)
	child := f.mustCategory(t, owner, "Child", &rootA.ID)

	name := "Renamed"
	updated, err := f.categorySvc.Update(ctx, owner, child.ID, CategoryUpdate{Name: &name, Parent: &rootB.ID})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, rootB.ID, *updated.ParentID)

	madeRoot, err := f.categorySvc.Update(ctx, owner, child.ID, CategoryUpdate{MakeRoot: true})
	require.NoError(t, err)
	assert.Nil(t, madeRoot.ParentID)
}

func TestCategoryService_UpdateRejectsForeignParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.mustCategory(t, owner, "Mine", nil)
	theirs := f.mustCategory(t, otherOwner, "Theirs", nil)

	_, err := f.categorySvc.Update(ctx, owner, mine.ID, CategoryUpdate{Parent: &theirs.ID})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

// Deleting a mid-tree category reassigns every note, task and child category
// to the deleted node's parent, then removes the row.
func TestCategoryService_DeleteMergesIntoParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCategory(t, owner, "Root", nil)
	middle := f.mustCategory(t, owner, "Middle", &root.ID)
	grandchild := f.mustCategory(t, owner, "Grandchild", &middle.ID)

	var noteIDs, taskIDs []uint
	for _, title := range []string{"n1", "n2", "n3"} {
		noteIDs = append(noteIDs, f.mustNote(t, owner, title, &middle.ID).ID)
	}
	for _, title := range []string{"t1", "t2", "t3"} {
		taskIDs = append(taskIDs, f.mustTask(t, owner, title, &middle.ID).ID)
	}

	require.NoError(t, f.categorySvc.Delete(ctx, owner, middle.ID))

	_, err := f.categorySvc.Get(ctx, owner, middle.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, id := range noteIDs {
		note, err := f.noteSvc.Get(ctx, owner, id)
		require.NoError(t, err)
		require.NotNil(t, note.CategoryID)
		assert.Equal(t, root.ID, *note.CategoryID)
	}
	for _, id := range taskIDs {
		task, err := f.taskSvc.Get(ctx, owner, id)
		require.NoError(t, err)
		require.NotNil(t, task.CategoryID)
		assert.Equal(t, root.ID, *task.CategoryID)
	}

	// The former grandchild is now a direct child of root.
	got, err := f.categorySvc.Get(ctx, owner, grandchild.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)
}

// Deleting a root category leaves every dependent unassigned, not orphaned.
func TestCategoryService_DeleteRootUnassignsDependents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCategory(t, owner, "Root", nil)
	child := f.mustCategory(t, owner, "Child", &root.ID)
	note := f.mustNote(t, owner, "note", &root.ID)
	task := f.mustTask(t, owner, "task", &root.ID)

	require.NoError(t, f.categorySvc.Delete(ctx, owner, root.ID))

	gotNote, err := f.noteSvc.Get(ctx, owner, note.ID)
	require.NoError(t, err)
	assert.Nil(t, gotNote.CategoryID)

	gotTask, err := f.taskSvc.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Nil(t, gotTask.CategoryID)

	gotChild, err := f.categorySvc.Get(ctx, owner, child.ID)
	require.NoError(t, err)
	assert.Nil(t, gotChild.ParentID)
}

// A second user deleting someone else's category gets NotFound and changes
// nothing, the same answer they would get for a category that does not exist.
func TestCategoryService_DeleteByNonOwnerLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCategory(t, owner, "Root", nil)
	child := f.mustCategory(t, owner, "Child", &root.ID)
	note := f.mustNote(t, owner, "note", &child.ID)

	err := f.categorySvc.Delete(ctx, otherOwner, child.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.categorySvc.Get(ctx, owner, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)

	gotNote, err := f.noteSvc.Get(ctx, owner, note.ID)
	require.NoError(t, err)
	require.NotNil(t, gotNote.CategoryID)
	assert.Equal(t, child.ID, *gotNote.CategoryID)
}

func TestCategoryService_DeleteTwiceReportsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category := f.mustCategory(t, owner, "Once", nil)
	require.NoError(t, f.categorySvc.Delete(ctx, owner, category.ID))
	assert.ErrorIs(t, f.categorySvc.Delete(ctx, owner, category.ID), ErrNotFound)
}

func TestCategoryService_SubtreeIncludesAllDescendants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCategory(t, owner, "Root", nil)
	child := f.mustCategory(t, owner, "Child", &root.ID)
	grandchild := f.mustCategory(t, owner, "Grandchild", &child.ID)
	f.mustCategory(t, owner, "Unrelated", nil)

	ids, err := f.categorySvc.Subtree(ctx, owner, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{root.ID, child.ID, grandchild.ID}, ids)
}
