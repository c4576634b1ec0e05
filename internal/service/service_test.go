package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"note-planner/internal/model"
	"note-planner/internal/repository"
)

// newTestDB opens an in-memory SQLite database. Pool size is pinned to one
// connection so every query sees the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type fixture struct {
	db          *gorm.DB
	categorySvc *CategoryService
	noteSvc     *NoteService
	taskSvc     *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	categoryRepo := repository.NewCategoryRepository(db)
	categorySvc := NewCategoryService(db, categoryRepo)
	return &fixture{
		db:          db,
		categorySvc: categorySvc,
		noteSvc:     NewNoteService(repository.NewNoteRepository(db), categorySvc),
		taskSvc:     NewTaskService(repository.NewTaskRepository(db), categorySvc),
	}
}

func (f *fixture) mustCategory(t *testing.T, userID uint, name string, parentID *uint) *model.Category {
	t.Helper()
	category, err := f.categorySvc.Create(context.Background(), userID, CategoryInput{
		Name:     name,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return category
}

func (f *fixture) mustNote(t *testing.T, userID uint, title string, categoryID *uint) *model.Note {
	t.Helper()
	note, err := f.noteSvc.Create(context.Background(), userID, NoteInput{
		Title:      title,
		Content:    "content of " + title,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return note
}

func (f *fixture) mustTask(t *testing.T, userID uint, title string, categoryID *uint) *model.Task {
	t.Helper()
	task, err := f.taskSvc.Create(context.Background(), userID, TaskInput{
		Title:      title,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return task
}
