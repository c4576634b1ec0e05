package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"note-planner/internal/model"
	"note-planner/internal/repository"
)

// TaskInput carries the fields for creating a task.
type TaskInput struct {
	Title       string `validate:"required,max=200"`
	Description string
	DueAt       *time.Time
	CategoryID  *uint
}

// TaskUpdate carries a partial update. Category and ClearCategory are
// mutually exclusive; when both are zero the reference is left alone.
type TaskUpdate struct {
	Title         *string `validate:"omitempty,min=1,max=200"`
	Description   *string
	DueAt         *time.Time
	Category      *uint
	ClearCategory bool
}

// TaskService wraps task business logic. Like NoteService, it only validates
// category references; the category engine owns all reparenting.
type TaskService struct {
	tasks       *repository.TaskRepository
	categorySvc *CategoryService
	validate    *validator.Validate
}

func NewTaskService(tasks *repository.TaskRepository, categorySvc *CategoryService) *TaskService {
	return &TaskService{tasks: tasks, categorySvc: categorySvc, validate: validator.New()}
}

func (s *TaskService) Create(ctx context.Context, userID uint, input TaskInput) (*model.Task, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationf("invalid task: %v", err)
	}
	if input.CategoryID != nil {
		if _, err := s.categorySvc.Get(ctx, userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	task := model.Task{
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Title:       input.Title,
		Description: input.Description,
		DueAt:       input.DueAt,
	}
	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, translateStoreErr(err, "create task")
	}
	return &task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFoundOr(err, "load task")
	}
	return task, nil
}

// List returns the user's tasks under the given category filter value
// ("all", "unassigned" or a category id).
func (s *TaskService) List(ctx context.Context, userID uint, filter string) ([]model.Task, error) {
	scope, err := s.categorySvc.ResolveFilter(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, userID, scope)
}

// ListPending returns the user's open tasks, soonest deadline first.
func (s *TaskService) ListPending(ctx context.Context, userID uint) ([]model.Task, error) {
	return s.tasks.ListPending(ctx, userID)
}

// Complete marks a task done at the given time.
func (s *TaskService) Complete(ctx context.Context, userID, taskID uint, completedAt time.Time) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFoundOr(err, "load task")
	}
	if err := s.tasks.MarkCompleted(ctx, task, completedAt); err != nil {
		return nil, translateStoreErr(err, "complete task")
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID uint, update TaskUpdate) (*model.Task, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, validationf("invalid update: %v", err)
	}
	if update.Category != nil && update.ClearCategory {
		return nil, validationf("cannot set and clear category at once")
	}

	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFoundOr(err, "load task")
	}

	if update.Category != nil {
		if _, err := s.categorySvc.Get(ctx, userID, *update.Category); err != nil {
			return nil, err
		}
		task.CategoryID = update.Category
	} else if update.ClearCategory {
		task.CategoryID = nil
	}
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.DueAt != nil {
		task.DueAt = update.DueAt
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, translateStoreErr(err, "save task")
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID uint) error {
	if _, err := s.tasks.FindByID(ctx, userID, taskID); err != nil {
		return notFoundOr(err, "load task")
	}
	return s.tasks.Delete(ctx, userID, taskID)
}
