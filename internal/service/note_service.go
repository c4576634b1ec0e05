package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"note-planner/internal/model"
	"note-planner/internal/repository"
)

// NoteInput carries the fields for creating a note.
type NoteInput struct {
	Title      string `validate:"required,max=200"`
	Content    string
	CategoryID *uint
}

// NoteUpdate carries a partial update. Category and ClearCategory are
// mutually exclusive; when both are zero the reference is left alone.
type NoteUpdate struct {
	Title         *string `validate:"omitempty,min=1,max=200"`
	Content       *string
	Category      *uint
	ClearCategory bool
}

// NoteService wraps note CRUD. Category references are validated against the
// acting user's tree through CategoryService; reparenting on category merge
// is the category engine's business, not this service's.
type NoteService struct {
	notes       *repository.NoteRepository
	categorySvc *CategoryService
	validate    *validator.Validate
}

func NewNoteService(notes *repository.NoteRepository, categorySvc *CategoryService) *NoteService {
	return &NoteService{notes: notes, categorySvc: categorySvc, validate: validator.New()}
}

func (s *NoteService) Create(ctx context.Context, userID uint, input NoteInput) (*model.Note, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationf("invalid note: %v", err)
	}
	if input.CategoryID != nil {
		if _, err := s.categorySvc.Get(ctx, userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	note := model.Note{
		UserID:     userID,
		CategoryID: input.CategoryID,
		Title:      input.Title,
		Content:    input.Content,
	}
	if err := s.notes.Create(ctx, &note); err != nil {
		return nil, translateStoreErr(err, "create note")
	}
	return &note, nil
}

func (s *NoteService) Get(ctx context.Context, userID, noteID uint) (*model.Note, error) {
	note, err := s.notes.FindByID(ctx, userID, noteID)
	if err != nil {
		return nil, notFoundOr(err, "load note")
	}
	return note, nil
}

// List returns the user's notes under the given category filter value
// ("all", "unassigned" or a category id).
func (s *NoteService) List(ctx context.Context, userID uint, filter string) ([]model.Note, error) {
	scope, err := s.categorySvc.ResolveFilter(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return s.notes.List(ctx, userID, scope)
}

func (s *NoteService) Update(ctx context.Context, userID, noteID uint, update NoteUpdate) (*model.Note, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, validationf("invalid update: %v", err)
	}
	if update.Category != nil && update.ClearCategory {
		return nil, validationf("cannot set and clear category at once")
	}

	note, err := s.notes.FindByID(ctx, userID, noteID)
	if err != nil {
		return nil, notFoundOr(err, "load note")
	}

	if update.Category != nil {
		if _, err := s.categorySvc.Get(ctx, userID, *update.Category); err != nil {
			return nil, err
		}
		note.CategoryID = update.Category
	} else if update.ClearCategory {
		note.CategoryID = nil
	}
	if update.Title != nil {
		note.Title = *update.Title
	}
	if update.Content != nil {
		note.Content = *update.Content
	}

	if err := s.notes.Save(ctx, note); err != nil {
		return nil, translateStoreErr(err, "save note")
	}
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID uint) error {
	if _, err := s.notes.FindByID(ctx, userID, noteID); err != nil {
		return notFoundOr(err, "load note")
	}
	return s.notes.Delete(ctx, userID, noteID)
}
