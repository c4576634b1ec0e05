package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"note-planner/internal/model"
)

// NoteRepository handles CRUD for notes.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *NoteRepository) FindByID(ctx context.Context, userID, noteID uint) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, noteID).First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// List returns the user's notes restricted by the given category scope.
func (r *NoteRepository) List(ctx context.Context, userID uint, scope CategoryScope) ([]model.Note, error) {
	var notes []model.Note
	q := scope.apply(r.db.WithContext(ctx).Where("user_id = ?", userID))
	if err := q.Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) Save(ctx context.Context, note *model.Note) error {
	if err := r.db.WithContext(ctx).Save(note).Error; err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

// SetCategory rewrites the category reference, including to nil.
func (r *NoteRepository) SetCategory(ctx context.Context, note *model.Note, categoryID *uint) error {
	if err := r.db.WithContext(ctx).Model(note).Update("category_id", categoryID).Error; err != nil {
		return fmt.Errorf("set note category: %w", err)
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, userID, noteID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, noteID).
		Delete(&model.Note{}).Error; err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
