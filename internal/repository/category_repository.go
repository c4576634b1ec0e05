package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"note-planner/internal/model"
)

// CategoryRepository manages category tree nodes. Every read is scoped to one
// user. Mutating methods take the *gorm.DB they should run on, so the caller
// decides the transaction boundary; the repository never opens one itself.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByID loads a category owned by the given user. A category owned by
// someone else is indistinguishable from a missing one.
func (r *CategoryRepository) FindByID(ctx context.Context, userID, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, userID uint, name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) ListChildren(ctx context.Context, userID, parentID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND parent_id = ?", userID, parentID).
		Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListOwnerIDs returns the distinct user ids that own at least one category.
func (r *CategoryRepository) ListOwnerIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.Category{}).
		Distinct("user_id").Order("user_id ASC").Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// ListByUserTx loads one user's categories on the given transaction, so tree
// computations inside a transaction see the same snapshot the writes will.
func (r *CategoryRepository) ListByUserTx(tx *gorm.DB, userID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := tx.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// SetParent rewrites one category's parent pointer on the given transaction.
func (r *CategoryRepository) SetParent(tx *gorm.DB, id uint, parentID *uint) error {
	if err := tx.Model(&model.Category{}).Where("id = ?", id).
		Update("parent_id", parentID).Error; err != nil {
		return fmt.Errorf("set parent of category %d: %w", id, err)
	}
	return nil
}

// ReassignDependents rewrites every note, task and child category pointing at
// oldID so it points at newParentID instead (nil meaning unassigned / root).
// Must run on a transaction together with the delete that follows it.
func (r *CategoryRepository) ReassignDependents(tx *gorm.DB, userID, oldID uint, newParentID *uint) error {
	if err := tx.Model(&model.Note{}).Where("user_id = ? AND category_id = ?", userID, oldID).
		Update("category_id", newParentID).Error; err != nil {
		return fmt.Errorf("reassign notes of category %d: %w", oldID, err)
	}
	if err := tx.Model(&model.Task{}).Where("user_id = ? AND category_id = ?", userID, oldID).
		Update("category_id", newParentID).Error; err != nil {
		return fmt.Errorf("reassign tasks of category %d: %w", oldID, err)
	}
	if err := tx.Model(&model.Category{}).Where("user_id = ? AND parent_id = ?", userID, oldID).
		Update("parent_id", newParentID).Error; err != nil {
		return fmt.Errorf("reassign children of category %d: %w", oldID, err)
	}
	return nil
}

// Delete removes the category row. Callers reassign dependents first.
func (r *CategoryRepository) Delete(tx *gorm.DB, id uint) error {
	if err := tx.Delete(&model.Category{}, id).Error; err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}
