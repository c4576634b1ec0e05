package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"note-planner/internal/model"
	"note-planner/internal/repository"
	"note-planner/internal/tree"
)

// CategoryInput carries the fields for creating a category.
type CategoryInput struct {
	Name     string `validate:"required,max=100"`
	ParentID *uint
}

// CategoryUpdate carries a partial update. Parent and MakeRoot are mutually
// exclusive; when both are zero the parent pointer is left alone.
type CategoryUpdate struct {
	Name     *string `validate:"omitempty,min=1,max=100"`
	Parent   *uint
	MakeRoot bool
}

// CategoryService owns the category tree: creation, reparenting with cycle
// checks, merge-on-delete and filter resolution for note/task listings. All
// operations take the acting user's id explicitly; a category the user does
// not own behaves exactly like one that does not exist.
type CategoryService struct {
	db         *gorm.DB
	categories *repository.CategoryRepository
	validate   *validator.Validate
}

func NewCategoryService(db *gorm.DB, categories *repository.CategoryRepository) *CategoryService {
	return &CategoryService{
		db:         db,
		categories: categories,
		validate:   validator.New(),
	}
}

// Create inserts a new category, optionally under an existing parent. No
// cycle check is needed here: a fresh node has no descendants.
func (s *CategoryService) Create(ctx context.Context, userID uint, input CategoryInput) (*model.Category, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationf("invalid category: %v", err)
	}

	if input.ParentID != nil {
		if _, err := s.categories.FindByID(ctx, userID, *input.ParentID); err != nil {
			return nil, notFoundOr(err, "load parent category")
		}
	}

	category := model.Category{
		UserID:   userID,
		Name:     input.Name,
		ParentID: input.ParentID,
	}
	if err := s.categories.Create(ctx, &category); err != nil {
		return nil, translateStoreErr(err, "create category")
	}
	return &category, nil
}

// Get loads a category the user owns.
func (s *CategoryService) Get(ctx context.Context, userID, id uint) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, userID, id)
	if err != nil {
		return nil, notFoundOr(err, "load category")
	}
	return category, nil
}

// GetByName loads a category the user owns by its unique name.
func (s *CategoryService) GetByName(ctx context.Context, userID uint, name string) (*model.Category, error) {
	category, err := s.categories.FindByName(ctx, userID, name)
	if err != nil {
		return nil, notFoundOr(err, "load category")
	}
	return category, nil
}

// List returns all of the user's categories, name-ordered.
func (s *CategoryService) List(ctx context.Context, userID uint) ([]model.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

// Update renames and/or reparents a category. A reparent that would put the
// category under itself or one of its descendants is rejected, as is a parent
// the user does not own.
func (s *CategoryService) Update(ctx context.Context, userID, id uint, update CategoryUpdate) (*model.Category, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, validationf("invalid update: %v", err)
	}
	if update.Parent != nil && update.MakeRoot {
		return nil, validationf("cannot set a parent and make root at once")
	}

	var updated *model.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.Where("user_id = ? AND id = ?", userID, id).First(&category).Error; err != nil {
			return notFoundOr(err, "load category")
		}

		if update.Parent != nil {
			var parent model.Category
			if err := tx.Where("user_id = ? AND id = ?", userID, *update.Parent).First(&parent).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return validationf("parent category %d not found", *update.Parent)
				}
				return fmt.Errorf("load parent category: %w", err)
			}

			snapshot, err := s.categories.ListByUserTx(tx, userID)
			if err != nil {
				return fmt.Errorf("load category snapshot: %w", err)
			}
			if tree.NewNavigator(snapshot).WouldCreateCycle(id, parent.ID) {
				return validationf("cannot move a category under itself or its descendants")
			}
			category.ParentID = &parent.ID
		} else if update.MakeRoot {
			category.ParentID = nil
		}

		if update.Name != nil {
			category.Name = *update.Name
		}

		if err := tx.Save(&category).Error; err != nil {
			return fmt.Errorf("save category: %w", err)
		}
		updated = &category
		return nil
	})
	if err != nil {
		return nil, translateStoreErr(err, "update category")
	}
	return updated, nil
}

// Delete removes a category by merging it into its parent: every note, task
// and child category pointing at it is reassigned to the deleted node's
// parent before the row goes away, all in one transaction. Deleting a root
// leaves its dependents unassigned. The category is reloaded inside the
// transaction so a concurrent delete of the same node fails with ErrNotFound
// instead of acting on a stale parent pointer.
func (s *CategoryService) Delete(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.Where("user_id = ? AND id = ?", userID, id).First(&category).Error; err != nil {
			return notFoundOr(err, "load category")
		}

		if err := s.categories.ReassignDependents(tx, userID, category.ID, category.ParentID); err != nil {
			return err
		}
		return s.categories.Delete(tx, category.ID)
	})
	return translateStoreErr(err, "delete category")
}

// Subtree returns a category's id together with the ids of all its
// descendants. Listing a category includes everything nested beneath it, so
// tree position never hides content.
func (s *CategoryService) Subtree(ctx context.Context, userID, id uint) ([]uint, error) {
	if _, err := s.categories.FindByID(ctx, userID, id); err != nil {
		return nil, notFoundOr(err, "load category")
	}
	snapshot, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load category snapshot: %w", err)
	}
	return append([]uint{id}, tree.NewNavigator(snapshot).Descendants(id)...), nil
}
