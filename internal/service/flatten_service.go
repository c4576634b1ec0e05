package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"note-planner/internal/repository"
	"note-planner/internal/tree"
)

// OwnerFlattenResult records the outcome of flattening one user's forest.
type OwnerFlattenResult struct {
	UserID uint
	Moved  int
	Err    error
}

// FlattenReport aggregates per-owner results of one maintenance run.
type FlattenReport struct {
	Owners []OwnerFlattenResult
}

// Failed returns the number of owners whose flatten transaction rolled back.
func (r *FlattenReport) Failed() int {
	n := 0
	for _, o := range r.Owners {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// FlattenService is the maintenance job that collapses every user's category
// forest to at most two levels: roots and their direct children. Each user is
// processed in its own transaction, so one failure never rolls back the
// others. Running it twice is a no-op the second time: after the first pass
// every non-root node already points at its root.
type FlattenService struct {
	db         *gorm.DB
	categories *repository.CategoryRepository
	log        *zap.Logger
}

func NewFlattenService(db *gorm.DB, categories *repository.CategoryRepository, log *zap.Logger) *FlattenService {
	return &FlattenService{db: db, categories: categories, log: log}
}

// FlattenAll walks every owner with at least one category and reparents each
// node of depth >= 2 directly under its root. Notes and tasks are untouched;
// only Category parent pointers change.
func (s *FlattenService) FlattenAll(ctx context.Context) (*FlattenReport, error) {
	owners, err := s.categories.ListOwnerIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list category owners: %w", err)
	}

	report := &FlattenReport{}
	for _, userID := range owners {
		moved, err := s.flattenOwner(ctx, userID)
		if err != nil {
			s.log.Warn("flatten failed for owner",
				zap.Uint("user_id", userID), zap.Error(err))
		} else if moved > 0 {
			s.log.Info("flattened owner forest",
				zap.Uint("user_id", userID), zap.Int("moved", moved))
		}
		report.Owners = append(report.Owners, OwnerFlattenResult{
			UserID: userID,
			Moved:  moved,
			Err:    err,
		})
	}
	return report, nil
}

func (s *FlattenService) flattenOwner(ctx context.Context, userID uint) (int, error) {
	moved := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := s.categories.ListByUserTx(tx, userID)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}

		nav := tree.NewNavigator(snapshot)
		for _, category := range snapshot {
			if nav.Depth(category.ID) < 2 {
				continue
			}
			root := nav.Root(category.ID)
			if err := s.categories.SetParent(tx, category.ID, &root); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, translateStoreErr(err, "flatten owner")
	}
	return moved, nil
}
