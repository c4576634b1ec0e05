package service

import (
	"context"
	"strconv"

	"note-planner/internal/repository"
)

// Filter values understood by ResolveFilter besides a concrete category id.
const (
	FilterAll        = "all"
	FilterUnassigned = "unassigned"
)

// ResolveFilter turns a listing filter value into a category scope for note
// and task queries. "all" places no restriction, "unassigned" selects rows
// with no category, and a numeric id selects the category plus its whole
// subtree. A filter naming a category the user does not own fails with
// ErrNotFound, the same way direct access would.
func (s *CategoryService) ResolveFilter(ctx context.Context, userID uint, value string) (repository.CategoryScope, error) {
	switch value {
	case "", FilterAll:
		return repository.ScopeAll(), nil
	case FilterUnassigned:
		return repository.ScopeUnassigned(), nil
	}

	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return repository.CategoryScope{}, validationf("invalid category filter %q", value)
	}

	ids, err := s.Subtree(ctx, userID, uint(id))
	if err != nil {
		return repository.CategoryScope{}, err
	}
	return repository.ScopeCategories(ids), nil
}
