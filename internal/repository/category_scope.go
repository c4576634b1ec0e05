package repository

import "gorm.io/gorm"

// CategoryScope restricts note and task queries by category reference. The
// zero value means no restriction. Notes and tasks persist the same
// category_id column, so one scope type serves both.
type CategoryScope struct {
	unassigned bool
	ids        []uint
}

// ScopeAll places no restriction on the category reference.
func ScopeAll() CategoryScope {
	return CategoryScope{}
}

// ScopeUnassigned selects rows with no category.
func ScopeUnassigned() CategoryScope {
	return CategoryScope{unassigned: true}
}

// ScopeCategories selects rows referencing any of the given category ids.
func ScopeCategories(ids []uint) CategoryScope {
	return CategoryScope{ids: ids}
}

func (s CategoryScope) apply(q *gorm.DB) *gorm.DB {
	switch {
	case s.unassigned:
		return q.Where("category_id IS NULL")
	case len(s.ids) > 0:
		return q.Where("category_id IN ?", s.ids)
	default:
		return q
	}
}
