package model

import "time"

// Category is a node in a user's category tree. ParentID is nil for roots;
// the parent always belongs to the same user, so each user's categories form
// a forest.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;index:idx_owner_category_name,unique"`
	Name      string `gorm:"index:idx_owner_category_name,unique"`
	ParentID  *uint  `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
