package model

import "time"

// Note is a free-text note. CategoryID is nil when the note is unassigned.
type Note struct {
	ID         uint  `gorm:"primaryKey"`
	UserID     uint  `gorm:"index"`
	CategoryID *uint `gorm:"index"`
	Title      string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
