package domain

import "time"

// ListShare grants a user shared access to a list. One row per (ListID, UserID).
type ListShare struct {
	ID        uint      `gorm:"primaryKey"`
	ListID    uint      `gorm:"not null;uniqueIndex:idx_list_user"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_list_user;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
