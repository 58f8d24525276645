package domain

import "time"

// User is an account that can own lists and be granted shares.
type User struct {
	ID             uint      `gorm:"primaryKey"`
	Username       string    `gorm:"type:varchar(100);uniqueIndex:idx_username;not null"`
	Password       string    `gorm:"type:varchar(200);not null"` // bcrypt hash
	FavoriteListID *uint     `gorm:"index"`                      // at most one favorite list
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}
