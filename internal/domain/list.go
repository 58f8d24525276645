package domain

import "time"

// ShoppingList is a named list with exactly one owner.
type ShoppingList struct {
	ID         uint      `gorm:"primaryKey"`
	Name       string    `gorm:"type:varchar(100);not null"`
	OwnerID    uint      `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"index"`
	LastActive time.Time `gorm:"index"` // last item mutation, maintained by the list:touch task
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// RoomName returns the broadcast room identifier for a list.
func RoomName(listID uint) string {
	return "list_" + uintToString(listID)
}
