package domain

import (
	"strconv"
	"time"
)

// CategoryOther is the catch-all category used for missing or unknown labels.
const CategoryOther = "Other"

// Categories is the fixed, ordered set of item categories.
var Categories = []string{
	"Fruits", "Vegetables", "Dairy", "Bakery", "Meat & Poultry",
	"Fish & Seafood", "Pantry Staples", "Frozen Foods",
	"Beverages", "Household", CategoryOther,
}

var knownCategories = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

// NormalizeCategory returns category if it belongs to Categories, CategoryOther otherwise.
func NormalizeCategory(category string) string {
	if _, ok := knownCategories[category]; ok {
		return category
	}
	return CategoryOther
}

// ListItem is a single entry of a shopping list.
// Only IsPurchased may change after creation.
type ListItem struct {
	ID          uint      `gorm:"primaryKey"`
	ListID      uint      `gorm:"index;not null"`
	ItemName    string    `gorm:"type:varchar(200);not null"`
	Category    string    `gorm:"type:varchar(50);not null;default:Other"`
	IsPurchased bool      `gorm:"not null;default:false"`
	AddedByID   uint      `gorm:"index;not null"`
	AddedAt     time.Time `gorm:"index;not null"`
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
