package repository

import (
	"context"
	"time"

	"github.com/Saschakew/ShoppingLists/internal/domain"
)

// ItemRepository stores list items.
type ItemRepository interface {
	// FindByID returns ErrItemNotFound when the item does not exist.
	FindByID(ctx context.Context, id uint) (*domain.ListItem, error)

	// FindByList returns all items of a list ordered by AddedAt ascending.
	FindByList(ctx context.Context, listID uint) ([]domain.ListItem, error)

	// FindByListSince returns the items of a list with AddedAt >= since, ordered by AddedAt.
	FindByListSince(ctx context.Context, listID uint, since time.Time) ([]domain.ListItem, error)

	// Create inserts a new item and fills its ID.
	Create(ctx context.Context, item *domain.ListItem) error

	// Delete removes the item if it belongs to listID.
	// Returns ErrItemNotFound when no row was removed.
	Delete(ctx context.Context, listID, itemID uint) error
}
