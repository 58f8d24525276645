package repository

import (
	"context"
	"time"

	"github.com/Saschakew/ShoppingLists/internal/domain"
)

// ListRepository stores shopping lists.
type ListRepository interface {
	// FindByID returns ErrListNotFound when the list does not exist.
	FindByID(ctx context.Context, id uint) (*domain.ShoppingList, error)

	// FindByOwner returns the lists owned by ownerID, newest first.
	FindByOwner(ctx context.Context, ownerID uint) ([]domain.ShoppingList, error)

	// FindByIDs returns the lists among ids, newest first.
	FindByIDs(ctx context.Context, ids []uint) ([]domain.ShoppingList, error)

	// Create inserts a new list and fills its ID.
	Create(ctx context.Context, list *domain.ShoppingList) error

	// Delete removes the list together with its items and shares, and clears every
	// favorite pointer referencing it, in one transaction.
	// Returns ErrListNotFound when nothing was deleted.
	Delete(ctx context.Context, id uint) error

	// Touch advances LastActive to at when at is newer than the stored value.
	// Returns ErrListNotFound when the list does not exist.
	Touch(ctx context.Context, id uint, at time.Time) error
}
