package repository

import (
	"context"

	"github.com/Saschakew/ShoppingLists/internal/domain"
)

// ShareRepository stores list shares.
type ShareRepository interface {
	// Exists reports whether userID holds a share on listID.
	Exists(ctx context.Context, listID, userID uint) (bool, error)

	// Create inserts a share. An existing (list, user) pair yields ErrDuplicateEntry.
	Create(ctx context.Context, share *domain.ListShare) error

	// Delete removes the share. Returns ErrShareNotFound when there was none.
	Delete(ctx context.Context, listID, userID uint) error

	// ListIDsForUser returns the ids of the lists shared with userID.
	ListIDsForUser(ctx context.Context, userID uint) ([]uint, error)
}
