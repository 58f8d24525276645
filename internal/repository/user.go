package repository

import (
	"context"

	"github.com/Saschakew/ShoppingLists/internal/domain"
)

// UserRepository stores accounts and their favorite-list pointer.
type UserRepository interface {
	// FindByUsername returns ErrUserNotFound when no user has that name.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByID returns ErrUserNotFound when the id is unknown.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByIDs returns the users that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error)

	// Save creates or updates a user. Duplicate usernames yield ErrDuplicateEntry.
	Save(ctx context.Context, user *domain.User) error

	// SetFavorite sets (or clears, with nil) the user's favorite list.
	SetFavorite(ctx context.Context, userID uint, listID *uint) error
}
