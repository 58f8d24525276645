package service

import (
	"errors"
	"fmt"

	"github.com/Saschakew/ShoppingLists/internal/repository"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("access to list denied")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username already exists")
	ErrInternalServer       = errors.New("internal server error")
)

// mapRepoError translates a repository error into a service error.
// what names the entity in ErrNotFound messages.
func mapRepoError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repository.ErrDuplicateEntry):
		return ErrConflict
	default:
		return ErrInternalServer
	}
}
