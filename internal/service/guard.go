package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/repository"
)

// AccessGuard decides what an actor may do with a list.
type AccessGuard struct {
	listRepo  repository.ListRepository
	shareRepo repository.ShareRepository
}

// NewAccessGuard creates an AccessGuard.
func NewAccessGuard(listRepo repository.ListRepository, shareRepo repository.ShareRepository) *AccessGuard {
	if listRepo == nil {
		panic("ListRepository cannot be nil for AccessGuard")
	}
	if shareRepo == nil {
		panic("ShareRepository cannot be nil for AccessGuard")
	}
	return &AccessGuard{listRepo: listRepo, shareRepo: shareRepo}
}

// Capability returns OWNER when the actor owns list, SHARED_VIEWER when a share
// exists and NONE otherwise.
func (g *AccessGuard) Capability(ctx context.Context, actorID uint, list *domain.ShoppingList) (domain.Capability, error) {
	if list == nil || actorID == 0 {
		return domain.CapabilityNone, nil
	}
	if list.OwnerID == actorID {
		return domain.CapabilityOwner, nil
	}
	shared, err := g.shareRepo.Exists(ctx, list.ID, actorID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"list_id": list.ID, "user_id": actorID}).
			Error("AccessGuard: Failed to look up share")
		return domain.CapabilityNone, ErrInternalServer
	}
	if shared {
		return domain.CapabilitySharedViewer, nil
	}
	return domain.CapabilityNone, nil
}

// Authorize loads the list and resolves the actor's capability on it.
// It fails with ErrNotFound for an unknown list and ErrForbidden when the capability is NONE.
func (g *AccessGuard) Authorize(ctx context.Context, actorID, listID uint) (*domain.ShoppingList, domain.Capability, error) {
	list, err := g.listRepo.FindByID(ctx, listID)
	if err != nil {
		if !errors.Is(err, repository.ErrListNotFound) {
			logrus.WithError(err).WithField("list_id", listID).Error("AccessGuard: Failed to load list")
		}
		return nil, domain.CapabilityNone, mapRepoError(err, "list")
	}
	capability, err := g.Capability(ctx, actorID, list)
	if err != nil {
		return nil, domain.CapabilityNone, err
	}
	if capability == domain.CapabilityNone {
		logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID}).
			Warn("AccessGuard: Access denied")
		return nil, domain.CapabilityNone, ErrForbidden
	}
	return list, capability, nil
}

// AuthorizeOwner is Authorize restricted to the owner.
func (g *AccessGuard) AuthorizeOwner(ctx context.Context, actorID, listID uint) (*domain.ShoppingList, error) {
	list, capability, err := g.Authorize(ctx, actorID, listID)
	if err != nil {
		return nil, err
	}
	if !capability.CanManage() {
		logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID, "capability": capability.String()}).
			Warn("AccessGuard: Owner-only operation denied")
		return nil, ErrForbidden
	}
	return list, nil
}
