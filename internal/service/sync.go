package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/dto"
	"github.com/Saschakew/ShoppingLists/internal/repository"
)

// SyncResult is the answer to a delta request. TimestampMs is the cursor
// the client should send with its next request.
type SyncResult struct {
	TimestampMs int64
	Items       []dto.SyncItem
}

// SyncService answers "what was added since T" for reconnecting clients.
// Deleted items are never reported; only room members observe deletions.
type SyncService struct {
	itemRepo repository.ItemRepository
	userRepo repository.UserRepository
	guard    *AccessGuard
	now      Clock
}

// NewSyncService creates a SyncService. now may be nil.
func NewSyncService(itemRepo repository.ItemRepository, userRepo repository.UserRepository, guard *AccessGuard, now Clock) *SyncService {
	if itemRepo == nil || userRepo == nil {
		panic("repositories cannot be nil for SyncService")
	}
	if guard == nil {
		panic("AccessGuard cannot be nil for SyncService")
	}
	if now == nil {
		now = SystemClock
	}
	return &SyncService{itemRepo: itemRepo, userRepo: userRepo, guard: guard, now: now}
}

// GetUpdates returns all items when sinceMs is 0, otherwise the items whose
// AddedAt, truncated to whole seconds, is at or after sinceMs.
func (s *SyncService) GetUpdates(ctx context.Context, actorID, listID uint, sinceMs int64) (*SyncResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID, "since": sinceMs})

	if _, _, err := s.guard.Authorize(ctx, actorID, listID); err != nil {
		return nil, err
	}
	if sinceMs < 0 {
		return nil, fmt.Errorf("%w: negative timestamp", ErrValidation)
	}

	var (
		items []domain.ListItem
		err   error
	)
	if sinceMs == 0 {
		items, err = s.itemRepo.FindByList(ctx, listID)
	} else {
		items, err = s.itemRepo.FindByListSince(ctx, listID, ceilSecond(sinceMs))
	}
	if err != nil {
		logCtx.WithError(err).Error("SyncService: Failed to load items")
		return nil, ErrInternalServer
	}

	result := &SyncResult{Items: make([]dto.SyncItem, 0, len(items))}
	var names map[uint]string
	if sinceMs > 0 {
		names = lookupUsernames(ctx, s.userRepo, adderIDs(items))
	}
	for i := range items {
		it := &items[i]
		entry := dto.SyncItem{
			ID:          it.ID,
			ItemName:    it.ItemName,
			Category:    it.Category,
			IsPurchased: it.IsPurchased,
			AddedByID:   it.AddedByID,
		}
		if sinceMs > 0 {
			entry.AddedByUsername = names[it.AddedByID]
			entry.AddedAt = dto.FormatAddedAt(it.AddedAt)
			entry.ChangeType = dto.ChangeAdded
		}
		result.Items = append(result.Items, entry)
	}
	result.TimestampMs = s.now().UnixMilli()

	logCtx.WithField("count", len(result.Items)).Debug("SyncService: Delta served")
	return result, nil
}

// ceilSecond rounds an epoch-millisecond value up to the next whole second.
// AddedAt >= ceilSecond(ms) holds exactly when truncSecond(AddedAt) >= ms.
func ceilSecond(ms int64) time.Time {
	sec := ms / 1000
	if ms%1000 != 0 {
		sec++
	}
	return time.Unix(sec, 0).UTC()
}
