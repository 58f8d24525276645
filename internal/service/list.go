package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/dto"
	"github.com/Saschakew/ShoppingLists/internal/repository"
)

// ListService applies list and item mutations after consulting the AccessGuard.
type ListService struct {
	listRepo  repository.ListRepository
	itemRepo  repository.ItemRepository
	shareRepo repository.ShareRepository
	userRepo  repository.UserRepository
	guard     *AccessGuard
	publisher EventPublisher
	rooms     RoomEvictor
	activity  ActivityRecorder
	now       Clock
}

// NewListService creates a ListService. activity and now may be nil.
// rooms is usually the same hub or relay that backs publisher.
func NewListService(
	listRepo repository.ListRepository,
	itemRepo repository.ItemRepository,
	shareRepo repository.ShareRepository,
	userRepo repository.UserRepository,
	guard *AccessGuard,
	publisher EventPublisher,
	rooms RoomEvictor,
	activity ActivityRecorder,
	now Clock,
) *ListService {
	if listRepo == nil || itemRepo == nil || shareRepo == nil || userRepo == nil {
		panic("repositories cannot be nil for ListService")
	}
	if guard == nil {
		panic("AccessGuard cannot be nil for ListService")
	}
	if publisher == nil {
		panic("EventPublisher cannot be nil for ListService")
	}
	if rooms == nil {
		panic("RoomEvictor cannot be nil for ListService")
	}
	if activity == nil {
		activity = noopActivity{}
	}
	if now == nil {
		now = SystemClock
	}
	return &ListService{
		listRepo:  listRepo,
		itemRepo:  itemRepo,
		shareRepo: shareRepo,
		userRepo:  userRepo,
		guard:     guard,
		publisher: publisher,
		rooms:     rooms,
		activity:  activity,
		now:       now,
	}
}

// AccessibleList is a list together with the actor's relation to it.
type AccessibleList struct {
	List       domain.ShoppingList
	Capability domain.Capability
	IsFavorite bool
}

// ListDetail is the content of a list as seen by one actor.
type ListDetail struct {
	List       *domain.ShoppingList
	Items      []domain.ListItem
	Usernames  map[uint]string // adder id -> username
	Capability domain.Capability
	IsFavorite bool
}

// CreateList creates a list owned by the actor.
func (s *ListService) CreateList(ctx context.Context, actorID uint, name string) (*domain.ShoppingList, error) {
	logCtx := logrus.WithField("user_id", actorID)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: list name is required", ErrValidation)
	}

	now := s.now()
	list := &domain.ShoppingList{
		Name:       name,
		OwnerID:    actorID,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.listRepo.Create(ctx, list); err != nil {
		logCtx.WithError(err).Error("ListService: Failed to create list")
		return nil, ErrInternalServer
	}

	logCtx.WithField("list_id", list.ID).Info("ListService: List created")
	return list, nil
}

// AddItem persists a new item and publishes item_added to the list's room before
// returning. The returned view is the item as carried by the event.
func (s *ListService) AddItem(ctx context.Context, actorID, listID uint, name, category string) (*dto.ItemView, error) {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID})

	list, _, err := s.guard.Authorize(ctx, actorID, listID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}

	item := &domain.ListItem{
		ListID:    list.ID,
		ItemName:  name,
		Category:  domain.NormalizeCategory(strings.TrimSpace(category)),
		AddedByID: actorID,
		AddedAt:   s.now(),
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		logCtx.WithError(err).Error("ListService: Failed to store item")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("item_id", item.ID)

	view := dto.NewItemView(item, s.usernameOf(ctx, actorID))
	s.publisher.Publish(list.ID, dto.NewItemAddedEvent(list.ID, view))
	s.recordActivity(ctx, list.ID, item.AddedAt)

	logCtx.Info("ListService: Item added")
	return &view, nil
}

// DeleteItem removes an item and publishes item_deleted. Only the caller whose
// storage delete removed the row publishes.
func (s *ListService) DeleteItem(ctx context.Context, actorID, listID, itemID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID, "item_id": itemID})

	if _, _, err := s.guard.Authorize(ctx, actorID, listID); err != nil {
		return err
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if !errors.Is(err, repository.ErrItemNotFound) {
			logCtx.WithError(err).Error("ListService: Failed to load item")
		}
		return mapRepoError(err, "item")
	}
	if item.ListID != listID {
		logCtx.Warn("ListService: Item does not belong to list")
		return fmt.Errorf("%w: item", ErrNotFound)
	}

	if err := s.itemRepo.Delete(ctx, listID, itemID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			logCtx.Info("ListService: Item already deleted")
		} else {
			logCtx.WithError(err).Error("ListService: Failed to delete item")
		}
		return mapRepoError(err, "item")
	}

	s.publisher.Publish(listID, dto.NewItemDeletedEvent(listID, itemID))
	s.recordActivity(ctx, listID, s.now())

	logCtx.Info("ListService: Item deleted")
	return nil
}

// ShareList grants targetUsername shared access. Only the owner may share.
func (s *ListService) ShareList(ctx context.Context, actorID, listID uint, targetUsername string) (*domain.ListShare, error) {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID})

	if _, err := s.guard.AuthorizeOwner(ctx, actorID, listID); err != nil {
		return nil, err
	}

	targetUsername = strings.TrimSpace(targetUsername)
	if targetUsername == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}

	target, err := s.userRepo.FindByUsername(ctx, targetUsername)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			logCtx.WithError(err).Error("ListService: Failed to look up share target")
		}
		return nil, mapRepoError(err, "user")
	}
	logCtx = logCtx.WithField("target_user_id", target.ID)

	if target.ID == actorID {
		return nil, fmt.Errorf("%w: cannot share a list with yourself", ErrConflict)
	}

	exists, err := s.shareRepo.Exists(ctx, listID, target.ID)
	if err != nil {
		logCtx.WithError(err).Error("ListService: Failed to check existing share")
		return nil, ErrInternalServer
	}
	if exists {
		return nil, fmt.Errorf("%w: list already shared with %s", ErrConflict, target.Username)
	}

	share := &domain.ListShare{ListID: listID, UserID: target.ID}
	if err := s.shareRepo.Create(ctx, share); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: list already shared with %s", ErrConflict, target.Username)
		}
		logCtx.WithError(err).Error("ListService: Failed to create share")
		return nil, ErrInternalServer
	}

	logCtx.Info("ListService: List shared")
	return share, nil
}

// RevokeShare removes a share. Only the owner may revoke.
func (s *ListService) RevokeShare(ctx context.Context, actorID, listID, targetUserID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID, "target_user_id": targetUserID})

	if _, err := s.guard.AuthorizeOwner(ctx, actorID, listID); err != nil {
		return err
	}
	if err := s.shareRepo.Delete(ctx, listID, targetUserID); err != nil {
		if !errors.Is(err, repository.ErrShareNotFound) {
			logCtx.WithError(err).Error("ListService: Failed to delete share")
		}
		return mapRepoError(err, "share")
	}
	evicted := s.rooms.LeaveUser(listID, targetUserID)

	logCtx.WithField("evicted_connections", evicted).Info("ListService: Share revoked")
	return nil
}

// SetFavorite toggles the actor's favorite pointer for listID and returns the new state.
func (s *ListService) SetFavorite(ctx context.Context, actorID, listID uint) (bool, error) {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID})

	if _, _, err := s.guard.Authorize(ctx, actorID, listID); err != nil {
		return false, err
	}

	user, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		logCtx.WithError(err).Error("ListService: Failed to load user for favorite toggle")
		return false, mapRepoError(err, "user")
	}

	var next *uint
	if user.FavoriteListID == nil || *user.FavoriteListID != listID {
		id := listID
		next = &id
	}
	if err := s.userRepo.SetFavorite(ctx, actorID, next); err != nil {
		logCtx.WithError(err).Error("ListService: Failed to store favorite")
		return false, mapRepoError(err, "user")
	}

	logCtx.WithField("is_favorite", next != nil).Info("ListService: Favorite toggled")
	return next != nil, nil
}

// DeleteList removes the list with its items and shares. Only the owner may delete.
func (s *ListService) DeleteList(ctx context.Context, actorID, listID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID})

	if _, err := s.guard.AuthorizeOwner(ctx, actorID, listID); err != nil {
		return err
	}
	if err := s.listRepo.Delete(ctx, listID); err != nil {
		if !errors.Is(err, repository.ErrListNotFound) {
			logCtx.WithError(err).Error("ListService: Failed to delete list")
		}
		return mapRepoError(err, "list")
	}

	logCtx.Info("ListService: List deleted")
	return nil
}

// AccessibleLists returns the lists the actor owns or has been shared, newest first.
func (s *ListService) AccessibleLists(ctx context.Context, actorID uint) ([]AccessibleList, error) {
	logCtx := logrus.WithField("user_id", actorID)

	user, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		logCtx.WithError(err).Warn("ListService: Failed to load user for dashboard")
		return nil, mapRepoError(err, "user")
	}

	owned, err := s.listRepo.FindByOwner(ctx, actorID)
	if err != nil {
		logCtx.WithError(err).Error("ListService: Failed to load owned lists")
		return nil, ErrInternalServer
	}
	sharedIDs, err := s.shareRepo.ListIDsForUser(ctx, actorID)
	if err != nil {
		logCtx.WithError(err).Error("ListService: Failed to load shared list ids")
		return nil, ErrInternalServer
	}
	shared, err := s.listRepo.FindByIDs(ctx, sharedIDs)
	if err != nil {
		logCtx.WithError(err).Error("ListService: Failed to load shared lists")
		return nil, ErrInternalServer
	}

	result := make([]AccessibleList, 0, len(owned)+len(shared))
	for _, l := range owned {
		result = append(result, AccessibleList{List: l, Capability: domain.CapabilityOwner})
	}
	for _, l := range shared {
		if l.OwnerID == actorID {
			continue
		}
		result = append(result, AccessibleList{List: l, Capability: domain.CapabilitySharedViewer})
	}
	for i := range result {
		result[i].IsFavorite = user.FavoriteListID != nil && *user.FavoriteListID == result[i].List.ID
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].List, result[j].List
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return result, nil
}

// ListDetail returns the list, its items ordered by AddedAt and the actor's capability.
func (s *ListService) ListDetail(ctx context.Context, actorID, listID uint) (*ListDetail, error) {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": actorID})

	list, capability, err := s.guard.Authorize(ctx, actorID, listID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.FindByList(ctx, listID)
	if err != nil {
		logCtx.WithError(err).Error("ListService: Failed to load items")
		return nil, ErrInternalServer
	}

	detail := &ListDetail{
		List:       list,
		Items:      items,
		Usernames:  lookupUsernames(ctx, s.userRepo, adderIDs(items)),
		Capability: capability,
	}
	if user, err := s.userRepo.FindByID(ctx, actorID); err == nil {
		detail.IsFavorite = user.FavoriteListID != nil && *user.FavoriteListID == listID
	}
	return detail, nil
}

func (s *ListService) usernameOf(ctx context.Context, userID uint) string {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("ListService: Failed to resolve username for event")
		return ""
	}
	return user.Username
}

func (s *ListService) recordActivity(ctx context.Context, listID uint, at time.Time) {
	if err := s.activity.RecordActivity(ctx, listID, at); err != nil {
		logrus.WithError(err).WithField("list_id", listID).Warn("ListService: Failed to record list activity")
	}
}

func adderIDs(items []domain.ListItem) []uint {
	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.AddedByID]; ok {
			continue
		}
		seen[it.AddedByID] = struct{}{}
		ids = append(ids, it.AddedByID)
	}
	return ids
}

// lookupUsernames resolves ids to usernames. Lookup failures yield an empty map.
func lookupUsernames(ctx context.Context, userRepo repository.UserRepository, ids []uint) map[uint]string {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	users, err := userRepo.FindByIDs(ctx, ids)
	if err != nil {
		logrus.WithError(err).Warn("Failed to resolve usernames")
		return names
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names
}
