package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/dto"
	"github.com/Saschakew/ShoppingLists/internal/service"
)

// ListHandler exposes list, item, share and delta sync endpoints.
type ListHandler struct {
	listService *service.ListService
	syncService *service.SyncService
}

// NewListHandler creates a ListHandler.
func NewListHandler(listService *service.ListService, syncService *service.SyncService) *ListHandler {
	if listService == nil {
		panic("ListService cannot be nil for ListHandler")
	}
	if syncService == nil {
		panic("SyncService cannot be nil for ListHandler")
	}
	return &ListHandler{listService: listService, syncService: syncService}
}

type listSummary struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	OwnerID    uint      `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Capability string    `json:"capability,omitempty"`
	IsFavorite bool      `json:"is_favorite"`
}

func newListSummary(l *domain.ShoppingList) listSummary {
	return listSummary{ID: l.ID, Name: l.Name, OwnerID: l.OwnerID, CreatedAt: l.CreatedAt, LastActive: l.LastActive}
}

// GetLists returns the lists the caller owns or has been shared.
func (h *ListHandler) GetLists(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	lists, err := h.listService.AccessibleLists(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	out := make([]listSummary, 0, len(lists))
	for i := range lists {
		s := newListSummary(&lists[i].List)
		s.Capability = lists[i].Capability.String()
		s.IsFavorite = lists[i].IsFavorite
		out = append(out, s)
	}
	SuccessResponse(c, gin.H{"lists": out})
}

// CreateListRequest is the body of POST /api/lists.
type CreateListRequest struct {
	Name string `json:"name"`
}

// CreateList creates a list owned by the caller.
func (h *ListHandler) CreateList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}
	list, err := h.listService.CreateList(c.Request.Context(), userID, req.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	s := newListSummary(list)
	s.Capability = domain.CapabilityOwner.String()
	SuccessResponse(c, gin.H{"list": s})
}

// GetList returns a list with its items.
func (h *ListHandler) GetList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	detail, err := h.listService.ListDetail(c.Request.Context(), userID, listID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	items := make([]dto.ItemView, 0, len(detail.Items))
	for i := range detail.Items {
		it := &detail.Items[i]
		items = append(items, dto.NewItemView(it, detail.Usernames[it.AddedByID]))
	}
	s := newListSummary(detail.List)
	s.Capability = detail.Capability.String()
	s.IsFavorite = detail.IsFavorite
	SuccessResponse(c, gin.H{
		"list":       s,
		"items":      items,
		"capability": detail.Capability.String(),
		"categories": domain.Categories,
	})
}

// AddItemRequest is the body of POST /api/list/:listId/add_item.
type AddItemRequest struct {
	ItemName string `json:"item_name"`
	Category string `json:"category"`
}

// AddItem adds an item and broadcasts item_added to the list room.
func (h *ListHandler) AddItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}
	item, err := h.listService.AddItem(c.Request.Context(), userID, listID, req.ItemName, req.Category)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, gin.H{"item": item})
}

// DeleteItemRequest is the body of POST /api/list/:listId/delete_item.
type DeleteItemRequest struct {
	ItemID uint `json:"item_id" binding:"required"`
}

// DeleteItem removes an item and broadcasts item_deleted to the list room.
func (h *ListHandler) DeleteItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	var req DeleteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "item_id is required")
		return
	}
	if err := h.listService.DeleteItem(c.Request.Context(), userID, listID, req.ItemID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, gin.H{"item_id": req.ItemID})
}

// GetUpdates serves the delta sync protocol. The since query parameter is an
// epoch-millisecond cursor; 0 or absent returns every item. Negative cursors
// are rejected by the service after the access check.
func (h *ListHandler) GetUpdates(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{"list_id": listID, "since": c.Query("since")}).Warn("Handler.GetUpdates: Invalid timestamp")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timestamp"})
		return
	}

	result, err := h.syncService.GetUpdates(c.Request.Context(), userID, listID, since)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized access to list"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timestamp"})
		default:
			HandleServiceError(c, err)
		}
		return
	}
	SuccessResponse(c, gin.H{"timestamp": result.TimestampMs, "items": result.Items})
}

// ShareListRequest is the body of POST /api/list/:listId/share.
type ShareListRequest struct {
	Username string `json:"username"`
}

// ShareList grants another user access. Owner only.
func (h *ListHandler) ShareList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	var req ShareListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}
	share, err := h.listService.ShareList(c.Request.Context(), userID, listID, req.Username)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, gin.H{"share": gin.H{
		"id":         share.ID,
		"list_id":    share.ListID,
		"user_id":    share.UserID,
		"created_at": share.CreatedAt,
	}})
}

// RevokeShare removes a user's access. Owner only.
func (h *ListHandler) RevokeShare(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	targetID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	if err := h.listService.RevokeShare(c.Request.Context(), userID, listID, targetID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, gin.H{})
}

// ToggleFavorite sets or clears the caller's favorite list.
func (h *ListHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	fav, err := h.listService.SetFavorite(c.Request.Context(), userID, listID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, gin.H{"is_favorite": fav})
}

// DeleteList removes the list with its items and shares. Owner only.
func (h *ListHandler) DeleteList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := uintParam(c, "listId")
	if !ok {
		return
	}
	if err := h.listService.DeleteList(c.Request.Context(), userID, listID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, gin.H{})
}
