package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/dto"
	"github.com/Saschakew/ShoppingLists/internal/hub"
	"github.com/Saschakew/ShoppingLists/internal/service"
)

// authorizeTimeout bounds the storage lookups behind a join request.
const authorizeTimeout = 5 * time.Second

// RoomAuthorizer resolves whether an actor may see a list.
type RoomAuthorizer interface {
	Authorize(ctx context.Context, actorID, listID uint) (*domain.ShoppingList, domain.Capability, error)
}

type messageFunc func(c *hub.Client, msg dto.ClientMessage)

// WebSocketHandler upgrades connections and dispatches client messages.
type WebSocketHandler struct {
	upgrader   websocket.Upgrader
	hub        *hub.Hub
	authorizer RoomAuthorizer
	handlers   map[string]messageFunc
}

// NewWebSocketHandler creates a WebSocketHandler. An empty allowedOrigin or "*" accepts any origin.
func NewWebSocketHandler(h *hub.Hub, authorizer RoomAuthorizer, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if authorizer == nil {
		panic("RoomAuthorizer cannot be nil for WebSocketHandler")
	}

	wh := &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
		hub:        h,
		authorizer: authorizer,
	}
	wh.handlers = map[string]messageFunc{
		dto.MessageJoinListRoom:  wh.joinListRoom,
		dto.MessageLeaveListRoom: wh.leaveListRoom,
	}
	return wh
}

// HandleConnection upgrades an authenticated request to a WebSocket.
// Room membership is managed afterwards through join/leave messages.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("WS Handler: User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, userID, h.dispatch)
	client.Run()
	logCtx.Info("WS Handler: Client connected")
}

func (h *WebSocketHandler) dispatch(c *hub.Client, raw []byte) {
	var msg dto.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logrus.WithError(err).WithField("user_id", c.UserID()).Warn("WS Handler: Malformed client message")
		h.hub.SendTo(c, dto.NewErrorEvent(0, "Malformed message"))
		return
	}
	handle, ok := h.handlers[msg.Type]
	if !ok {
		logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "type": msg.Type}).Warn("WS Handler: Unknown message type")
		h.hub.SendTo(c, dto.NewErrorEvent(msg.ListID, "Unknown message type"))
		return
	}
	handle(c, msg)
}

func (h *WebSocketHandler) joinListRoom(c *hub.Client, msg dto.ClientMessage) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "list_id": msg.ListID})
	if msg.ListID == 0 {
		h.hub.SendTo(c, dto.NewErrorEvent(0, "list_id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
	defer cancel()
	if _, _, err := h.authorizer.Authorize(ctx, c.UserID(), msg.ListID); err != nil {
		var message string
		switch {
		case errors.Is(err, service.ErrForbidden):
			message = "Unauthorized access to list"
		case errors.Is(err, service.ErrNotFound):
			message = "List not found"
		default:
			message = "Could not join list"
		}
		logCtx.WithError(err).Warn("WS Handler: Join rejected")
		h.hub.SendTo(c, dto.NewErrorEvent(msg.ListID, message))
		return
	}

	if h.hub.Join(c, msg.ListID) {
		logCtx.Info("WS Handler: Joined list room")
	}
}

func (h *WebSocketHandler) leaveListRoom(c *hub.Client, msg dto.ClientMessage) {
	if h.hub.Leave(c, msg.ListID) {
		logrus.WithFields(logrus.Fields{"user_id": c.UserID(), "list_id": msg.ListID}).Info("WS Handler: Left list room")
	}
}
