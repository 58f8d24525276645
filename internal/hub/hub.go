package hub

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/dto"
)

// Package level WebSocket constants shared by Hub and Client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Buffered messages per client.
	sendBufferSize = 256

	// DefaultDeliveryTimeout bounds how long Publish waits on one slow member.
	DefaultDeliveryTimeout = 250 * time.Millisecond
)

// Hub is the room registry: it tracks which connections are subscribed to
// which lists and fans events out to them.
//
// Both indices are guarded by one lock so that Join, Leave and RemoveClient
// are atomic with respect to each other. The lock is never held while
// writing to a client.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[uint]map[*Client]bool
	clientRooms map[*Client]map[uint]bool

	deliveryTimeout time.Duration
}

// NewHub creates an empty Hub. deliveryTimeout <= 0 selects DefaultDeliveryTimeout.
func NewHub(deliveryTimeout time.Duration) *Hub {
	if deliveryTimeout <= 0 {
		deliveryTimeout = DefaultDeliveryTimeout
	}
	return &Hub{
		rooms:           make(map[uint]map[*Client]bool),
		clientRooms:     make(map[*Client]map[uint]bool),
		deliveryTimeout: deliveryTimeout,
	}
}

// Join subscribes client to the room of listID. It reports whether the
// membership changed; joining twice is a no-op and a closed client is refused.
func (h *Hub) Join(client *Client, listID uint) bool {
	if client == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.isClosed() {
		return false
	}
	if h.rooms[listID][client] {
		return false
	}
	if _, ok := h.rooms[listID]; !ok {
		h.rooms[listID] = make(map[*Client]bool)
	}
	h.rooms[listID][client] = true
	if _, ok := h.clientRooms[client]; !ok {
		h.clientRooms[client] = make(map[uint]bool)
	}
	h.clientRooms[client][listID] = true

	logrus.WithFields(logrus.Fields{
		"list_id": listID,
		"user_id": client.UserID(),
		"members": len(h.rooms[listID]),
	}).Debug("Hub: Client joined room")
	return true
}

// Leave unsubscribes client from the room of listID. Leaving a room the
// client is not in is a no-op.
func (h *Hub) Leave(client *Client, listID uint) bool {
	if client == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.rooms[listID][client] {
		return false
	}
	h.removeLocked(client, listID)

	logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": client.UserID()}).Debug("Hub: Client left room")
	return true
}

// LeaveUser removes every connection of userID from the room of listID and
// returns how many were removed. Each removed connection is told through an
// error event; it stays open and keeps its other rooms.
func (h *Hub) LeaveUser(listID, userID uint) int {
	h.mu.Lock()
	var removed []*Client
	for client := range h.rooms[listID] {
		if client.UserID() == userID {
			removed = append(removed, client)
		}
	}
	for _, client := range removed {
		h.removeLocked(client, listID)
	}
	h.mu.Unlock()

	if len(removed) == 0 {
		return 0
	}
	revoked := dto.NewErrorEvent(listID, "Access to list revoked")
	for _, client := range removed {
		h.SendTo(client, revoked)
	}
	logrus.WithFields(logrus.Fields{
		"list_id":     listID,
		"user_id":     userID,
		"connections": len(removed),
	}).Info("Hub: User evicted from room")
	return len(removed)
}

// RemoveClient drops client from every room it joined and returns those list ids.
func (h *Hub) RemoveClient(client *Client) []uint {
	if client == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	joined := h.clientRooms[client]
	ids := make([]uint, 0, len(joined))
	for listID := range joined {
		ids = append(ids, listID)
	}
	for _, listID := range ids {
		h.removeLocked(client, listID)
	}
	delete(h.clientRooms, client)

	if len(ids) > 0 {
		logrus.WithFields(logrus.Fields{"user_id": client.UserID(), "rooms": len(ids)}).Info("Hub: Client removed from all rooms")
	}
	return ids
}

func (h *Hub) removeLocked(client *Client, listID uint) {
	if room, ok := h.rooms[listID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, listID)
		}
	}
	if joined, ok := h.clientRooms[client]; ok {
		delete(joined, listID)
		if len(joined) == 0 {
			delete(h.clientRooms, client)
		}
	}
}

// Members returns a snapshot of the clients in the room of listID.
// The returned slice is owned by the caller.
func (h *Hub) Members(listID uint) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[listID]
	members := make([]*Client, 0, len(room))
	for client := range room {
		members = append(members, client)
	}
	return members
}

// ActiveListIDs returns the ids of all rooms with at least one member, ascending.
func (h *Hub) ActiveListIDs() []uint {
	h.mu.RLock()
	ids := make([]uint, 0, len(h.rooms))
	for listID := range h.rooms {
		ids = append(ids, listID)
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Stats returns the number of rooms and of distinct connected clients holding a membership.
func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms), len(h.clientRooms)
}

// Publish encodes event and delivers it to the members of the room of listID.
func (h *Hub) Publish(listID uint, event dto.Envelope) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"list_id": listID, "event": event.Event}).
			Error("Hub: Failed to encode event")
		return
	}
	h.PublishRaw(listID, data)
}

// PublishRaw delivers an encoded message to the members of the room of
// listID as of the call. Each member gets at most deliveryTimeout; members
// are served concurrently and PublishRaw returns once every delivery has
// been queued, dropped or timed out. Failures are logged only.
func (h *Hub) PublishRaw(listID uint, data []byte) {
	members := h.Members(listID)
	if len(members) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, client := range members {
		// fast path: room in the buffer
		select {
		case client.send <- data:
			continue
		case <-client.done:
			continue
		default:
		}

		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if !c.deliver(data, h.deliveryTimeout) {
				logrus.WithFields(logrus.Fields{
					"list_id": listID,
					"user_id": c.UserID(),
					"timeout": h.deliveryTimeout.String(),
				}).Warn("Hub: Delivery to slow client timed out, message dropped")
			}
		}(client)
	}
	wg.Wait()

	logrus.WithFields(logrus.Fields{
		"list_id":    listID,
		"room":       domain.RoomName(listID),
		"recipients": len(members),
	}).Debug("Hub: Message published")
}

// SendTo delivers event to a single client.
func (h *Hub) SendTo(client *Client, event dto.Envelope) bool {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("event", event.Event).Error("Hub: Failed to encode event")
		return false
	}
	return client.deliver(data, h.deliveryTimeout)
}
