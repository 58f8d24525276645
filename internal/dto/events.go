package dto

import (
	"time"

	"github.com/Saschakew/ShoppingLists/internal/domain"
)

// Event names sent from server to client.
const (
	EventItemAdded   = "item_added"
	EventItemDeleted = "item_deleted"
	EventError       = "error"
)

// AddedAtLayout is the display format of ItemView.AddedAt.
const AddedAtLayout = "2006-01-02 15:04"

// Envelope wraps every server to client WebSocket message.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ItemView is an item as carried by the item_added event.
type ItemView struct {
	ID              uint   `json:"id"`
	ItemName        string `json:"item_name"`
	Category        string `json:"category"`
	AddedByUsername string `json:"added_by_username"`
	AddedByID       uint   `json:"added_by_id"`
	AddedAt         string `json:"added_at"`
	IsPurchased     bool   `json:"is_purchased"`
}

// ItemAddedPayload is the data of an item_added event.
type ItemAddedPayload struct {
	Item   ItemView `json:"item"`
	ListID uint     `json:"list_id"`
}

// ItemDeletedPayload is the data of an item_deleted event. The deleted row is not retransmitted.
type ItemDeletedPayload struct {
	ItemID uint `json:"item_id"`
	ListID uint `json:"list_id"`
}

// ErrorPayload is sent to a single client when one of its requests is rejected.
type ErrorPayload struct {
	Message string `json:"message"`
	ListID  uint   `json:"list_id,omitempty"`
}

// NewItemView builds the event view of item, formatting AddedAt in UTC.
func NewItemView(item *domain.ListItem, addedByUsername string) ItemView {
	return ItemView{
		ID:              item.ID,
		ItemName:        item.ItemName,
		Category:        item.Category,
		AddedByUsername: addedByUsername,
		AddedByID:       item.AddedByID,
		AddedAt:         FormatAddedAt(item.AddedAt),
		IsPurchased:     item.IsPurchased,
	}
}

// FormatAddedAt renders t with AddedAtLayout.
func FormatAddedAt(t time.Time) string {
	return t.UTC().Format(AddedAtLayout)
}

func NewItemAddedEvent(listID uint, view ItemView) Envelope {
	return Envelope{Event: EventItemAdded, Data: ItemAddedPayload{Item: view, ListID: listID}}
}

func NewItemDeletedEvent(listID, itemID uint) Envelope {
	return Envelope{Event: EventItemDeleted, Data: ItemDeletedPayload{ItemID: itemID, ListID: listID}}
}

func NewErrorEvent(listID uint, message string) Envelope {
	return Envelope{Event: EventError, Data: ErrorPayload{Message: message, ListID: listID}}
}
