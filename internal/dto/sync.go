package dto

// ChangeAdded marks an item returned by a delta request with a non-zero cursor.
const ChangeAdded = "added"

// SyncItem is one entry of a delta sync response. The optional fields are set only
// when the request carried a non-zero cursor.
type SyncItem struct {
	ID              uint   `json:"id"`
	ItemName        string `json:"item_name"`
	Category        string `json:"category"`
	IsPurchased     bool   `json:"is_purchased"`
	AddedByID       uint   `json:"added_by_id"`
	AddedByUsername string `json:"added_by_username,omitempty"`
	AddedAt         string `json:"added_at,omitempty"`
	ChangeType      string `json:"change_type,omitempty"`
}
