package dto

// Message types a client may send over the WebSocket.
const (
	MessageJoinListRoom  = "join_list_room"
	MessageLeaveListRoom = "leave_list_room"
)

// ClientMessage is a client to server WebSocket message.
type ClientMessage struct {
	Type   string `json:"type"`
	ListID uint   `json:"list_id"`
}
