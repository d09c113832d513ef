package domain

// Action websocket request action
type Action string

const (
	// Join websocket action join: subscribe an explicit room
	Join Action = "join"
	// JoinRoom websocket action join_room: derive and join the pair room
	JoinRoom Action = "join_room"
	// LeaveRoom websocket action leave_room
	LeaveRoom Action = "leave_room"

	// ChatMessage websocket action chat_message
	ChatMessage Action = "chat_message"
	// MessageRead websocket action message_read
	MessageRead Action = "message_read"
	// PresenceUpdateAction websocket action presence_update
	PresenceUpdateAction Action = "presence_update"

	// CallOffer websocket action call_offer
	CallOffer Action = "call_offer"
	// CallAnswer websocket action call_answer
	CallAnswer Action = "call_answer"
	// IceCandidate websocket action ice_candidate
	IceCandidate Action = "ice_candidate"
)

// WSRequest websocket Request
type WSRequest struct {
	Action   string                 `json:"action"`
	Room     string                 `json:"room,omitempty"`
	User1    string                 `json:"user1,omitempty"`
	User2    string                 `json:"user2,omitempty"`
	Receiver string                 `json:"receiver,omitempty"`
	To       string                 `json:"to,omitempty"`
	Content  string                 `json:"content,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
