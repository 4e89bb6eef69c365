package websocket

import "encoding/json"

// Server-to-client event names. Clients key their handlers off these, so the
// names are part of the wire contract.
const (
	EventConnectionEstablished = "ConnectionEstablished"
	EventUserRegistered        = "UserRegistered"
	EventJoinChatSuccess       = "JoinChatSuccess"
	EventJoinChatError         = "JoinChatError"
	EventLeaveChatSuccess      = "LeaveChatSuccess"
	EventLeaveChatError        = "LeaveChatError"
	EventReceiveMessage        = "ReceiveMessage"
)

// Client-to-server actions.
const (
	ActionRegister = "register"
	ActionJoin     = "join"
	ActionLeave    = "leave"
)

// ClientEvent is the envelope clients send over the socket.
type ClientEvent struct {
	Action string `json:"action"`
	UserID string `json:"userId,omitempty"`
	ChatID string `json:"chatId,omitempty"`
}

// ServerEvent is the envelope written back to clients. Payload is any
// JSON-serializable value; message broadcasts carry the message record.
type ServerEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

func encodeEvent(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(ServerEvent{Event: event, Payload: payload})
}
