package models

import "time"

// Frame types carried in the "type" field of every websocket message.
const (
	FrameNewUser      = "new-user"
	FrameChatMessage  = "chat-message"
	FrameNotification = "notification"
)

// InboundFrame is the tagged union a client may send. Only new-user and
// chat-message are valid inbound; which fields are required depends on Type.
type InboundFrame struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Notification is a server-generated announcement (joins, leaves).
type Notification struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatBroadcast is a chat message fanned out to every other client.
// Timestamp marshals as RFC 3339.
type ChatBroadcast struct {
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNotification(message string) Notification {
	return Notification{Type: FrameNotification, Message: message}
}

func NewChatBroadcast(sender, message string, at time.Time) ChatBroadcast {
	return ChatBroadcast{Type: FrameChatMessage, Sender: sender, Message: message, Timestamp: at}
}
