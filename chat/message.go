package chat

import "time"

// MessageTypeText is the default category for plain chat text.
const MessageTypeText = "text"

// ChatMessage is a single chat message as received from the room stream.
// Immutable once constructed; retained in the client's bounded history.
type ChatMessage struct {
	ID           string     `json:"id"`
	RoomID       string     `json:"roomId"`
	Username     string     `json:"username"`
	UserAddress  string     `json:"userAddress,omitempty"`
	Message      string     `json:"message"`
	ProfileImage string     `json:"profile_image,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	MessageType  string     `json:"messageType,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// normalize applies defaults the wire payload may omit.
func (m *ChatMessage) normalize() {
	if m.MessageType == "" {
		m.MessageType = MessageTypeText
	}
}

// Expired reports whether the message carries an expiry in the past.
func (m *ChatMessage) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}
