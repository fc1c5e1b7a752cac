package chat

import "time"

// Conversation roles.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message persists individual turns for the session transcript.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
