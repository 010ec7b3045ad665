package chat

import "time"

// MediaAudio is the MediaType of messages that carried a voice note instead of text
const MediaAudio = "audio"

// Message is a single message exchanged with a customer
type Message struct {
	ID        string     `json:"id"`
	TenantID  uint       `json:"tenantId,omitempty"`
	Sender    string     `json:"sender"`
	Recipient string     `json:"recipient"`
	Body      string     `json:"body"`
	MediaType string     `json:"mediaType,omitempty"`
	CreatedAt *time.Time `json:"created_at"`
}

// IsAudio reports whether the customer sent a voice note
func (m Message) IsAudio() bool {
	return m.MediaType == MediaAudio
}
