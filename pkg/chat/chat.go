package chat

import (
	"encoding/json"
	"time"

	"github.com/jinzhu/gorm/dialects/postgres"
)

// Conversation is the persisted position of one phone inside a chat flow. There is
// at most one row per tenant and phone.
type Conversation struct {
	ID         uint           `json:"id" gorm:"primary_key"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	TenantID   uint           `json:"tenantId" gorm:"not null;unique_index:idx_conversations_tenant_phone"`
	Phone      string         `json:"phone" gorm:"not null;unique_index:idx_conversations_tenant_phone"`
	State      string         `json:"state" gorm:"not null"`
	Payload    postgres.Jsonb `json:"payload"`
	ExpiresAt  time.Time      `json:"expiresAt" gorm:"not null;index"`
	CustomerID *uint          `json:"customerId"`
}

// NewConversation builds a conversation row with its payload encoded as JSON
func NewConversation(tenantID uint, phone, state string, payload interface{}, expiresAt time.Time) (*Conversation, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Conversation{
		TenantID:  tenantID,
		Phone:     phone,
		State:     state,
		Payload:   postgres.Jsonb{RawMessage: json.RawMessage(raw)},
		ExpiresAt: expiresAt,
	}, nil
}

// DecodePayload unmarshals the stored payload into dst. An empty payload leaves dst untouched.
func (c *Conversation) DecodePayload(dst interface{}) error {
	if len(c.Payload.RawMessage) == 0 || string(c.Payload.RawMessage) == "null" {
		return nil
	}
	return json.Unmarshal(c.Payload.RawMessage, dst)
}

// Expired reports whether the conversation should be treated as absent at now
func (c *Conversation) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
