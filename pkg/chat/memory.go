package chat

import (
	"context"
	"sync"
	"time"
)

type conversationKey struct {
	tenantID uint
	phone    string
}

// MemoryStore is an in-process Store, used for local runs and tests
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[conversationKey]Conversation
	nextID        uint
}

// NewMemoryStore is a constructor for MemoryStore structs
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{conversations: map[conversationKey]Conversation{}}
}

func (s *MemoryStore) Get(_ context.Context, tenantID uint, phone string, now time.Time) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conversation, ok := s.conversations[conversationKey{tenantID, phone}]
	if !ok || conversation.Expired(now) {
		return nil, nil
	}
	return &conversation, nil
}

func (s *MemoryStore) CreateOrReplace(_ context.Context, conversation *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	conversation.ID = s.nextID
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	s.conversations[conversationKey{conversation.TenantID, conversation.Phone}] = *conversation
	return nil
}

func (s *MemoryStore) Close(_ context.Context, tenantID uint, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationKey{tenantID, phone})
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key, conversation := range s.conversations {
		if !conversation.ExpiresAt.After(before) {
			delete(s.conversations, key)
			count++
		}
	}
	return count, nil
}

// Locked hands fn the store itself. MemoryStore lives in one process, where
// callers serialize conversations with their own mutex.
func (s *MemoryStore) Locked(_ context.Context, _ uint, _ string, fn func(Store) error) error {
	return fn(s)
}

// Len returns the number of stored rows, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}
