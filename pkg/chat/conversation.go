package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinzhu/gorm"
)

// Store owns the single active conversation row per tenant and phone
type Store interface {
	// Get returns the active conversation, or nil when there is none or it expired
	Get(ctx context.Context, tenantID uint, phone string, now time.Time) (*Conversation, error)
	// CreateOrReplace stores conversation, replacing any row for the same tenant and phone
	CreateOrReplace(ctx context.Context, conversation *Conversation) error
	// Close removes the active conversation. Closing a missing conversation is not an error.
	Close(ctx context.Context, tenantID uint, phone string) error
	// DeleteExpired purges rows that expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	// Locked runs fn holding a lock on the tenant and phone that every process
	// sharing the store honors. Writes made through the Store passed to fn commit
	// only when fn succeeds.
	Locked(ctx context.Context, tenantID uint, phone string, fn func(Store) error) error
}

// LockKey names the lock guarding one conversation
func LockKey(tenantID uint, phone string) string {
	return fmt.Sprintf("%d:%s", tenantID, phone)
}

// GormStore implements Store on top of a gorm database
type GormStore struct {
	db *gorm.DB
	// inTx is set on the store handed out by Locked
	inTx bool
}

// NewGormStore is a constructor for GormStore structs
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(_ context.Context, tenantID uint, phone string, now time.Time) (*Conversation, error) {
	var conversation Conversation
	err := s.db.
		Where("tenant_id = ? AND phone = ? AND expires_at > ?", tenantID, phone, now).
		First(&conversation).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation for %s: %w", phone, err)
	}
	return &conversation, nil
}

// CreateOrReplace deletes the previous row and inserts the new one in a single
// transaction, so payloads are never merged
func (s *GormStore) CreateOrReplace(_ context.Context, conversation *Conversation) error {
	return s.transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("tenant_id = ? AND phone = ?", conversation.TenantID, conversation.Phone).
			Delete(&Conversation{}).Error
		if err != nil {
			return fmt.Errorf("delete previous conversation for %s: %w", conversation.Phone, err)
		}
		conversation.ID = 0
		if err := tx.Create(conversation).Error; err != nil {
			return fmt.Errorf("create conversation for %s: %w", conversation.Phone, err)
		}
		return nil
	})
}

// Locked takes a transaction-scoped postgres advisory lock, so concurrent
// processes handling the same phone queue behind each other until commit
func (s *GormStore) Locked(_ context.Context, tenantID uint, phone string, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", LockKey(tenantID, phone)).Error; err != nil {
			return fmt.Errorf("lock conversation for %s: %w", phone, err)
		}
		return fn(&GormStore{db: tx, inTx: true})
	})
}

// transaction runs fn in a new transaction, or in the current one when the store
// already belongs to a Locked call
func (s *GormStore) transaction(fn func(tx *gorm.DB) error) error {
	if s.inTx {
		return fn(s.db)
	}
	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin conversation transaction: %w", tx.Error)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit conversation transaction: %w", err)
	}
	return nil
}

func (s *GormStore) Close(_ context.Context, tenantID uint, phone string) error {
	err := s.db.
		Where("tenant_id = ? AND phone = ?", tenantID, phone).
		Delete(&Conversation{}).Error
	if err != nil {
		return fmt.Errorf("close conversation for %s: %w", phone, err)
	}
	return nil
}

// DeleteExpired removes conversations that nobody will read again
func (s *GormStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	result := s.db.Where("expires_at <= ?", before).Delete(&Conversation{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete expired conversations: %w", result.Error)
	}
	slog.Info("deleted expired conversations", "count", result.RowsAffected, "before", before)
	return result.RowsAffected, nil
}
