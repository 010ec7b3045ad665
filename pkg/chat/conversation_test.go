package chat

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock, *sql.DB) {
	db, dbMock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	gormDB, err := gorm.Open("postgres", db)
	if err != nil {
		t.Fatalf("Failed to open gorm: %v", err)
	}
	return NewGormStore(gormDB), dbMock, db
}

func TestGormStoreGet(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	dbMock.ExpectQuery(`SELECT (.+) FROM "conversations" WHERE (.+) LIMIT 1`).
		WithArgs(1, "+5511999990000", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "phone", "state", "payload", "expires_at"}).
			AddRow(3, 1, "+5511999990000", "awaiting_nps_comment", []byte(`{"review_id":9}`), now.Add(time.Hour)))

	conversation, err := store.Get(context.Background(), 1, "+5511999990000", now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if conversation == nil || conversation.State != "awaiting_nps_comment" {
		t.Fatalf("Expected awaiting_nps_comment conversation, got %+v", conversation)
	}
	var payload struct {
		ReviewID uint `json:"review_id"`
	}
	if err := conversation.DecodePayload(&payload); err != nil || payload.ReviewID != 9 {
		t.Errorf("Payload not decoded: %v %+v", err, payload)
	}
	if err := dbMock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGormStoreGetMissing(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()

	dbMock.ExpectQuery(`SELECT (.+) FROM "conversations" WHERE (.+) LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	conversation, err := store.Get(context.Background(), 1, "+5511999990000", time.Now())
	if err != nil {
		t.Fatalf("Missing conversation should not be an error: %v", err)
	}
	if conversation != nil {
		t.Errorf("Expected no conversation, got %+v", conversation)
	}
}

func TestGormStoreCreateOrReplace(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()

	dbMock.ExpectBegin()
	dbMock.ExpectExec(`DELETE FROM "conversations" WHERE (.+)`).
		WithArgs(1, "+5511999990000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectQuery(`INSERT INTO "conversations" (.+) RETURNING (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	dbMock.ExpectCommit()

	conversation, err := NewConversation(1, "+5511999990000", "handoff", map[string]string{"topic": "billing"}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	conversation.ID = 4
	if err := store.CreateOrReplace(context.Background(), conversation); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if conversation.ID != 12 {
		t.Errorf("Replacement should be a new row, got id %d", conversation.ID)
	}
	if err := dbMock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGormStoreCreateOrReplaceRollsBack(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()

	dbMock.ExpectBegin()
	dbMock.ExpectExec(`DELETE FROM "conversations" WHERE (.+)`).
		WillReturnError(sql.ErrConnDone)
	dbMock.ExpectRollback()

	conversation, _ := NewConversation(1, "+5511999990000", "handoff", nil, time.Now())
	if err := store.CreateOrReplace(context.Background(), conversation); err == nil {
		t.Errorf("Expected error when the delete fails")
	}
	if err := dbMock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGormStoreCloseIsIdempotent(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()

	for i := 0; i < 2; i++ {
		dbMock.ExpectBegin()
		dbMock.ExpectExec(`DELETE FROM "conversations" WHERE (.+)`).
			WithArgs(1, "+5511999990000").
			WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectCommit()
	}

	for i := 0; i < 2; i++ {
		if err := store.Close(context.Background(), 1, "+5511999990000"); err != nil {
			t.Errorf("Close %d returned error: %v", i, err)
		}
	}
	if err := dbMock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGormStoreDeleteExpired(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()
	before := time.Now()

	dbMock.ExpectBegin()
	dbMock.ExpectExec(`DELETE FROM "conversations" WHERE (.+)`).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 5))
	dbMock.ExpectCommit()

	count, err := store.DeleteExpired(context.Background(), before)
	if err != nil || count != 5 {
		t.Errorf("Expected 5 deleted rows, got %d (%v)", count, err)
	}
}

func TestGormStoreLockedSharesTransaction(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	dbMock.ExpectBegin()
	dbMock.ExpectExec(`SELECT pg_advisory_xact_lock(.+)`).
		WithArgs("1:+5511999990000").
		WillReturnResult(sqlmock.NewResult(0, 0))
	dbMock.ExpectQuery(`SELECT (.+) FROM "conversations" WHERE (.+) LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	dbMock.ExpectExec(`DELETE FROM "conversations" WHERE (.+)`).
		WithArgs(1, "+5511999990000").
		WillReturnResult(sqlmock.NewResult(0, 0))
	dbMock.ExpectQuery(`INSERT INTO "conversations" (.+) RETURNING (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	dbMock.ExpectCommit()

	err := store.Locked(context.Background(), 1, "+5511999990000", func(locked Store) error {
		current, err := locked.Get(context.Background(), 1, "+5511999990000", now)
		if err != nil || current != nil {
			t.Fatalf("Expected no conversation, got %+v (%v)", current, err)
		}
		conversation, _ := NewConversation(1, "+5511999990000", "handoff", nil, now.Add(time.Hour))
		return locked.CreateOrReplace(context.Background(), conversation)
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := dbMock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGormStoreLockedRollsBackOnError(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()

	dbMock.ExpectBegin()
	dbMock.ExpectExec(`SELECT pg_advisory_xact_lock(.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	dbMock.ExpectRollback()

	failure := errors.New("handler failed")
	err := store.Locked(context.Background(), 1, "+5511999990000", func(Store) error {
		return failure
	})
	if !errors.Is(err, failure) {
		t.Errorf("Expected the callback error, got %v", err)
	}
	if err := dbMock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGormStoreLockedFailsWithoutLock(t *testing.T) {
	store, dbMock, db := newMockStore(t)
	defer db.Close()

	dbMock.ExpectBegin()
	dbMock.ExpectExec(`SELECT pg_advisory_xact_lock(.+)`).
		WillReturnError(sql.ErrConnDone)
	dbMock.ExpectRollback()

	called := false
	err := store.Locked(context.Background(), 1, "+5511999990000", func(Store) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Errorf("Expected Locked to fail before running the callback, err %v called %t", err, called)
	}
}
