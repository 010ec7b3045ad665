package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("booking: record not found")

// Repository serves the booking tables to the chat concierge
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository is a constructor for Repository structs
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Models lists every table owned by this package, for migrations
func Models() []interface{} {
	return []interface{}{
		&Tenant{}, &Setting{}, &Customer{}, &Service{},
		&Scheduling{}, &ConfirmationRequest{}, &Review{},
	}
}

func notFound(err error, what string, id interface{}) error {
	if gorm.IsRecordNotFoundError(err) {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %v: %w", what, id, err)
}

// TenantByPhone finds the tenant that owns the receiving number
func (r *Repository) TenantByPhone(_ context.Context, phone string) (*Tenant, error) {
	var tenant Tenant
	if err := r.db.Where("phone_number = ?", phone).First(&tenant).Error; err != nil {
		return nil, notFound(err, "tenant", phone)
	}
	return &tenant, nil
}

func (r *Repository) GetTenant(_ context.Context, id uint) (*Tenant, error) {
	var tenant Tenant
	if err := r.db.First(&tenant, id).Error; err != nil {
		return nil, notFound(err, "tenant", id)
	}
	return &tenant, nil
}

// Setting returns a tenant setting, or an empty string when it is not configured
func (r *Repository) Setting(_ context.Context, tenantID uint, key string) (string, error) {
	var setting Setting
	err := r.db.Where("tenant_id = ? AND key = ?", tenantID, key).First(&setting).Error
	if gorm.IsRecordNotFoundError(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load setting %s: %w", key, err)
	}
	return strings.TrimSpace(setting.Value), nil
}

func (r *Repository) GetCustomer(_ context.Context, id uint) (*Customer, error) {
	var customer Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		return nil, notFound(err, "customer", id)
	}
	return &customer, nil
}

func (r *Repository) GetScheduling(_ context.Context, id uint) (*Scheduling, error) {
	var scheduling Scheduling
	if err := r.db.Preload("Service").First(&scheduling, id).Error; err != nil {
		return nil, notFound(err, "scheduling", id)
	}
	return &scheduling, nil
}

// CancelScheduling marks the scheduling as cancelled
func (r *Repository) CancelScheduling(_ context.Context, scheduling *Scheduling) error {
	cancelledAt := r.now()
	err := r.db.Model(scheduling).Updates(map[string]interface{}{
		"status":       SchedulingCancelled,
		"cancelled_at": cancelledAt,
	}).Error
	if err != nil {
		return fmt.Errorf("cancel scheduling %d: %w", scheduling.ID, err)
	}
	scheduling.Status = SchedulingCancelled
	scheduling.CancelledAt = &cancelledAt
	return nil
}

// UpcomingSchedulings lists the pending or confirmed bookings from a date onwards for
// the customer with the given email, earliest first
func (r *Repository) UpcomingSchedulings(_ context.Context, tenantID uint, email string, from time.Time) ([]Scheduling, error) {
	var schedulings []Scheduling
	err := r.db.Preload("Service").
		Joins("JOIN customers ON customers.id = schedulings.customer_id").
		Where("schedulings.tenant_id = ? AND LOWER(customers.email) = ?", tenantID, strings.ToLower(email)).
		Where("schedulings.status IN (?)", []string{string(SchedulingPending), string(SchedulingConfirmed)}).
		Where("schedulings.date >= ?", from).
		Order("schedulings.date ASC").
		Find(&schedulings).Error
	if err != nil {
		return nil, fmt.Errorf("list upcoming schedulings for %s: %w", email, err)
	}
	return schedulings, nil
}

func (r *Repository) CreateReview(_ context.Context, fields ReviewFields) (*Review, error) {
	review := Review{
		TenantID:     fields.TenantID,
		SchedulingID: fields.SchedulingID,
		CustomerID:   fields.CustomerID,
		Comment:      fields.Comment,
	}
	if fields.Score != nil {
		review.Score = *fields.Score
	}
	if fields.SentToRedirect != nil {
		review.SentToRedirect = *fields.SentToRedirect
	}
	if err := r.db.Create(&review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &review, nil
}

func (r *Repository) GetReview(_ context.Context, id uint) (*Review, error) {
	var review Review
	if err := r.db.First(&review, id).Error; err != nil {
		return nil, notFound(err, "review", id)
	}
	return &review, nil
}

// UpdateReview applies the non-nil fields to review and saves it, which also
// recomputes the classification
func (r *Repository) UpdateReview(_ context.Context, review *Review, fields ReviewFields) error {
	if fields.Score != nil {
		review.Score = *fields.Score
	}
	if fields.Comment != nil {
		review.Comment = fields.Comment
	}
	if fields.SentToRedirect != nil {
		review.SentToRedirect = *fields.SentToRedirect
	}
	if err := r.db.Save(review).Error; err != nil {
		return fmt.Errorf("update review %d: %w", review.ID, err)
	}
	return nil
}

func (r *Repository) GetConfirmationRequest(_ context.Context, id uint) (*ConfirmationRequest, error) {
	var request ConfirmationRequest
	if err := r.db.First(&request, id).Error; err != nil {
		return nil, notFound(err, "confirmation request", id)
	}
	return &request, nil
}

// InterpretConfirmation classifies a reply to a confirmation request
func (r *Repository) InterpretConfirmation(text string) ConfirmationIntent {
	return InterpretConfirmation(text)
}

// ConfirmRequest answers the request and confirms its scheduling
func (r *Repository) ConfirmRequest(_ context.Context, request *ConfirmationRequest) error {
	return r.answerRequest(request, ConfirmationConfirmed, SchedulingConfirmed)
}

// CancelRequest answers the request and cancels its scheduling
func (r *Repository) CancelRequest(_ context.Context, request *ConfirmationRequest) error {
	return r.answerRequest(request, ConfirmationCancelled, SchedulingCancelled)
}

func (r *Repository) answerRequest(request *ConfirmationRequest, status ConfirmationStatus, schedulingStatus SchedulingStatus) error {
	now := r.now()
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin confirmation answer: %w", tx.Error)
	}
	err := tx.Model(request).Updates(map[string]interface{}{
		"status":       status,
		"responded_at": now,
	}).Error
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("answer confirmation request %d: %w", request.ID, err)
	}
	schedulingUpdates := map[string]interface{}{"status": schedulingStatus}
	if schedulingStatus == SchedulingCancelled {
		schedulingUpdates["cancelled_at"] = now
	}
	err = tx.Model(&Scheduling{}).
		Where("id = ? AND tenant_id = ?", request.SchedulingID, request.TenantID).
		Updates(schedulingUpdates).Error
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("update scheduling %d: %w", request.SchedulingID, err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit confirmation answer %d: %w", request.ID, err)
	}
	request.Status = status
	request.RespondedAt = &now
	return nil
}
