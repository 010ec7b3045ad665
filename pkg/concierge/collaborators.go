package concierge

import (
	"context"
	"errors"
	"time"

	"github.com/City-Bureau/agendachat/pkg/booking"
)

// ErrNoTransport is returned by a Messenger when the tenant has no number to send from
var ErrNoTransport = errors.New("concierge: no outbound transport configured")

// Messenger delivers a text to a phone on behalf of a tenant
type Messenger interface {
	Send(ctx context.Context, tenantID uint, to, body string) error
}

// NegativeFeedback describes a detractor review that needs a human follow-up
type NegativeFeedback struct {
	TenantID     uint   `json:"tenantId"`
	ReviewID     uint   `json:"reviewId"`
	SchedulingID uint   `json:"schedulingId"`
	CustomerID   uint   `json:"customerId"`
	Phone        string `json:"phone"`
	Score        int    `json:"score"`
	Comment      string `json:"comment"`
}

// Notifier raises domain notifications handled outside the engine
type Notifier interface {
	NegativeFeedback(ctx context.Context, feedback NegativeFeedback) error
}

// Settings returns named per-tenant configuration values. Missing values are empty.
type Settings interface {
	Setting(ctx context.Context, tenantID uint, key string) (string, error)
}

type Customers interface {
	GetCustomer(ctx context.Context, id uint) (*booking.Customer, error)
}

type Schedulings interface {
	GetScheduling(ctx context.Context, id uint) (*booking.Scheduling, error)
	CancelScheduling(ctx context.Context, scheduling *booking.Scheduling) error
	UpcomingSchedulings(ctx context.Context, tenantID uint, email string, from time.Time) ([]booking.Scheduling, error)
}

type Reviews interface {
	CreateReview(ctx context.Context, fields booking.ReviewFields) (*booking.Review, error)
	GetReview(ctx context.Context, id uint) (*booking.Review, error)
	UpdateReview(ctx context.Context, review *booking.Review, fields booking.ReviewFields) error
}

type Confirmations interface {
	GetConfirmationRequest(ctx context.Context, id uint) (*booking.ConfirmationRequest, error)
	InterpretConfirmation(text string) booking.ConfirmationIntent
	ConfirmRequest(ctx context.Context, request *booking.ConfirmationRequest) error
	CancelRequest(ctx context.Context, request *booking.ConfirmationRequest) error
}

// Collaborators is everything the handlers read from or mutate in the booking system.
// *booking.Repository satisfies it.
type Collaborators interface {
	Settings
	Customers
	Schedulings
	Reviews
	Confirmations
}
