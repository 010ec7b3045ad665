package concierge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/City-Bureau/agendachat/pkg/booking"
	"github.com/City-Bureau/agendachat/pkg/chat"
)

// fakeBooking is an in-memory Collaborators used by the handler tests
type fakeBooking struct {
	settings      map[string]string
	customers     map[uint]*booking.Customer
	schedulings   map[uint]*booking.Scheduling
	reviews       map[uint]*booking.Review
	requests      map[uint]*booking.ConfirmationRequest
	cancelled     []uint
	confirmed     []uint
	rejected      []uint
	cancelErr     error
	panicOnCancel bool
}

func newFakeBooking() *fakeBooking {
	return &fakeBooking{
		settings:    map[string]string{},
		customers:   map[uint]*booking.Customer{},
		schedulings: map[uint]*booking.Scheduling{},
		reviews:     map[uint]*booking.Review{},
		requests:    map[uint]*booking.ConfirmationRequest{},
	}
}

func (f *fakeBooking) Setting(_ context.Context, _ uint, key string) (string, error) {
	return f.settings[key], nil
}

func (f *fakeBooking) GetCustomer(_ context.Context, id uint) (*booking.Customer, error) {
	if customer, ok := f.customers[id]; ok {
		return customer, nil
	}
	return nil, fmt.Errorf("customer %d: %w", id, booking.ErrNotFound)
}

func (f *fakeBooking) GetScheduling(_ context.Context, id uint) (*booking.Scheduling, error) {
	if scheduling, ok := f.schedulings[id]; ok {
		copied := *scheduling
		return &copied, nil
	}
	return nil, fmt.Errorf("scheduling %d: %w", id, booking.ErrNotFound)
}

func (f *fakeBooking) CancelScheduling(_ context.Context, scheduling *booking.Scheduling) error {
	if f.panicOnCancel {
		panic("cancel exploded")
	}
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, scheduling.ID)
	f.schedulings[scheduling.ID].Status = booking.SchedulingCancelled
	return nil
}

func (f *fakeBooking) UpcomingSchedulings(_ context.Context, tenantID uint, email string, from time.Time) ([]booking.Scheduling, error) {
	var found []booking.Scheduling
	for _, scheduling := range f.schedulings {
		customer, ok := f.customers[scheduling.CustomerID]
		if !ok || customer.Email != email || scheduling.TenantID != tenantID || scheduling.Date.Before(from) {
			continue
		}
		if scheduling.Status == booking.SchedulingPending || scheduling.Status == booking.SchedulingConfirmed {
			found = append(found, *scheduling)
		}
	}
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].Date.Before(found[j-1].Date); j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	return found, nil
}

func (f *fakeBooking) CreateReview(_ context.Context, fields booking.ReviewFields) (*booking.Review, error) {
	review := &booking.Review{
		ID:           uint(len(f.reviews) + 1),
		TenantID:     fields.TenantID,
		SchedulingID: fields.SchedulingID,
		CustomerID:   fields.CustomerID,
		Score:        *fields.Score,
	}
	_ = review.BeforeSave()
	f.reviews[review.ID] = review
	copied := *review
	return &copied, nil
}

func (f *fakeBooking) GetReview(_ context.Context, id uint) (*booking.Review, error) {
	if review, ok := f.reviews[id]; ok {
		copied := *review
		return &copied, nil
	}
	return nil, fmt.Errorf("review %d: %w", id, booking.ErrNotFound)
}

func (f *fakeBooking) UpdateReview(_ context.Context, review *booking.Review, fields booking.ReviewFields) error {
	if fields.Comment != nil {
		review.Comment = fields.Comment
	}
	if fields.SentToRedirect != nil {
		review.SentToRedirect = *fields.SentToRedirect
	}
	_ = review.BeforeSave()
	stored := *review
	f.reviews[review.ID] = &stored
	return nil
}

func (f *fakeBooking) GetConfirmationRequest(_ context.Context, id uint) (*booking.ConfirmationRequest, error) {
	if request, ok := f.requests[id]; ok {
		return request, nil
	}
	return nil, fmt.Errorf("confirmation request %d: %w", id, booking.ErrNotFound)
}

func (f *fakeBooking) InterpretConfirmation(text string) booking.ConfirmationIntent {
	return booking.InterpretConfirmation(text)
}

func (f *fakeBooking) ConfirmRequest(_ context.Context, request *booking.ConfirmationRequest) error {
	request.Status = booking.ConfirmationConfirmed
	f.confirmed = append(f.confirmed, request.ID)
	return nil
}

func (f *fakeBooking) CancelRequest(_ context.Context, request *booking.ConfirmationRequest) error {
	request.Status = booking.ConfirmationCancelled
	f.rejected = append(f.rejected, request.ID)
	return nil
}

type recordingNotifier struct {
	feedback []NegativeFeedback
}

func (n *recordingNotifier) NegativeFeedback(_ context.Context, feedback NegativeFeedback) error {
	n.feedback = append(n.feedback, feedback)
	return nil
}

var testNow = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

var testCatalog = LoadCatalog()

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestTurn builds a turn for tenant 1 and phone +5511999990000 in the given state
func newTestTurn(state State, payload interface{}, body string) *Turn {
	conversation, err := chat.NewConversation(1, "+5511999990000", string(state), payload, testNow.Add(time.Hour))
	if err != nil {
		panic(err)
	}
	return &Turn{
		Conversation: conversation,
		Message:      chat.Message{TenantID: 1, Sender: "+5511999990000", Body: body},
		Now:          testNow,
		Texts:        testCatalog.Texts("pt-BR", nil),
		Location:     time.UTC,
		Logger:       discardLogger(),
	}
}
