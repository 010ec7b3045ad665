package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/City-Bureau/agendachat/pkg/booking"
	"github.com/City-Bureau/agendachat/pkg/concierge"
)

// MessengerMock is a mock for concierge.Messenger
type MessengerMock struct {
	mock.Mock
}

func (m *MessengerMock) Send(ctx context.Context, tenantID uint, to, body string) error {
	args := m.Called(ctx, tenantID, to, body)
	return args.Error(0)
}

// NotifierMock is a mock for concierge.Notifier
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NegativeFeedback(ctx context.Context, feedback concierge.NegativeFeedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

// StarterMock is a mock for concierge.Starter
type StarterMock struct {
	mock.Mock
}

func (m *StarterMock) Start(ctx context.Context, event concierge.FlowEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// CollaboratorsMock is a mock for concierge.Collaborators
type CollaboratorsMock struct {
	mock.Mock
}

func (m *CollaboratorsMock) Setting(ctx context.Context, tenantID uint, key string) (string, error) {
	args := m.Called(ctx, tenantID, key)
	return args.String(0), args.Error(1)
}

func (m *CollaboratorsMock) GetCustomer(ctx context.Context, id uint) (*booking.Customer, error) {
	args := m.Called(ctx, id)
	customer, _ := args.Get(0).(*booking.Customer)
	return customer, args.Error(1)
}

func (m *CollaboratorsMock) GetScheduling(ctx context.Context, id uint) (*booking.Scheduling, error) {
	args := m.Called(ctx, id)
	scheduling, _ := args.Get(0).(*booking.Scheduling)
	return scheduling, args.Error(1)
}

func (m *CollaboratorsMock) CancelScheduling(ctx context.Context, scheduling *booking.Scheduling) error {
	args := m.Called(ctx, scheduling)
	return args.Error(0)
}

func (m *CollaboratorsMock) UpcomingSchedulings(ctx context.Context, tenantID uint, email string, from time.Time) ([]booking.Scheduling, error) {
	args := m.Called(ctx, tenantID, email, from)
	schedulings, _ := args.Get(0).([]booking.Scheduling)
	return schedulings, args.Error(1)
}

func (m *CollaboratorsMock) CreateReview(ctx context.Context, fields booking.ReviewFields) (*booking.Review, error) {
	args := m.Called(ctx, fields)
	review, _ := args.Get(0).(*booking.Review)
	return review, args.Error(1)
}

func (m *CollaboratorsMock) GetReview(ctx context.Context, id uint) (*booking.Review, error) {
	args := m.Called(ctx, id)
	review, _ := args.Get(0).(*booking.Review)
	return review, args.Error(1)
}

func (m *CollaboratorsMock) UpdateReview(ctx context.Context, review *booking.Review, fields booking.ReviewFields) error {
	args := m.Called(ctx, review, fields)
	return args.Error(0)
}

func (m *CollaboratorsMock) GetConfirmationRequest(ctx context.Context, id uint) (*booking.ConfirmationRequest, error) {
	args := m.Called(ctx, id)
	request, _ := args.Get(0).(*booking.ConfirmationRequest)
	return request, args.Error(1)
}

func (m *CollaboratorsMock) InterpretConfirmation(text string) booking.ConfirmationIntent {
	args := m.Called(text)
	return args.Get(0).(booking.ConfirmationIntent)
}

func (m *CollaboratorsMock) ConfirmRequest(ctx context.Context, request *booking.ConfirmationRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *CollaboratorsMock) CancelRequest(ctx context.Context, request *booking.ConfirmationRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

var (
	_ concierge.Messenger     = (*MessengerMock)(nil)
	_ concierge.Notifier      = (*NotifierMock)(nil)
	_ concierge.Starter       = (*StarterMock)(nil)
	_ concierge.Collaborators = (*CollaboratorsMock)(nil)
)
