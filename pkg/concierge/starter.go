package concierge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/City-Bureau/agendachat/pkg/chat"
)

// Flow names a flow the booking system can open with a customer
type Flow string

const (
	FlowConfirmation Flow = "confirmation"
	FlowNPS          Flow = "nps"
	FlowPayment      Flow = "payment"
	FlowCancellation Flow = "cancellation"
	FlowHandoff      Flow = "handoff"
)

// FlowEvent asks for a flow to be opened with a customer. Which ids are required
// depends on the flow.
type FlowEvent struct {
	Flow                  Flow   `json:"flow"`
	TenantID              uint   `json:"tenantId"`
	Phone                 string `json:"phone"`
	CustomerID            *uint  `json:"customerId,omitempty"`
	ConfirmationRequestID uint   `json:"confirmationRequestId,omitempty"`
	AppointmentID         uint   `json:"appointmentId,omitempty"`
	SchedulingID          uint   `json:"schedulingId,omitempty"`
}

// Starter opens flows, replacing whatever conversation the phone had
type Starter interface {
	Start(ctx context.Context, event FlowEvent) error
}

// Start opens the flow named by event
func (d *Dispatcher) Start(ctx context.Context, event FlowEvent) error {
	switch event.Flow {
	case FlowConfirmation:
		return d.RequestConfirmation(ctx, event.TenantID, event.Phone, event.CustomerID, event.ConfirmationRequestID)
	case FlowNPS:
		if event.CustomerID == nil {
			return fmt.Errorf("nps flow for %s: missing customer id", event.Phone)
		}
		return d.RequestNPS(ctx, event.TenantID, event.Phone, *event.CustomerID, event.AppointmentID)
	case FlowPayment:
		return d.RemindPayment(ctx, event.TenantID, event.Phone, event.CustomerID, event.SchedulingID)
	case FlowCancellation:
		return d.StartCancellation(ctx, event.TenantID, event.Phone, event.CustomerID)
	case FlowHandoff:
		return d.StartHandoff(ctx, event.TenantID, event.Phone, event.CustomerID)
	default:
		return fmt.Errorf("unknown flow %q", event.Flow)
	}
}

// opening is the first step of a flow, rendered once the tenant's locale is known
type opening func(ctx context.Context, turn *Turn) (Step, error)

func (d *Dispatcher) open(ctx context.Context, tenantID uint, phone string, customerID *uint, flow Flow, first opening) error {
	unlock := d.locks.Lock(conversationKey(tenantID, phone))
	defer unlock()

	logger := d.logger.With(
		"dispatch_id", uuid.New().String(),
		"tenant_id", tenantID,
		"phone", phone,
		"flow", flow,
	)
	var out *outgoing
	err := d.store.Locked(ctx, tenantID, phone, func(store chat.Store) error {
		conversation := &chat.Conversation{TenantID: tenantID, Phone: phone, CustomerID: customerID}
		turn := d.newTurn(ctx, conversation, chat.Message{TenantID: tenantID, Recipient: phone}, d.now(), logger)
		step, err := first(ctx, turn)
		if err != nil {
			logger.Error("failed to open flow", "error", err)
			return err
		}
		out, err = d.apply(ctx, store, turn, step)
		return err
	})
	if err != nil {
		return err
	}
	d.send(ctx, out)
	return nil
}

// RequestConfirmation asks the customer to confirm the booking behind a pending request
func (d *Dispatcher) RequestConfirmation(ctx context.Context, tenantID uint, phone string, customerID *uint, requestID uint) error {
	return d.open(ctx, tenantID, phone, customerID, FlowConfirmation, func(ctx context.Context, turn *Turn) (Step, error) {
		request, err := d.collaborators.GetConfirmationRequest(ctx, requestID)
		if err != nil {
			return Step{}, err
		}
		scheduling, err := d.collaborators.GetScheduling(ctx, request.SchedulingID)
		if err != nil {
			return Step{}, err
		}
		body := turn.Texts.Get("confirmation-prompt", map[string]interface{}{
			"Service": scheduling.Service.Name,
			"Date":    scheduling.Date.In(turn.Location).Format(SnapshotDateLayout),
		})
		return advance(StateAwaitingConfirmation, confirmationPayload{ConfirmationRequestID: request.ID}, confirmationTTL, toCustomer(body)), nil
	})
}

// RequestNPS asks the customer to rate a finished appointment
func (d *Dispatcher) RequestNPS(ctx context.Context, tenantID uint, phone string, customerID, appointmentID uint) error {
	return d.open(ctx, tenantID, phone, &customerID, FlowNPS, func(_ context.Context, turn *Turn) (Step, error) {
		if appointmentID == 0 {
			return Step{}, fmt.Errorf("nps flow for %s: missing appointment id", phone)
		}
		payload := npsPayload{AppointmentID: appointmentID, CustomerID: customerID}
		return advance(StateAwaitingNPS, payload, npsTTL, toCustomer(turn.Texts.Get("nps-prompt"))), nil
	})
}

// RemindPayment reminds the customer of a pending payment
func (d *Dispatcher) RemindPayment(ctx context.Context, tenantID uint, phone string, customerID *uint, schedulingID uint) error {
	return d.open(ctx, tenantID, phone, customerID, FlowPayment, func(ctx context.Context, turn *Turn) (Step, error) {
		scheduling, err := d.collaborators.GetScheduling(ctx, schedulingID)
		if err != nil {
			return Step{}, err
		}
		body := turn.Texts.Get("payment-reminder", map[string]interface{}{
			"Service": scheduling.Service.Name,
			"Date":    scheduling.Date.In(turn.Location).Format(SnapshotDateLayout),
		})
		return advance(StateAwaitingPayment, paymentPayload{SchedulingID: scheduling.ID}, paymentTTL, toCustomer(body)), nil
	})
}

func (d *Dispatcher) StartCancellation(ctx context.Context, tenantID uint, phone string, customerID *uint) error {
	return d.open(ctx, tenantID, phone, customerID, FlowCancellation, func(_ context.Context, turn *Turn) (Step, error) {
		return advance(StateCancelAwaitingEmail, struct{}{}, cancelTTL, toCustomer(turn.Texts.Get("cancel-ask-email"))), nil
	})
}

func (d *Dispatcher) StartHandoff(ctx context.Context, tenantID uint, phone string, customerID *uint) error {
	return d.open(ctx, tenantID, phone, customerID, FlowHandoff, func(_ context.Context, turn *Turn) (Step, error) {
		return advance(StateHandoff, struct{}{}, handoffTTL, toCustomer(turn.Texts.Get("handoff-started"))), nil
	})
}

var _ Starter = (*Dispatcher)(nil)
