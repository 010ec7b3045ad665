package concierge

import (
	"context"
	"fmt"
	"strings"

	"github.com/City-Bureau/agendachat/pkg/booking"
)

type cancelEmailHandler struct {
	schedulings Schedulings
}

// Handle looks up the customer's upcoming bookings by email and lists them
func (h *cancelEmailHandler) Handle(ctx context.Context, turn *Turn) (Step, error) {
	email, ok := ExtractEmail(turn.Message.Body)
	if !ok {
		return stay(toCustomer(turn.Texts.Get("cancel-invalid-email"))), nil
	}
	schedulings, err := h.schedulings.UpcomingSchedulings(ctx, turn.TenantID(), email, turn.Now)
	if err != nil {
		return Step{}, err
	}
	if len(schedulings) == 0 {
		turn.Logger.Info("no upcoming schedulings", "email", email)
		return stay(toCustomer(turn.Texts.Get("cancel-no-schedulings", map[string]interface{}{"Email": email}))), nil
	}

	snapshot := SnapshotSchedulings(schedulings, turn.Location)
	lines := []string{turn.Texts.Get("cancel-list-header")}
	for i, entry := range snapshot {
		lines = append(lines, turn.Texts.Get("cancel-list-item", map[string]interface{}{
			"Number":  i + 1,
			"Service": entry.Service,
			"Date":    entry.Date,
		}))
	}
	lines = append(lines, turn.Texts.Get("cancel-list-footer"))

	return advance(
		StateCancelListingSchedulings,
		cancelListingPayload{Email: email, Schedulings: snapshot},
		cancelTTL,
		toCustomer(strings.Join(lines, "\n")),
	), nil
}

type cancelListingHandler struct{}

// Handle resolves which listed booking the customer picked
func (h *cancelListingHandler) Handle(_ context.Context, turn *Turn) (Step, error) {
	var payload cancelListingPayload
	if err := turn.Conversation.DecodePayload(&payload); err != nil || len(payload.Schedulings) == 0 {
		turn.Logger.Warn("cancel listing without schedulings", "error", err)
		return closeFlow(nil), nil
	}
	id, ok := ResolveSnapshot(turn.Message.Body, payload.Schedulings)
	if !ok {
		turn.Logger.Info("could not resolve listed scheduling", "body", turn.Message.Body)
		return stay(toCustomer(turn.Texts.Get("cancel-list-clarify"))), nil
	}
	entry, ok := findSnapshot(payload.Schedulings, id)
	if !ok {
		turn.Logger.Error("resolved scheduling missing from snapshot", "scheduling_id", id)
		return stay(nil), nil
	}
	data := map[string]interface{}{"Service": entry.Service, "Date": entry.Date}
	return advance(
		StateCancelAwaitingConfirmation,
		cancelConfirmationPayload{
			Email:             payload.Email,
			SchedulingID:      entry.ID,
			SchedulingDate:    entry.Date,
			SchedulingService: entry.Service,
		},
		cancelTTL,
		toCustomer(turn.Texts.Get("cancel-confirm-prompt", data)),
	), nil
}

type cancelConfirmationHandler struct {
	schedulings Schedulings
}

// Handle cancels the chosen booking once the customer confirms. Whatever happens
// after the confirmation is matched, the conversation is closed.
func (h *cancelConfirmationHandler) Handle(ctx context.Context, turn *Turn) (Step, error) {
	var payload cancelConfirmationPayload
	if err := turn.Conversation.DecodePayload(&payload); err != nil || payload.SchedulingID == 0 {
		turn.Logger.Warn("cancel confirmation without scheduling id", "error", err)
		return closeFlow(nil), nil
	}
	data := map[string]interface{}{"Service": payload.SchedulingService, "Date": payload.SchedulingDate}
	if !MatchesCancelConfirmation(turn.Message.Body) {
		return stay(toCustomer(turn.Texts.Get("cancel-confirm-restate", data))), nil
	}

	body, err := h.cancel(ctx, turn, payload)
	if err != nil {
		turn.Logger.Error("failed to cancel scheduling",
			"scheduling_id", payload.SchedulingID,
			"email", payload.Email,
			"error", err,
		)
		return closeFlow(toCustomer(turn.Texts.Get("cancel-failed"))), nil
	}
	if body == "" {
		body = turn.Texts.Get("cancel-success", data)
	}
	return closeFlow(toCustomer(body)), nil
}

// cancel returns a non-empty body when the reply differs from the success message
func (h *cancelConfirmationHandler) cancel(ctx context.Context, turn *Turn, payload cancelConfirmationPayload) (body string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while cancelling: %v", r)
		}
	}()

	scheduling, err := h.schedulings.GetScheduling(ctx, payload.SchedulingID)
	if err != nil {
		return "", err
	}
	if scheduling.TenantID != turn.TenantID() {
		return "", fmt.Errorf("scheduling %d belongs to tenant %d", scheduling.ID, scheduling.TenantID)
	}
	if scheduling.Status == booking.SchedulingCancelled {
		turn.Logger.Info("scheduling already cancelled", "scheduling_id", scheduling.ID)
		return turn.Texts.Get("cancel-already-cancelled"), nil
	}
	if err := h.schedulings.CancelScheduling(ctx, scheduling); err != nil {
		return "", err
	}
	turn.Logger.Info("scheduling cancelled by chat", "scheduling_id", scheduling.ID)
	return "", nil
}
