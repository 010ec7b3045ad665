package concierge

import (
	"context"
	"errors"
	"fmt"

	"github.com/City-Bureau/agendachat/pkg/booking"
)

type confirmationHandler struct {
	confirmations Confirmations
}

// Handle answers a booking confirmation request. Replies that read neither as a
// confirmation nor as a cancellation are only logged.
func (h *confirmationHandler) Handle(ctx context.Context, turn *Turn) (Step, error) {
	var payload confirmationPayload
	if err := turn.Conversation.DecodePayload(&payload); err != nil || payload.ConfirmationRequestID == 0 {
		turn.Logger.Warn("confirmation conversation without request id", "error", err)
		return closeFlow(nil), nil
	}
	request, err := h.confirmations.GetConfirmationRequest(ctx, payload.ConfirmationRequestID)
	if errors.Is(err, booking.ErrNotFound) {
		turn.Logger.Warn("confirmation request not found", "confirmation_request_id", payload.ConfirmationRequestID)
		return closeFlow(nil), nil
	}
	if err != nil {
		return Step{}, err
	}
	if !request.IsPending() {
		turn.Logger.Info("confirmation request already answered", "confirmation_request_id", request.ID, "status", request.Status)
		return closeFlow(nil), nil
	}

	intent := h.confirmations.InterpretConfirmation(turn.Message.Body)
	switch intent {
	case booking.IntentConfirm:
		if err := h.confirmations.ConfirmRequest(ctx, request); err != nil {
			return Step{}, fmt.Errorf("confirm request %d: %w", request.ID, err)
		}
	case booking.IntentCancel:
		if err := h.confirmations.CancelRequest(ctx, request); err != nil {
			return Step{}, fmt.Errorf("cancel request %d: %w", request.ID, err)
		}
	default:
		turn.Logger.Info("unrecognized confirmation reply", "confirmation_request_id", request.ID, "body", turn.Message.Body)
		return stay(nil), nil
	}
	turn.Logger.Info("confirmation request answered", "confirmation_request_id", request.ID, "intent", intent)
	return closeFlow(nil), nil
}
