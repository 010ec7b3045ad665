package concierge

import "context"

// paymentHandler reads replies to payment reminders. It only records what the
// customer said; settling or cancelling the payment belongs to billing.
type paymentHandler struct{}

func (h *paymentHandler) Handle(_ context.Context, turn *Turn) (Step, error) {
	var payload paymentPayload
	if err := turn.Conversation.DecodePayload(&payload); err != nil || payload.SchedulingID == 0 {
		turn.Logger.Warn("payment conversation without scheduling id", "error", err)
		return closeFlow(nil), nil
	}
	intent := MatchPaymentIntent(turn.Message.Body)
	if intent == PaymentUnrecognized {
		turn.Logger.Info("unrecognized payment reply", "scheduling_id", payload.SchedulingID, "body", turn.Message.Body)
		return stay(nil), nil
	}
	turn.Logger.Info("payment reply interpreted", "scheduling_id", payload.SchedulingID, "action", intent)
	return closeFlow(nil), nil
}
