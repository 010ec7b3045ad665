package concierge

import (
	"context"
	"encoding/json"
)

type handoffHandler struct {
	customers Customers
	settings  Settings
}

// Handle keeps the handoff open for another window and forwards the message to
// the tenant's support phone. Nothing the customer says ends a handoff.
func (h *handoffHandler) Handle(ctx context.Context, turn *Turn) (Step, error) {
	payload := json.RawMessage(turn.Conversation.Payload.RawMessage)
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage("{}")
	}
	step := advance(StateHandoff, payload, handoffTTL, nil)

	support, err := h.settings.Setting(ctx, turn.TenantID(), SettingSupportPhone)
	if err != nil {
		turn.Logger.Error("failed to load support phone", "error", err)
		return step, nil
	}
	if support == "" {
		turn.Logger.Warn("no support phone configured, handoff message not forwarded")
		return step, nil
	}

	body := turn.Message.Body
	if turn.Message.IsAudio() {
		body = turn.Texts.Get("handoff-audio")
	}
	step.Reply = &Reply{
		To: support,
		Body: turn.Texts.Get("handoff-notification", map[string]interface{}{
			"Name":  h.customerName(ctx, turn),
			"Phone": turn.Phone(),
			"Body":  body,
		}),
	}
	return step, nil
}

func (h *handoffHandler) customerName(ctx context.Context, turn *Turn) string {
	fallback := turn.Texts.Get("customer-fallback-name")
	if turn.Conversation.CustomerID == nil {
		return fallback
	}
	customer, err := h.customers.GetCustomer(ctx, *turn.Conversation.CustomerID)
	if err != nil {
		turn.Logger.Warn("failed to load handoff customer", "customer_id", *turn.Conversation.CustomerID, "error", err)
		return fallback
	}
	if customer.Name == "" {
		return fallback
	}
	return customer.Name
}
