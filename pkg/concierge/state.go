// Package concierge is the dialogue engine behind the scheduling chat concierge.
//
// Every phone talking to a tenant has at most one active chat.Conversation whose
// State names the step of the flow it is in. The Dispatcher loads that
// conversation, hands the new message to the Handler registered for the state and
// applies the Step the handler decided: stay, advance to another state, or close.
package concierge

import "time"

// State names one step of a chat flow
type State string

const (
	StateAwaitingConfirmation       State = "awaiting_confirmation"
	StateAwaitingNPS                State = "awaiting_nps"
	StateAwaitingNPSComment         State = "awaiting_nps_comment"
	StateAwaitingPayment            State = "awaiting_payment"
	StateCancelAwaitingEmail        State = "cancel_awaiting_email"
	StateCancelListingSchedulings   State = "cancel_listing_schedulings"
	StateCancelAwaitingConfirmation State = "cancel_awaiting_confirmation"
	StateHandoff                    State = "handoff"
)

// How long each state waits for the next message
const (
	confirmationTTL = 24 * time.Hour
	npsTTL          = 48 * time.Hour
	npsCommentTTL   = 24 * time.Hour
	paymentTTL      = 72 * time.Hour
	cancelTTL       = 2 * time.Hour
	handoffTTL      = 30 * time.Minute
)

// Tenant settings read by the engine
const (
	SettingLanguage          = "language"
	SettingTimezone          = "timezone"
	SettingRedirectThreshold = "nps_redirect_threshold"
	SettingRedirectLink      = "nps_redirect_link"
	SettingSupportPhone      = "support_phone"
)

const (
	defaultLanguage          = "pt-BR"
	defaultTimezone          = "America/Sao_Paulo"
	defaultRedirectThreshold = 9
)

// SnapshotDateLayout is how scheduling dates are shown to customers and stored in snapshots
const SnapshotDateLayout = "02/01/2006 15:04"

// SchedulingSnapshot is a booking as it was listed to the customer. Later steps of
// cancel-by-chat resolve against the snapshot instead of querying again.
type SchedulingSnapshot struct {
	ID      uint   `json:"id"`
	Date    string `json:"date"`
	Service string `json:"service"`
}

type confirmationPayload struct {
	ConfirmationRequestID uint `json:"confirmation_request_id"`
}

type npsPayload struct {
	AppointmentID uint `json:"appointment_id"`
	CustomerID    uint `json:"customer_id"`
}

type npsCommentPayload struct {
	ReviewID uint `json:"review_id"`
}

type paymentPayload struct {
	SchedulingID uint `json:"scheduling_id"`
}

type cancelListingPayload struct {
	Email       string               `json:"email"`
	Schedulings []SchedulingSnapshot `json:"schedulings"`
}

type cancelConfirmationPayload struct {
	Email             string `json:"email"`
	SchedulingID      uint   `json:"scheduling_id"`
	SchedulingDate    string `json:"scheduling_date"`
	SchedulingService string `json:"scheduling_service"`
}
