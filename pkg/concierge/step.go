package concierge

import (
	"context"
	"log/slog"
	"time"

	"github.com/City-Bureau/agendachat/pkg/chat"
)

// Action is what happens to the conversation after a message
type Action int

const (
	// Stay leaves the conversation untouched
	Stay Action = iota
	// Advance replaces the conversation with a new state and payload
	Advance
	// Close removes the conversation
	Close
)

func (a Action) String() string {
	switch a {
	case Advance:
		return "advance"
	case Close:
		return "close"
	default:
		return "stay"
	}
}

// Reply is an outbound text. An empty To means the customer.
type Reply struct {
	To   string
	Body string
}

// Step is the decision a Handler takes for one message. Handlers never write the
// conversation or send messages themselves; the Dispatcher applies the step.
type Step struct {
	Action  Action
	State   State
	Payload interface{}
	TTL     time.Duration
	Reply   *Reply
}

func stay(reply *Reply) Step {
	return Step{Action: Stay, Reply: reply}
}

func closeFlow(reply *Reply) Step {
	return Step{Action: Close, Reply: reply}
}

func advance(state State, payload interface{}, ttl time.Duration, reply *Reply) Step {
	return Step{Action: Advance, State: state, Payload: payload, TTL: ttl, Reply: reply}
}

func toCustomer(body string) *Reply {
	return &Reply{Body: body}
}

// Turn is one inbound message together with the conversation it belongs to
type Turn struct {
	Conversation *chat.Conversation
	Message      chat.Message
	Now          time.Time
	Texts        *Texts
	Location     *time.Location
	Logger       *slog.Logger
}

func (t *Turn) TenantID() uint {
	return t.Conversation.TenantID
}

func (t *Turn) Phone() string {
	return t.Conversation.Phone
}

// Handler decides the Step for a message received in one State
type Handler interface {
	Handle(ctx context.Context, turn *Turn) (Step, error)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, turn *Turn) (Step, error)

func (f HandlerFunc) Handle(ctx context.Context, turn *Turn) (Step, error) {
	return f(ctx, turn)
}
