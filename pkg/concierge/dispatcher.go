package concierge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/City-Bureau/agendachat/pkg/chat"
)

// ErrUnknownState is returned for a conversation whose state has no handler
var ErrUnknownState = errors.New("concierge: unknown state")

// Deps are the collaborators of a Dispatcher
type Deps struct {
	Store           chat.Store
	Messenger       Messenger
	Notifier        Notifier
	Collaborators   Collaborators
	Catalog         *Catalog
	DefaultLanguage string
	// Now defaults to time.Now
	Now func() time.Time
	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// Dispatcher routes inbound messages to the handler of the conversation's state
// and applies the step it decides
type Dispatcher struct {
	store           chat.Store
	messenger       Messenger
	collaborators   Collaborators
	catalog         *Catalog
	defaultLanguage string
	now             func() time.Time
	logger          *slog.Logger
	handlers        map[State]Handler
	locks           *KeyedMutex
}

func NewDispatcher(deps Deps) *Dispatcher {
	d := &Dispatcher{
		store:           deps.Store,
		messenger:       deps.Messenger,
		collaborators:   deps.Collaborators,
		catalog:         deps.Catalog,
		defaultLanguage: deps.DefaultLanguage,
		now:             deps.Now,
		logger:          deps.Logger,
		locks:           NewKeyedMutex(),
	}
	if d.catalog == nil {
		d.catalog = LoadCatalog()
	}
	if d.defaultLanguage == "" {
		d.defaultLanguage = defaultLanguage
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	c := deps.Collaborators
	d.handlers = map[State]Handler{
		StateAwaitingConfirmation:       &confirmationHandler{confirmations: c},
		StateAwaitingNPS:                &npsHandler{reviews: c, settings: c},
		StateAwaitingNPSComment:         &npsCommentHandler{reviews: c, notifier: deps.Notifier},
		StateAwaitingPayment:            &paymentHandler{},
		StateCancelAwaitingEmail:        &cancelEmailHandler{schedulings: c},
		StateCancelListingSchedulings:   &cancelListingHandler{},
		StateCancelAwaitingConfirmation: &cancelConfirmationHandler{schedulings: c},
		StateHandoff:                    &handoffHandler{customers: c, settings: c},
	}
	return d
}

// Resolve returns the handler registered for state
func (d *Dispatcher) Resolve(state State) (Handler, error) {
	handler, ok := d.handlers[state]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	return handler, nil
}

// Handle processes one inbound message. Messages from phones without an active
// conversation only start a flow when they ask for one, otherwise handled is false.
// The load, the handler and the write run under the store lock for the phone and
// the reply goes out once the write committed.
func (d *Dispatcher) Handle(ctx context.Context, msg chat.Message) (handled bool, err error) {
	unlock := d.locks.Lock(conversationKey(msg.TenantID, msg.Sender))
	defer unlock()

	now := d.now()
	logger := d.logger.With(
		"dispatch_id", uuid.New().String(),
		"tenant_id", msg.TenantID,
		"phone", msg.Sender,
	)
	var out *outgoing
	err = d.store.Locked(ctx, msg.TenantID, msg.Sender, func(store chat.Store) error {
		var err error
		handled, out, err = d.dispatch(ctx, store, msg, now, logger)
		return err
	})
	if err != nil {
		return handled, err
	}
	d.send(ctx, out)
	return handled, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, store chat.Store, msg chat.Message, now time.Time, logger *slog.Logger) (bool, *outgoing, error) {
	conversation, err := store.Get(ctx, msg.TenantID, msg.Sender, now)
	if err != nil {
		return false, nil, fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		return d.enter(ctx, store, msg, now, logger)
	}

	logger = logger.With("state", conversation.State)
	handler, err := d.Resolve(State(conversation.State))
	if err != nil {
		logger.Error("conversation in unknown state", "error", err)
		return false, nil, err
	}
	turn := d.newTurn(ctx, conversation, msg, now, logger)
	step, err := handler.Handle(ctx, turn)
	if err != nil {
		logger.Error("handler failed, conversation left unchanged", "error", err)
		return true, nil, nil
	}
	out, err := d.apply(ctx, store, turn, step)
	return true, out, err
}

// enter starts cancel-by-chat or a handoff for a phone without an active conversation
func (d *Dispatcher) enter(ctx context.Context, store chat.Store, msg chat.Message, now time.Time, logger *slog.Logger) (bool, *outgoing, error) {
	conversation := &chat.Conversation{TenantID: msg.TenantID, Phone: msg.Sender}
	turn := d.newTurn(ctx, conversation, msg, now, logger)

	var step Step
	switch {
	case matchesAny(msg.Body, entryHandoffPhrases):
		step = advance(StateHandoff, struct{}{}, handoffTTL, toCustomer(turn.Texts.Get("handoff-started")))
	case matchesAny(msg.Body, entryCancelPhrases):
		step = advance(StateCancelAwaitingEmail, struct{}{}, cancelTTL, toCustomer(turn.Texts.Get("cancel-ask-email")))
	default:
		logger.Debug("message outside any flow")
		return false, nil, nil
	}
	logger.Info("flow started by customer", "state", step.State)
	out, err := d.apply(ctx, store, turn, step)
	return true, out, err
}

func (d *Dispatcher) newTurn(ctx context.Context, conversation *chat.Conversation, msg chat.Message, now time.Time, logger *slog.Logger) *Turn {
	texts, loc := d.locale(ctx, conversation.TenantID, logger)
	return &Turn{
		Conversation: conversation,
		Message:      msg,
		Now:          now,
		Texts:        texts,
		Location:     loc,
		Logger:       logger,
	}
}

// locale loads the tenant's language and timezone, falling back to the defaults
func (d *Dispatcher) locale(ctx context.Context, tenantID uint, logger *slog.Logger) (*Texts, *time.Location) {
	lang, err := d.collaborators.Setting(ctx, tenantID, SettingLanguage)
	if err != nil {
		logger.Error("failed to load language", "error", err)
	}
	if lang == "" {
		lang = d.defaultLanguage
	}

	zone, err := d.collaborators.Setting(ctx, tenantID, SettingTimezone)
	if err != nil {
		logger.Error("failed to load timezone", "error", err)
	}
	if zone == "" {
		zone = defaultTimezone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		logger.Warn("invalid timezone, using UTC", "timezone", zone, "error", err)
		loc = time.UTC
	}
	return d.catalog.Texts(lang, logger), loc
}

// outgoing is a reply held back until its transition is committed
type outgoing struct {
	tenantID uint
	phone    string
	reply    *Reply
	logger   *slog.Logger
}

// apply writes the step's transition through store and returns its reply. A
// failed send never undoes the transition.
func (d *Dispatcher) apply(ctx context.Context, store chat.Store, turn *Turn, step Step) (*outgoing, error) {
	logger := turn.Logger.With("action", step.Action.String())
	switch step.Action {
	case Advance:
		next, err := chat.NewConversation(turn.TenantID(), turn.Phone(), string(step.State), step.Payload, turn.Now.Add(step.TTL))
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", step.State, err)
		}
		next.CustomerID = turn.Conversation.CustomerID
		if err := store.CreateOrReplace(ctx, next); err != nil {
			return nil, fmt.Errorf("save conversation: %w", err)
		}
		logger = logger.With("next_state", step.State, "expires_at", next.ExpiresAt)
	case Close:
		if err := store.Close(ctx, turn.TenantID(), turn.Phone()); err != nil {
			return nil, fmt.Errorf("close conversation: %w", err)
		}
	}
	logger.Info("step applied")
	return &outgoing{tenantID: turn.TenantID(), phone: turn.Phone(), reply: step.Reply, logger: logger}, nil
}

func (d *Dispatcher) send(ctx context.Context, out *outgoing) {
	if out == nil || out.reply == nil {
		return
	}
	to := out.reply.To
	if to == "" {
		to = out.phone
	}
	err := d.messenger.Send(ctx, out.tenantID, to, out.reply.Body)
	if errors.Is(err, ErrNoTransport) {
		out.logger.Warn("no transport configured, reply dropped", "to", to)
	} else if err != nil {
		out.logger.Error("failed to send reply", "to", to, "error", err)
	}
}
