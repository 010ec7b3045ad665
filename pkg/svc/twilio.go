package svc

import (
	"context"
	"crypto/hmac"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/sfreiberg/gotwilio"

	"github.com/City-Bureau/agendachat/pkg/booking"
	"github.com/City-Bureau/agendachat/pkg/chat"
	"github.com/City-Bureau/agendachat/pkg/concierge"
)

// TwilioClient generalizes access to Twilio
type TwilioClient interface {
	SendSMS(string, string, string, string, string) (*gotwilio.SmsResponse, *gotwilio.Exception, error)
	GenerateSignature(string, url.Values) ([]byte, error)
}

// SMSWebhook is the form Twilio posts for an incoming message
type SMSWebhook struct {
	MessageSid        string `schema:"MessageSid"`
	AccountSid        string `schema:"AccountSid"`
	From              string `schema:"From"`
	To                string `schema:"To"`
	Body              string `schema:"Body"`
	NumMedia          string `schema:"NumMedia"`
	MediaContentType0 string `schema:"MediaContentType0"`
	MediaURL0         string `schema:"MediaUrl0"`
}

var webhookDecoder = func() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}()

// DecodeWebhook reads the posted form of a Twilio webhook
func DecodeWebhook(values url.Values) (SMSWebhook, error) {
	var webhook SMSWebhook
	err := webhookDecoder.Decode(&webhook, values)
	return webhook, err
}

// IsAudio reports whether the first attached media is a voice note
func (w SMSWebhook) IsAudio() bool {
	count, _ := strconv.Atoi(w.NumMedia)
	return count > 0 && strings.HasPrefix(w.MediaContentType0, "audio/")
}

// TwilioChat sends and receives messages through one Twilio number
type TwilioChat struct {
	Client TwilioClient
	From   string // The tenant's Twilio number
	To     string // The customer
}

// NewTwilioChat is a constructor for Twilio Chat structs
func NewTwilioChat(client TwilioClient, from, to string) *TwilioChat {
	return &TwilioChat{
		Client: client,
		From:   from,
		To:     to,
	}
}

// SendSMS sends body and returns the Twilio message sid
func (c *TwilioChat) SendSMS(body string) (string, error) {
	res, exception, err := c.Client.SendSMS(c.From, c.To, body, "", "")
	if err != nil {
		return "", err
	}
	if exception != nil {
		return "", fmt.Errorf("twilio returned error code %d: %s", exception.Code, exception.Message)
	}
	if res == nil {
		return "", nil
	}
	return res.Sid, nil
}

// HandleSMSWebhook manages incoming SMS webhooks and converts them to chat.Message structs
func (c *TwilioChat) HandleSMSWebhook(data SMSWebhook) chat.Message {
	createdAt := time.Now()
	message := chat.Message{
		ID:        data.MessageSid,
		Sender:    data.From,
		Recipient: data.To,
		Body:      data.Body,
		CreatedAt: &createdAt,
	}
	if data.IsAudio() {
		message.MediaType = chat.MediaAudio
	}
	return message
}

func (c *TwilioChat) CheckSignature(url, signature string, values url.Values) (bool, error) {
	expected, err := c.Client.GenerateSignature(url, values)
	if err != nil {
		return false, err
	}

	return hmac.Equal(expected, []byte(signature)), nil
}

// Tenants looks up the tenant a message is sent for
type Tenants interface {
	GetTenant(ctx context.Context, id uint) (*booking.Tenant, error)
}

// TwilioMessenger sends concierge replies directly from the tenant's Twilio number
type TwilioMessenger struct {
	Client  TwilioClient
	Tenants Tenants
}

func NewTwilioMessenger(client TwilioClient, tenants Tenants) *TwilioMessenger {
	return &TwilioMessenger{Client: client, Tenants: tenants}
}

func (m *TwilioMessenger) Send(ctx context.Context, tenantID uint, to, body string) error {
	tenant, err := m.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant.PhoneNumber == "" {
		return fmt.Errorf("tenant %d: %w", tenantID, concierge.ErrNoTransport)
	}
	_, err = NewTwilioChat(m.Client, tenant.PhoneNumber, to).SendSMS(body)
	return err
}

var _ concierge.Messenger = (*TwilioMessenger)(nil)
