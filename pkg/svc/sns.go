package svc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"

	"github.com/City-Bureau/agendachat/pkg/chat"
	"github.com/City-Bureau/agendachat/pkg/concierge"
)

// ReceivedMessageFeed is the feed name for handling received messages
const ReceivedMessageFeed = "handle_received_message"

// SendSMSFeed is the feed name for sending a Twilio SMS message
const SendSMSFeed = "send_twilio_sms"

// StartFlowFeed is the feed name for opening a flow from the booking system
const StartFlowFeed = "start_flow"

// NegativeFeedbackFeed is the feed name for detractor reviews that need a follow-up
const NegativeFeedbackFeed = "negative_feedback"

// SNS is an interface for the SNSClient and associated mock
type SNS interface {
	Publish(string, string, string) error
}

// SNSClient implements SNS for a generic way of managing the SNS service
type SNSClient struct {
	Client *sns.SNS
}

// NewSNSClient creates an SNSClient object
func NewSNSClient() *SNSClient {
	client := sns.New(session.Must(session.NewSession()))
	return &SNSClient{Client: client}
}

// Publish sends a message to a given topic and feed
func (c *SNSClient) Publish(message string, topicArn string, feed string) error {
	_, err := c.Client.Publish(&sns.PublishInput{
		Message:  aws.String(message),
		TopicArn: aws.String(topicArn),
		MessageAttributes: map[string]*sns.MessageAttributeValue{
			"feed": {
				DataType:    aws.String("String"),
				StringValue: aws.String(feed),
			},
		},
	})
	return err
}

// FeedFromAttributes reads the feed attribute of a delivered SNS record
func FeedFromAttributes(attributes map[string]interface{}) (string, bool) {
	attribute, ok := attributes["feed"]
	if !ok {
		return "", false
	}
	switch value := attribute.(type) {
	case string:
		return value, true
	case map[string]interface{}:
		feed, ok := value["Value"].(string)
		return feed, ok
	}
	return "", false
}

// SNSMessenger queues concierge replies on the send feed
type SNSMessenger struct {
	Client   SNS
	TopicArn string
}

func NewSNSMessenger(client SNS, topicArn string) *SNSMessenger {
	return &SNSMessenger{Client: client, TopicArn: topicArn}
}

func (m *SNSMessenger) Send(_ context.Context, tenantID uint, to, body string) error {
	messages := []chat.Message{{TenantID: tenantID, Recipient: to, Body: body}}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	if err := m.Client.Publish(string(messagesJSON), m.TopicArn, SendSMSFeed); err != nil {
		return fmt.Errorf("publish reply to %s: %w", to, err)
	}
	return nil
}

// SNSNotifier publishes concierge notifications for other services to pick up
type SNSNotifier struct {
	Client   SNS
	TopicArn string
}

func NewSNSNotifier(client SNS, topicArn string) *SNSNotifier {
	return &SNSNotifier{Client: client, TopicArn: topicArn}
}

func (n *SNSNotifier) NegativeFeedback(_ context.Context, feedback concierge.NegativeFeedback) error {
	feedbackJSON, err := json.Marshal(feedback)
	if err != nil {
		return err
	}
	return n.Client.Publish(string(feedbackJSON), n.TopicArn, NegativeFeedbackFeed)
}

// PublishFlowEvent asks the concierge to open a flow with a customer
func PublishFlowEvent(client SNS, topicArn string, event concierge.FlowEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return client.Publish(string(eventJSON), topicArn, StartFlowFeed)
}

var (
	_ concierge.Messenger = (*SNSMessenger)(nil)
	_ concierge.Notifier  = (*SNSNotifier)(nil)
)
