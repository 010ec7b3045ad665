package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sfreiberg/gotwilio"

	"github.com/City-Bureau/agendachat/pkg/booking"
	"github.com/City-Bureau/agendachat/pkg/chat"
	"github.com/City-Bureau/agendachat/pkg/concierge"
	"github.com/City-Bureau/agendachat/pkg/config"
	"github.com/City-Bureau/agendachat/pkg/svc"
)

type sender struct {
	messenger concierge.Messenger
	sns       svc.SNS
	topicArn  string
}

func (s *sender) handler(ctx context.Context, request events.SNSEvent) error {
	if len(request.Records) == 0 {
		return nil
	}

	var messages []chat.Message
	if err := json.Unmarshal([]byte(request.Records[0].SNS.Message), &messages); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	message := messages[0]
	err := s.messenger.Send(ctx, message.TenantID, message.Recipient, message.Body)
	if errors.Is(err, concierge.ErrNoTransport) {
		slog.Warn("no number to send from", "tenant_id", message.TenantID, "to", message.Recipient)
	} else if err != nil {
		return err
	}
	if len(messages) == 1 {
		return nil
	}

	// To make sure messages are sent in order, only send the top and
	// all other messages are chained
	messagesJSON, err := json.Marshal(messages[1:])
	if err != nil {
		return err
	}
	return s.sns.Publish(string(messagesJSON), s.topicArn, svc.SendSMSFeed)
}

func main() {
	config.InitLogger()
	cfg, err := config.Load(config.RDSHost, config.SNSTopicARN, config.TwilioAccountSID, config.TwilioAuthToken)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	db, err := cfg.OpenDB()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client := gotwilio.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	s := &sender{
		messenger: svc.NewTwilioMessenger(client, booking.NewRepository(db)),
		sns:       svc.NewSNSClient(),
		topicArn:  cfg.SNSTopicARN,
	}
	lambda.Start(s.handler)
}
