package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/City-Bureau/agendachat/pkg/booking"
	"github.com/City-Bureau/agendachat/pkg/chat"
	"github.com/City-Bureau/agendachat/pkg/concierge"
	"github.com/City-Bureau/agendachat/pkg/config"
	"github.com/City-Bureau/agendachat/pkg/svc"
)

type messageHandler interface {
	Handle(ctx context.Context, msg chat.Message) (bool, error)
}

type tenantFinder interface {
	TenantByPhone(ctx context.Context, phone string) (*booking.Tenant, error)
}

type app struct {
	messages messageHandler
	starter  concierge.Starter
	tenants  tenantFinder
}

func (a *app) handleReceivedMessage(ctx context.Context, body string) error {
	var message chat.Message
	if err := json.Unmarshal([]byte(body), &message); err != nil {
		return err
	}
	tenant, err := a.tenants.TenantByPhone(ctx, message.Recipient)
	if errors.Is(err, booking.ErrNotFound) {
		slog.Warn("message to a number without tenant", "to", message.Recipient, "message_id", message.ID)
		return nil
	}
	if err != nil {
		return err
	}
	message.TenantID = tenant.ID

	handled, err := a.messages.Handle(ctx, message)
	if err != nil {
		return fmt.Errorf("handle message %s: %w", message.ID, err)
	}
	if !handled {
		slog.Info("message outside any flow", "tenant_id", tenant.ID, "message_id", message.ID)
	}
	return nil
}

func (a *app) handleStartFlow(ctx context.Context, body string) error {
	var event concierge.FlowEvent
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return err
	}
	return a.starter.Start(ctx, event)
}

func (a *app) handler(ctx context.Context, request events.SNSEvent) error {
	for _, record := range request.Records {
		feed, ok := svc.FeedFromAttributes(record.SNS.MessageAttributes)
		if !ok {
			slog.Warn("feed not present in SNS message", "message_id", record.SNS.MessageID)
			continue
		}
		var err error
		switch feed {
		case svc.ReceivedMessageFeed:
			err = a.handleReceivedMessage(ctx, record.SNS.Message)
		case svc.StartFlowFeed:
			err = a.handleStartFlow(ctx, record.SNS.Message)
		default:
			slog.Info("no handler for feed", "feed", feed)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {
	config.InitLogger()
	cfg, err := config.Load(config.RDSHost, config.SNSTopicARN)
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

	repository := booking.NewRepository(db)
	snsClient := svc.NewSNSClient()
	dispatcher := concierge.NewDispatcher(concierge.Deps{
		Store:           chat.NewGormStore(db),
		Messenger:       svc.NewSNSMessenger(snsClient, cfg.SNSTopicARN),
		Notifier:        svc.NewSNSNotifier(snsClient, cfg.SNSTopicARN),
		Collaborators:   repository,
		Catalog:         concierge.LoadCatalog(),
		DefaultLanguage: cfg.DefaultLanguage,
	})
	a := &app{messages: dispatcher, starter: dispatcher, tenants: repository}
	lambda.Start(a.handler)
}
