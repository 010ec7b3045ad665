package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sfreiberg/gotwilio"

	"github.com/City-Bureau/agendachat/pkg/config"
	"github.com/City-Bureau/agendachat/pkg/svc"
)

var emptyResponse = events.APIGatewayProxyResponse{
	Body:       `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`,
	Headers:    map[string]string{"content-type": "text/xml"},
	StatusCode: http.StatusOK,
}

type webhookHandler struct {
	twilioChat *svc.TwilioChat
	sns        svc.SNS
	topicArn   string
	endpoint   string
}

func (h *webhookHandler) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	values, err := url.ParseQuery(request.Body)
	if err != nil {
		slog.Warn("unreadable webhook body", "error", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}, nil
	}

	isValid, err := h.twilioChat.CheckSignature(h.endpoint+request.Path, request.Headers["X-Twilio-Signature"], values)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	if !isValid {
		slog.Warn("twilio signature is not valid", "path", request.Path)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusForbidden}, nil
	}

	webhook, err := svc.DecodeWebhook(values)
	if err != nil {
		slog.Warn("webhook form not valid", "error", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}, nil
	}
	message := h.twilioChat.HandleSMSWebhook(webhook)
	messageJSON, err := json.Marshal(message)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	slog.Info("message received", "message_id", message.ID, "to", message.Recipient, "audio", message.IsAudio())
	if err := h.sns.Publish(string(messageJSON), h.topicArn, svc.ReceivedMessageFeed); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return emptyResponse, nil
}

func main() {
	config.InitLogger()
	cfg, err := config.Load(config.SNSTopicARN, config.TwilioAccountSID, config.TwilioAuthToken, config.GatewayEndpoint)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	client := gotwilio.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	h := &webhookHandler{
		twilioChat: svc.NewTwilioChat(client, "", ""),
		sns:        svc.NewSNSClient(),
		topicArn:   cfg.SNSTopicARN,
		endpoint:   cfg.GatewayEndpoint,
	}
	lambda.Start(h.handle)
}
