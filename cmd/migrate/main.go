package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/City-Bureau/agendachat/pkg/booking"
	"github.com/City-Bureau/agendachat/pkg/chat"
	"github.com/City-Bureau/agendachat/pkg/config"
)

func handler(_ context.Context, _ events.CloudWatchEvent) error {
	cfg, err := config.Load(config.RDSHost)
	if err != nil {
		return err
	}
	db, err := cfg.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	models := append([]interface{}{&chat.Conversation{}}, booking.Models()...)
	if err := db.AutoMigrate(models...).Error; err != nil {
		return err
	}
	slog.Info("migrated tables", "count", len(models))
	return nil
}

func main() {
	config.InitLogger()
	if len(os.Args) > 1 && os.Args[1] == "local" {
		if err := handler(context.Background(), events.CloudWatchEvent{}); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		return
	}
	lambda.Start(handler)
}
