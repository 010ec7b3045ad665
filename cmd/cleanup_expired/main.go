package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/City-Bureau/agendachat/pkg/chat"
	"github.com/City-Bureau/agendachat/pkg/config"
)

// purge removes conversations that expired more than retention ago
func purge(ctx context.Context, store chat.Store, now time.Time, retention time.Duration) (int64, error) {
	return store.DeleteExpired(ctx, now.Add(-retention))
}

func handler(ctx context.Context, _ events.CloudWatchEvent) error {
	cfg, err := config.Load(config.RDSHost)
	if err != nil {
		return err
	}
	db, err := cfg.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	deleted, err := purge(ctx, chat.NewGormStore(db), time.Now(), cfg.ExpiredRetention)
	if err != nil {
		return err
	}
	slog.Info("expired conversations purged", "deleted", deleted, "retention", cfg.ExpiredRetention.String())
	return nil
}

func main() {
	config.InitLogger()
	lambda.Start(handler)
}
