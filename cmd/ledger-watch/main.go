// ledger-watch tails the activity event stream and logs settlements,
// for operators who want a live view without polling the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/autohive/arledger/internal/ledger/events"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, "ledger-watch", cfg.Topic, logger)
	defer consumer.Close()

	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_type", string(event.Type)),
			zap.String("employee", event.Entry.Employee),
			zap.String("action", event.Entry.Action),
		}
		if event.Entry.CompanyID != nil {
			fields = append(fields, zap.String("company_id", event.Entry.CompanyID.String()))
		}
		if event.Type == events.ContractSettled {
			logger.Info("contract settled", fields...)
			return nil
		}
		logger.Info("activity recorded", fields...)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func loadConfig() (*Config, error) {
	file, err := os.ReadFile(filepath.Join("internal", "ledger", "config", "config.yaml"))
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
