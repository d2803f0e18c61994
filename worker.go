package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"splitfree/config"
	"splitfree/queue"
	"splitfree/services"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued payment reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return work(ctx)
		},
	}
}

func work(ctx context.Context) error {
	cfg, logger := setup()
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}
	if cfg.Storage == config.StorageMemory {
		return errors.New("the worker needs shared storage, STORAGE=memory is not supported")
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	notifier, err := services.NewNotificationService(ctx, cfg, store.Users, logger)
	if err != nil {
		return err
	}

	client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("🚀 reminder worker started", "queue", cfg.AMQPQueue)
	if err := client.Consume(ctx, notifier); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
