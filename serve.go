package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"splitfree/balance"
	"splitfree/database"
	"splitfree/handlers"
	"splitfree/ledger"
	"splitfree/middleware"
	"splitfree/queue"
	"splitfree/services"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, logger := setup()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Redis is optional; logout falls back to a process-local blacklist.
	redisClient := database.ConnectRedis(ctx, cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	notifier, err := services.NewNotificationService(ctx, cfg, store.Users, logger)
	if err != nil {
		return err
	}

	var reminder ledger.Reminder = notifier
	if cfg.AMQPURL != "" {
		client, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		reminder = client
		logger.Info("✅ Reminders are queued", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	l := ledger.New(store.Events, store.Users, ledger.WithReminder(reminder), ledger.WithLogger(logger))
	pool := ledger.NewPool(store.People, store.Expenses, logger)
	agg := balance.NewAggregator(l, pool, store.Friends, store.Groups)
	h := handlers.New(cfg, store, l, pool, agg, services.NewTokenBlacklist(redisClient), notifier, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORSMiddleware(cfg.CORSOrigins))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("🚀 %s server starting", cfg.AppName), "addr", srv.Addr, "storage", cfg.Storage)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
