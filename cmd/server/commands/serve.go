package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"estate/server/config"
	"estate/server/internal/api"
	"estate/server/internal/database"
	"estate/server/internal/models"
	"estate/server/internal/processor"
	"estate/server/internal/queue"
	"estate/server/internal/telegram"
	"estate/server/internal/workflow"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run migrations, then serve the HTTP API and the notification pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context) error {
	logger.WithField("driver", cfg.Database.Driver).Info("Opening database")
	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		return err
	}

	filters, err := config.NewFilterStore(cfg.Notifications.FiltersFile)
	if err != nil {
		return err
	}
	notifier, err := telegram.NewService(models.TelegramConfig{
		IsEnabled: cfg.Notifications.TelegramEnabled,
		BotToken:  cfg.Notifications.TelegramToken,
		ChatID:    cfg.Notifications.TelegramChatID,
	}, filters, logger)
	if err != nil {
		return err
	}

	events := queue.NewEventQueue(cfg.Notifications.QueueSize, logger)
	notifications := processor.NewNotificationProcessor(notifier, events, cfg, logger)
	notifications.Start()
	events.Start()

	engine := workflow.NewEngine(db, logger,
		workflow.WithDefaultValidity(cfg.Offers.DefaultValidity),
		workflow.WithPublisher(events),
	)

	gin.SetMode(cfg.Server.GinMode)
	handler := api.NewHandler(engine, db, notifier, filters, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg.Server.CORSOrigins),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	drained := make(chan struct{})
	go func() {
		events.Close()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn("Notification queue did not drain in time")
	}
	notifications.Stop()
	<-drained

	logger.Info("Server stopped")
	return nil
}
