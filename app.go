package main

import (
	"context"
	"errors"
	"fmt"

	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/handlers"
	"orderdesk/internal/repositories"
	"orderdesk/internal/server"
	"orderdesk/internal/services"
	"orderdesk/internal/telemetry"
	"orderdesk/pkg/kafka"
	"orderdesk/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// App is the wired order server.
type App struct {
	Fiber *fiber.App

	cfg     *config.Config
	log     *zap.Logger
	closers []func() error
}

// NewApp wires storage, the event publisher, services and the HTTP layer
// from cfg. Close releases whatever was opened, also after a failed NewApp.
func NewApp(cfg *config.Config, log *zap.Logger) (app *App, err error) {
	app = &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	repo, ping, err := app.openStorage()
	if err != nil {
		return app, err
	}

	publisher, err := app.openPublisher()
	if err != nil {
		return app, err
	}

	metrics := telemetry.NewMetrics()
	app.Fiber = server.New(server.Options{
		Service:   services.NewOrderService(repo, publisher, metrics, log),
		Tokens:    services.NewTokenService(cfg.AuthSecret, cfg.TokenTTL),
		Metrics:   metrics,
		DBPing:    ping,
		Logger:    log,
		AccessLog: true,
	})
	return app, nil
}

func (a *App) openStorage() (repositories.OrderRepository, handlers.Pinger, error) {
	if a.cfg.DatabaseDriver == database.DriverMemory {
		a.log.Warn("using in-memory storage; orders are lost on restart")
		return repositories.NewMemoryOrderRepository(), nil, nil
	}

	db, err := database.Open(a.cfg.DatabaseDriver, a.cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, func() error { return database.Close(db) })
	a.log.Info("database connected", zap.String("driver", a.cfg.DatabaseDriver))

	ping := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return repositories.NewGORMOrderRepository(db), ping, nil
}

// openPublisher returns nil when events are disabled.
func (a *App) openPublisher() (services.EventPublisher, error) {
	switch a.cfg.EventsBroker {
	case "amqp":
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: a.cfg.RabbitMQURL}, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return client, nil
	case "kafka":
		producer := kafka.NewProducer(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
		a.closers = append(a.closers, producer.Close)
		a.log.Info("kafka producer ready", zap.Strings("brokers", a.cfg.KafkaBrokers), zap.String("topic", a.cfg.KafkaTopic))
		return producer, nil
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown events broker %q", a.cfg.EventsBroker)
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() {
		a.log.Info("starting server", zap.String("addr", a.cfg.AppPort))
		listenErr <- a.Fiber.Listen(a.cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	if err := a.Fiber.Shutdown(); err != nil {
		a.log.Error("error during fiber shutdown", zap.Error(err))
	}
	a.log.Info("server gracefully stopped")
	return nil
}

// Close releases storage and broker connections in reverse open order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
