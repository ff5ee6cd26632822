// Package scheduler собирает приложение ежедневного обхода подписок.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/orchestra-mcp/portal/internal/config"
	"github.com/orchestra-mcp/portal/internal/lib/rabbitmq"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/alerts"
	notificationservice "github.com/orchestra-mcp/portal/internal/services/notification"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// App представляет приложение планировщика оповещений.
type App struct {
	alertService *alerts.AlertService
	cron         *cron.Cron
	schedule     string
	conn         *amqp.Connection
	ch           *amqp.Channel
	db           *repository.Storage
	logger       *slog.Logger
}

type emailPublisher struct {
	ch *amqp.Channel
}

func (p *emailPublisher) PublishEmail(msg models.EmailMessage) error {
	return rabbitmq.PublishMessage(p.ch, rabbitmq.ExchangeNotifications, rabbitmq.RoutingKeyEmail, msg)
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		if err := repository.CheckDatabaseReady(db); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		_ = db.DB.Close()
		return nil, err
	}

	notifications := notificationservice.New(logger, db, &emailPublisher{ch: ch})
	alertService := alerts.New(logger, db, notifications)

	return &App{
		alertService: alertService,
		cron:         cron.New(),
		schedule:     cfg.AlertSchedule,
		conn:         conn,
		ch:           ch,
		db:           db,
		logger:       logger,
	}, nil
}

// Run запускает планировщик. Первый обход выполняется сразу при старте,
// дальнейшие — по расписанию.
func (a *App) Run(ctx context.Context) error {
	sweep := func() {
		if err := a.alertService.Run(ctx); err != nil {
			a.logger.Error("subscription sweep failed", sl.Err(err))
		}
	}

	if _, err := a.cron.AddFunc(a.schedule, sweep); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	sweep()
	a.cron.Start()
	a.logger.Info("scheduler started", slog.String("schedule", a.schedule))

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")

	stopCtx := a.cron.Stop()
	<-stopCtx.Done()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}
	return nil
}
