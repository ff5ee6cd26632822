// Package portal собирает HTTP-приложение портала: хранилище, сессии,
// очередь уведомлений, сервисы и маршруты.
package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/orchestra-mcp/portal/internal/config"
	appjwt "github.com/orchestra-mcp/portal/internal/lib/jwt"
	"github.com/orchestra-mcp/portal/internal/lib/rabbitmq"
	"github.com/orchestra-mcp/portal/internal/migrations"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/oauth"
	authservice "github.com/orchestra-mcp/portal/internal/services/auth"
	notificationservice "github.com/orchestra-mcp/portal/internal/services/notification"
	pageservice "github.com/orchestra-mcp/portal/internal/services/page"
	roleservice "github.com/orchestra-mcp/portal/internal/services/role"
	socialservice "github.com/orchestra-mcp/portal/internal/services/social"
	subscriptionservice "github.com/orchestra-mcp/portal/internal/services/subscription"
	userservice "github.com/orchestra-mcp/portal/internal/services/user"
	"github.com/orchestra-mcp/portal/internal/session"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// App — собранное HTTP-приложение портала.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
	amqpCh   *amqp.Channel
}

// emailPublisher адаптирует канал RabbitMQ к интерфейсу публикации
// сервиса уведомлений.
type emailPublisher struct {
	ch *amqp.Channel
}

func (p *emailPublisher) PublishEmail(msg models.EmailMessage) error {
	return rabbitmq.PublishMessage(p.ch, rabbitmq.ExchangeNotifications, rabbitmq.RoutingKeyEmail, msg)
}

// New собирает приложение из конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	sessions, err := session.New(ctx, cfg.RedisConnection, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	amqpCh, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.NotificationQueues())
	if err != nil {
		return nil, err
	}

	maker := appjwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	registry := oauth.NewRegistry(cfg.Providers)

	notifications := notificationservice.New(logger, db, &emailPublisher{ch: amqpCh})
	auth := authservice.New(logger, db, db, maker)
	social := socialservice.New(logger, db, notifications)
	subscriptions := subscriptionservice.New(logger, db, db)
	subscriptionAdmin := subscriptionservice.NewAdmin(logger, db)
	users := userservice.New(logger, db)
	roles := roleservice.New(logger, db)
	pages := pageservice.New(logger, db)

	router := chi.NewRouter()
	RegisterRoutes(router, &RouteDeps{
		Logger:            logger,
		Config:            cfg,
		Storage:           db,
		Sessions:          sessions,
		Maker:             maker,
		Registry:          registry,
		Auth:              auth,
		Social:            social,
		Subscriptions:     subscriptions,
		SubscriptionAdmin: subscriptionAdmin,
		Users:             users,
		Roles:             roles,
		Pages:             pages,
		Notifications:     notifications,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
		amqpCh:   amqpCh,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.amqpCh.Close()
		_ = a.amqpConn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
