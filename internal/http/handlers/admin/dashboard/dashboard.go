// Package dashboard реализует HTTP-обработчик сводки админки.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
)

// Handler обрабатывает запросы сводки.
type Handler struct {
	log     *slog.Logger
	counter Counter
}

// Counter описывает интерфейс подсчета пользователей и подписок.
type Counter interface {
	CountUsersByStatus(ctx context.Context, status string) (int, error)
	CountSubscriptionsByStatus(ctx context.Context, status string) (int, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, counter Counter) *Handler {
	return &Handler{
		log:     log,
		counter: counter,
	}
}

// ServeHTTP godoc
// @Summary Сводка админки
// @Description Возвращает количество пользователей и подписок по статусам.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Счетчики"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	counts := map[string]int{}
	for label, query := range map[string]func(context.Context) (int, error){
		"users_active": func(ctx context.Context) (int, error) {
			return h.counter.CountUsersByStatus(ctx, models.UserStatusActive)
		},
		"users_blocked": func(ctx context.Context) (int, error) {
			return h.counter.CountUsersByStatus(ctx, models.UserStatusBlocked)
		},
		"subscriptions_active": func(ctx context.Context) (int, error) {
			return h.counter.CountSubscriptionsByStatus(ctx, models.SubscriptionActive)
		},
		"subscriptions_past_due": func(ctx context.Context) (int, error) {
			return h.counter.CountSubscriptionsByStatus(ctx, models.SubscriptionPastDue)
		},
		"subscriptions_expired": func(ctx context.Context) (int, error) {
			return h.counter.CountSubscriptionsByStatus(ctx, models.SubscriptionExpired)
		},
	} {
		n, err := query(r.Context())
		if err != nil {
			log.Error("failed to count", sl.Err(err), slog.String("metric", label))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal server error"))
			return
		}
		counts[label] = n
	}

	render.JSON(w, r, response.StatusOKWithData(counts))
}
