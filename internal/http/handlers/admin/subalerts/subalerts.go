// Package subalerts реализует HTTP-обработчик админской страницы оповещений:
// подписки, истекающие в ближайшую неделю, и просроченные платежи.
package subalerts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
	subscriptionservice "github.com/orchestra-mcp/portal/internal/services/subscription"
)

// Handler обрабатывает запросы страницы оповещений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс сборки данных страницы оповещений.
type Service interface {
	Alerts(ctx context.Context) (*subscriptionservice.AlertsView, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Оповещения по подпискам
// @Description Возвращает подписки, истекающие в ближайшую неделю, и подписки с просроченным платежом.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Данные оповещений"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/subscriptions-alerts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subalerts"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	view, err := h.service.Alerts(r.Context())
	if err != nil {
		log.Error("failed to build alerts view", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"expiring_soon": items(view.ExpiringSoon),
		"past_due":      items(view.PastDue),
	}))
}

func items(subs []*models.Subscription) []map[string]any {
	result := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		result = append(result, map[string]any{
			"id":            sub.ID,
			"user_uid":      sub.UserUID,
			"plan":          sub.Plan,
			"status":        sub.Status,
			"end_date":      sub.EndDate,
			"alert_sent_at": sub.AlertSentAt,
		})
	}
	return result
}
