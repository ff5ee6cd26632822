// Package sublist реализует HTTP-обработчик списка подписок в админке
// с фильтром по статусу.
package sublist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
)

// Handler обрабатывает запросы списка подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс выборки подписок.
type Service interface {
	List(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список подписок
// @Description Возвращает страницу подписок с необязательным фильтром по статусу.
// @Tags Admin
// @Produce  json
// @Param status query string false "Статус" Enums(active, expired, cancelled, past_due)
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Подписки"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.sublist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := r.URL.Query().Get("status")

	subs, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscriptions": subscriptionItems(subs),
	}))
}

func subscriptionItems(subs []*models.Subscription) []map[string]any {
	items := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		items = append(items, map[string]any{
			"id":                sub.ID,
			"user_uid":          sub.UserUID,
			"plan":              sub.Plan,
			"status":            sub.Status,
			"is_active":         sub.IsActive(),
			"start_date":        sub.StartDate,
			"end_date":          sub.EndDate,
			"github_sponsor_id": sub.GithubSponsorID,
			"amount_cents":      sub.AmountCents,
			"last_payment_at":   sub.LastPaymentAt,
			"alert_sent_at":     sub.AlertSentAt,
		})
	}
	return items
}
