// Package subscriptionshow реализует HTTP-обработчик страницы подписки участника.
package subscriptionshow

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
)

// Handler обрабатывает запросы страницы подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения подписки пользователя.
type Service interface {
	CurrentForUser(ctx context.Context, userUID string) (*models.Subscription, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подписка участника
// @Description Возвращает текущую подписку пользователя со всеми полями.
// @Tags Member
// @Produce  json
// @Success 200 {object} map[string]any "Подписка или null"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscription [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.subscriptionshow"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	sub, err := h.service.CurrentForUser(r.Context(), user.UID)
	if err != nil {
		log.Error("failed to load subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	if sub == nil {
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"subscription": nil}))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": map[string]any{
			"plan":            sub.Plan,
			"status":          sub.Status,
			"is_active":       sub.IsActive(),
			"start_date":      sub.StartDate,
			"end_date":        sub.EndDate,
			"amount_cents":    sub.AmountCents,
			"last_payment_at": sub.LastPaymentAt,
		},
	}))
}
