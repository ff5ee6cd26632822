// Package apilogout реализует HTTP-обработчик отзыва bearer-токена
// настольного клиента.
package apilogout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы отзыва токена.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс отзыва токена.
type Service interface {
	RevokeToken(ctx context.Context, tokenID string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход настольного клиента
// @Description Отзывает предъявленный bearer-токен.
// @Tags API
// @Produce  json
// @Success 200 {object} response.Response "Токен отозван"
// @Failure 401 {object} response.ErrorResponse "Токен невалиден или отозван"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.api.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tokenID, ok := r.Context().Value(middlewarectx.TokenID).(string)
	if !ok || tokenID == "" {
		log.Error("token id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.RevokeToken(r.Context(), tokenID); err != nil {
		log.Error("failed to revoke token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not revoke token"))
		return
	}

	log.Info("token revoked", slog.String("token_id", tokenID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
