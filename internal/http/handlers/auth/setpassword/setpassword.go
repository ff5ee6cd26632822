// Package setpassword реализует HTTP-обработчик установки пароля для
// пользователей, созданных через вход у внешнего провайдера.
package setpassword

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
)

// Handler обрабатывает HTTP-запросы установки пароля.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики установки пароля.
type Service interface {
	SetPassword(ctx context.Context, userUID, password string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Show godoc
// @Summary Статус установки пароля
// @Description Сообщает, установлен ли пароль у текущего пользователя.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Статус пароля"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /set-password [get]
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"password_set": user.PasswordSet,
	}))
}

// ServeHTTP godoc
// @Summary Установка пароля
// @Description Устанавливает пароль текущему пользователю. Пароль и подтверждение должны совпадать.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.SetPasswordRequest true "Пароль и подтверждение"
// @Success 200 {object} response.Response "Пароль установлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /set-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.setpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.SetPassword(r.Context(), user.UID, req.Password); err != nil {
		log.Error("failed to set password", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set password"))
		return
	}

	log.Info("password set", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
