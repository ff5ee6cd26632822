// Package subscribe реализует HTTP-обработчик страницы оформления подписки.
//
// Оплата идет через GitHub Sponsors, поэтому страница отдает ссылку на
// спонсорский профиль и текущие пороги тарифов. Сюда же перенаправляет
// middleware подписки.
package subscribe

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/models"
)

// Handler обрабатывает запросы страницы оформления подписки.
type Handler struct {
	log         *slog.Logger
	sponsorsURL string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, sponsorsURL string) *Handler {
	return &Handler{
		log:         log,
		sponsorsURL: sponsorsURL,
	}
}

// ServeHTTP godoc
// @Summary Страница оформления подписки
// @Description Возвращает ссылку на спонсорский профиль и пороги тарифов.
// @Tags Member
// @Produce  json
// @Success 200 {object} map[string]any "Данные страницы"
// @Success 302 {string} string "Перенаправление в кабинет при активной подписке"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /subscribe [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	// Спонсорам и администраторам оформлять нечего
	if user.IsAdmin() || user.HasActiveSubscription() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sponsors_url": h.sponsorsURL,
		"plans": []map[string]any{
			{"plan": models.PlanSponsor, "min_cents": models.SponsorMinCents},
			{"plan": models.PlanTeamSponsor, "min_cents": models.TeamSponsorMinCents},
		},
	}))
}
