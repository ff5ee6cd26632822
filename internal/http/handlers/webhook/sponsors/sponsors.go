// Package sponsors реализует HTTP-обработчик вебхука GitHub Sponsors.
//
// Подпись X-Hub-Signature-256 проверяется HMAC-SHA256 по сырому телу запроса
// со сравнением постоянного времени. Запрос без валидной подписи отклоняется
// до любой обработки. Режим без проверки включается только явным флагом
// конфигурации и предназначен для локальной разработки.
package sponsors

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/orchestra-mcp/portal/internal/http/response"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/services/subscription"
)

// SignatureHeader — заголовок подписи GitHub.
const SignatureHeader = "X-Hub-Signature-256"

// Service описывает интерфейс применения события спонсорства.
type Service interface {
	HandleSponsorshipEvent(ctx context.Context, action, sponsorID string, amountCents int) error
}

// Handler обрабатывает вебхук GitHub Sponsors.
type Handler struct {
	log                *slog.Logger
	service            Service
	secret             string
	insecureSkipVerify bool
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secret string, insecureSkipVerify bool) *Handler {
	return &Handler{
		log:                log,
		service:            service,
		secret:             secret,
		insecureSkipVerify: insecureSkipVerify,
	}
}

// Payload — тело события GitHub Sponsors.
type Payload struct {
	Action      string `json:"action"`
	Sponsorship struct {
		Sponsor struct {
			ID json.Number `json:"id"`
		} `json:"sponsor"`
		Tier struct {
			MonthlyPriceInCents int `json:"monthly_price_in_cents"`
		} `json:"tier"`
	} `json:"sponsorship"`
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	const prefix = "sha256="
	if len(signature) <= len(prefix) || signature[:len(prefix)] != prefix {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := prefix + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ServeHTTP godoc
// @Summary Вебхук GitHub Sponsors
// @Description Применяет событие жизненного цикла спонсорства к подписке пользователя.
// @Tags Webhooks
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Событие применено или проигнорировано"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 403 {object} response.ErrorResponse "Подпись отсутствует или не совпадает"
// @Failure 404 {object} response.ErrorResponse "Спонсор не сопоставлен с пользователем"
// @Failure 500 {object} response.ErrorResponse "Ошибка применения события"
// @Router /webhooks/github-sponsors [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.sponsors"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()

	if !h.insecureSkipVerify {
		signature := r.Header.Get(SignatureHeader)
		if signature == "" || !h.verifySignature(body, signature) {
			log.Error("invalid or missing webhook signature")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	sponsorID := payload.Sponsorship.Sponsor.ID.String()
	if sponsorID == "" {
		log.Error("webhook payload has no sponsor id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing sponsor id"))
		return
	}

	err = h.service.HandleSponsorshipEvent(r.Context(), payload.Action, sponsorID,
		payload.Sponsorship.Tier.MonthlyPriceInCents)
	if err != nil {
		if errors.Is(err, subscription.ErrUnknownSponsor) {
			log.Info("sponsor not linked to any user", slog.String("sponsor_id", sponsorID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("unknown sponsor"))
			return
		}
		log.Error("failed to process sponsorship event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process event"))
		return
	}

	log.Info("webhook processed",
		slog.String("action", payload.Action),
		slog.String("sponsor_id", sponsorID),
		slog.Int("amount_cents", payload.Sponsorship.Tier.MonthlyPriceInCents))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
