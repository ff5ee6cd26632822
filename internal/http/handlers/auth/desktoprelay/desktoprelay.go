// Package desktoprelay реализует HTTP-обработчик передачи кода авторизации
// настольному клиенту.
//
// Портал здесь не потребитель идентичности: код провайдера передается
// локальному процессу на фиксированном loopback-порту через страницу с
// best-effort запросом. Обмена токенами и записи в хранилище нет, успех
// отображается оптимистично.
package desktoprelay

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/oauth"
)

var relayPage = template.Must(template.New("relay").Parse(`<!DOCTYPE html>
<html>
<head><title>Connecting...</title></head>
<body>
{{if .Success}}
<p id="message">Finishing up, you can return to the app.</p>
<script>
fetch({{.RelayURL}}, {mode: "no-cors"})
  .catch(function () {})
  .finally(function () {
    document.getElementById("message").textContent =
      "Done. You can close this window.";
  });
</script>
{{else}}
<p id="message">Authorization failed: {{.Error}}. You can close this window and try again.</p>
{{end}}
</body>
</html>
`))

// Handler обрабатывает возврат от провайдера настольной интеграции.
type Handler struct {
	log             *slog.Logger
	loopbackAddress string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, loopbackAddress string) *Handler {
	return &Handler{
		log:             log,
		loopbackAddress: loopbackAddress,
	}
}

// ServeHTTP godoc
// @Summary Передача кода авторизации настольному клиенту
// @Description Отдает страницу, передающую код провайдера локальному процессу. Каждый провайдер слушает собственный путь локального API.
// @Tags Auth
// @Param provider path string true "Имя провайдера интеграции" Enums(notion, google-calendar)
// @Param code query string false "Код авторизации"
// @Param error query string false "Ошибка провайдера"
// @Success 200 "Страница передачи"
// @Router /auth/{provider}/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.desktoprelay"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	providerName := chi.URLParam(r, "provider")
	code := r.URL.Query().Get("code")
	provErr := r.URL.Query().Get("error")

	data := map[string]any{"Success": false}
	switch {
	case provErr != "":
		if desc := r.URL.Query().Get("error_description"); desc != "" {
			provErr = desc
		}
		data["Error"] = provErr
	case code == "":
		data["Error"] = "no authorization code received"
	default:
		query := url.Values{}
		query.Set("code", code)
		data["Success"] = true
		data["RelayURL"] = h.loopbackAddress + oauth.DesktopCallbackPath(providerName) + "?" + query.Encode()
	}

	log.Info("relaying authorization result",
		slog.String("provider", providerName),
		slog.Bool("has_code", code != ""))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := relayPage.Execute(w, data); err != nil {
		log.Error("failed to render relay page", sl.Err(err))
	}
}
