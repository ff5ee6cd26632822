// Package oauth содержит реестр OAuth-провайдеров для входа через внешние сервисы.
//
// Провайдеры входа (github, google, discord) выполняют обмен кода на токен и
// запрос профиля. Настольные интеграции (notion, google-calendar) сюда не входят:
// для них портал — только relay, без обмена токенами.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"golang.org/x/oauth2"

	"github.com/orchestra-mcp/portal/internal/config"
)

// Классификация ошибок провайдера: от неё зависит сообщение пользователю.
var (
	// ErrRateLimited — провайдер ограничил частоту запросов.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrProvider — любая другая ошибка ответа провайдера.
	ErrProvider = errors.New("provider error")
)

// Имена поддерживаемых провайдеров входа.
var loginProviders = []string{"github", "google", "discord"}

// Пути локального API настольного клиента, принимающие код авторизации
// от провайдеров интеграций.
var desktopCallbackPaths = map[string]string{
	"notion":          "/api/notion/auth/callback",
	"google-calendar": "/api/google-calendar/auth/callback",
}

// IsLoginProvider сообщает, используется ли провайдер для входа на сайт.
func IsLoginProvider(name string) bool {
	return slices.Contains(loginProviders, name)
}

// IsDesktopProvider сообщает, относится ли провайдер к интеграциям настольного клиента.
func IsDesktopProvider(name string) bool {
	_, ok := desktopCallbackPaths[name]
	return ok
}

// DesktopCallbackPath возвращает путь локального API настольного клиента
// для провайдера интеграции, пустую строку для неизвестного провайдера.
func DesktopCallbackPath(name string) string {
	return desktopCallbackPaths[name]
}

// Identity — профиль пользователя, полученный от провайдера.
type Identity struct {
	ID        string // Идентификатор у провайдера, всегда непустой
	Name      string
	Nickname  string
	Email     string
	AvatarURL string
}

// DisplayName возвращает имя для создаваемого пользователя:
// имя, затем никнейм, затем "User".
func (i *Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Nickname != "" {
		return i.Nickname
	}
	return "User"
}

// Provider описывает один провайдер входа.
type Provider interface {
	// Name возвращает имя провайдера.
	Name() string
	// AuthCodeURL возвращает URL перенаправления на страницу согласия.
	AuthCodeURL(state string) string
	// FetchIdentity обменивает код на токен и запрашивает профиль пользователя.
	FetchIdentity(ctx context.Context, code string) (*Identity, error)
}

// Registry хранит настроенные провайдеры входа по имени.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry собирает реестр из конфигурации. Провайдеры без учётных
// данных не регистрируются.
func NewRegistry(cfgs map[string]config.OAuthProvider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for name, cfg := range cfgs {
		if !IsLoginProvider(name) || cfg.ClientID == "" {
			continue
		}
		r.providers[name] = newProvider(name, cfg)
	}
	return r
}

// Get возвращает провайдер по имени.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

type httpProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	parse       func([]byte) (*Identity, error)
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *httpProvider) FetchIdentity(ctx context.Context, code string) (*Identity, error) {
	const op = "oauth.FetchIdentity"

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%s: %w: status %d", op, classify(retrieveErr.Response.StatusCode), retrieveErr.Response.StatusCode)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := p.config.Client(ctx, token)
	client.Timeout = 10 * time.Second
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: status %d", op, classify(resp.StatusCode), resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	identity, err := p.parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("%s: %w: empty identity id", op, ErrProvider)
	}
	return identity, nil
}

func classify(status int) error {
	if status == http.StatusForbidden || status == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return ErrProvider
}

func decode(body []byte, v any) error {
	return json.Unmarshal(body, v)
}
