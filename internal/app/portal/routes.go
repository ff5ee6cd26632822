package portal

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/orchestra-mcp/portal/internal/config"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/dashboard"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/pagelist"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/pageupdate"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/rolecreate"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/rolelist"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/roleremove"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/roleupdate"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/subalerts"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/sublist"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/subupdate"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/usercreate"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/userlist"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/userremove"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/usertoggle"
	"github.com/orchestra-mcp/portal/internal/http/handlers/admin/userupdate"
	"github.com/orchestra-mcp/portal/internal/http/handlers/api/apilogin"
	"github.com/orchestra-mcp/portal/internal/http/handlers/api/apilogout"
	"github.com/orchestra-mcp/portal/internal/http/handlers/api/apiuser"
	"github.com/orchestra-mcp/portal/internal/http/handlers/auth/desktoprelay"
	"github.com/orchestra-mcp/portal/internal/http/handlers/auth/login"
	"github.com/orchestra-mcp/portal/internal/http/handlers/auth/logout"
	"github.com/orchestra-mcp/portal/internal/http/handlers/auth/setpassword"
	"github.com/orchestra-mcp/portal/internal/http/handlers/auth/socialcallback"
	"github.com/orchestra-mcp/portal/internal/http/handlers/auth/socialredirect"
	memberdashboard "github.com/orchestra-mcp/portal/internal/http/handlers/member/dashboard"
	"github.com/orchestra-mcp/portal/internal/http/handlers/member/subscribe"
	"github.com/orchestra-mcp/portal/internal/http/handlers/member/subscriptionshow"
	"github.com/orchestra-mcp/portal/internal/http/handlers/notification/notificationlist"
	"github.com/orchestra-mcp/portal/internal/http/handlers/notification/notificationread"
	"github.com/orchestra-mcp/portal/internal/http/handlers/public/home"
	"github.com/orchestra-mcp/portal/internal/http/handlers/public/pageshow"
	"github.com/orchestra-mcp/portal/internal/http/handlers/webhook/sponsors"
	"github.com/orchestra-mcp/portal/internal/http/middlewarectx"
	appjwt "github.com/orchestra-mcp/portal/internal/lib/jwt"
	"github.com/orchestra-mcp/portal/internal/oauth"
	authservice "github.com/orchestra-mcp/portal/internal/services/auth"
	notificationservice "github.com/orchestra-mcp/portal/internal/services/notification"
	pageservice "github.com/orchestra-mcp/portal/internal/services/page"
	roleservice "github.com/orchestra-mcp/portal/internal/services/role"
	socialservice "github.com/orchestra-mcp/portal/internal/services/social"
	subscriptionservice "github.com/orchestra-mcp/portal/internal/services/subscription"
	userservice "github.com/orchestra-mcp/portal/internal/services/user"
	"github.com/orchestra-mcp/portal/internal/session"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// RouteDeps зависимости, необходимые для регистрации маршрутов.
type RouteDeps struct {
	Logger            *slog.Logger
	Config            *config.Config
	Storage           *repository.Storage
	Sessions          *session.Store
	Maker             appjwt.Maker
	Registry          *oauth.Registry
	Auth              *authservice.AuthService
	Social            *socialservice.SocialService
	Subscriptions     *subscriptionservice.SubscriptionService
	SubscriptionAdmin *subscriptionservice.AdminService
	Users             *userservice.UserService
	Roles             *roleservice.RoleService
	Pages             *pageservice.PageService
	Notifications     *notificationservice.NotificationService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d *RouteDeps) {
	logger := d.Logger
	cfg := d.Config

	cookie := login.CookieConfig{
		Name:   cfg.CookieName,
		TTL:    cfg.SessionTTL,
		Secure: cfg.Secure,
	}

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	loginCallback := socialcallback.New(logger, d.Registry, d.Social, d.Sessions, socialcallback.CookieConfig(cookie))
	relay := desktoprelay.New(logger, cfg.LoopbackAddress)

	// Открытые конечные точки
	r.Get("/", home.New(logger, d.Pages).ServeHTTP)
	r.Get("/page/{slug}", pageshow.New(logger, d.Pages).ServeHTTP)
	r.Post("/login", login.New(logger, d.Auth, d.Sessions, cookie).ServeHTTP)
	r.Get("/auth/{provider}", socialredirect.New(logger, d.Registry, d.Sessions).ServeHTTP)
	// Callback-и браузерного входа и настольных интеграций делят один
	// namespace и разводятся по имени провайдера.
	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, req *http.Request) {
		if oauth.IsDesktopProvider(chi.URLParam(req, "provider")) {
			relay.ServeHTTP(w, req)
			return
		}
		loginCallback.ServeHTTP(w, req)
	})
	r.Post("/webhooks/github-sponsors", sponsors.New(logger, d.Subscriptions, cfg.Webhook.Secret, cfg.Webhook.InsecureSkipVerify).ServeHTTP)

	// Группа с сессионной аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.SessionMiddleware(logger, d.Sessions, d.Storage, cfg.CookieName))
		r.Use(middlewarectx.ActiveUserMiddleware(logger, d.Sessions, cfg.CookieName))
		r.Use(middlewarectx.PasswordSetMiddleware())

		sp := setpassword.New(logger, d.Auth)
		r.Get("/set-password", sp.Show)
		r.Post("/set-password", sp.ServeHTTP)
		r.Post("/logout", logout.New(logger, d.Sessions, cfg.CookieName).ServeHTTP)
		r.Get("/subscribe", subscribe.New(logger, cfg.SponsorsURL).ServeHTTP)
		r.Get("/subscription", subscriptionshow.New(logger, d.Subscriptions).ServeHTTP)
		r.Get("/notifications", notificationlist.New(logger, d.Notifications).ServeHTTP)
		r.Post("/notifications/{id}/read", notificationread.New(logger, d.Notifications).ServeHTTP)

		// Конечные точки, доступные только с активной подпиской
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SubscriptionMiddleware(logger))
			r.Get("/dashboard", memberdashboard.New(logger, d.Storage).ServeHTTP)
		})

		// Администрирование
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.AdminMiddleware(logger))
			r.Get("/", dashboard.New(logger, d.Storage).ServeHTTP)
			r.Get("/users", userlist.New(logger, d.Users).ServeHTTP)
			r.Post("/users", usercreate.New(logger, d.Users).ServeHTTP)
			r.Put("/users/{id}", userupdate.New(logger, d.Users).ServeHTTP)
			r.Post("/users/{id}/toggle-status", usertoggle.New(logger, d.Users).ServeHTTP)
			r.Delete("/users/{id}", userremove.New(logger, d.Users).ServeHTTP)
			r.Get("/roles", rolelist.New(logger, d.Roles).ServeHTTP)
			r.Post("/roles", rolecreate.New(logger, d.Roles).ServeHTTP)
			r.Put("/roles/{id}", roleupdate.New(logger, d.Roles).ServeHTTP)
			r.Delete("/roles/{id}", roleremove.New(logger, d.Roles).ServeHTTP)
			r.Get("/subscriptions", sublist.New(logger, d.SubscriptionAdmin).ServeHTTP)
			r.Put("/subscriptions/{id}", subupdate.New(logger, d.SubscriptionAdmin).ServeHTTP)
			r.Get("/subscriptions-alerts", subalerts.New(logger, d.SubscriptionAdmin).ServeHTTP)
			r.Get("/pages", pagelist.New(logger, d.Pages).ServeHTTP)
			r.Put("/pages/{id}", pageupdate.New(logger, d.Pages).ServeHTTP)
		})
	})

	// API настольного клиента
	r.Route("/api/auth", func(r chi.Router) {
		r.With(middlewarectx.RateLimitMiddleware(logger, rate.Limit(1), 5)).
			Post("/login", apilogin.New(logger, d.Auth).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.BearerMiddleware(logger, d.Maker, d.Storage, d.Storage, appjwt.AbilityIDEAccess))
			r.Get("/user", apiuser.New(logger).ServeHTTP)
			r.Post("/logout", apilogout.New(logger, d.Auth).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
