package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openshelf/openshelf-backend/api/controllers"
	"github.com/openshelf/openshelf-backend/api/middleware"
	"github.com/openshelf/openshelf-backend/internal/auth"
	booksvc "github.com/openshelf/openshelf-backend/internal/books"
	"github.com/openshelf/openshelf-backend/internal/users"
	"github.com/openshelf/openshelf-backend/pkg/auth/session"
	"github.com/openshelf/openshelf-backend/pkg/config"
	"github.com/openshelf/openshelf-backend/pkg/enums"
	"github.com/openshelf/openshelf-backend/pkg/logger"
	"github.com/openshelf/openshelf-backend/pkg/metrics"
)

// Pinger is the readiness surface a backing dependency must expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimitStore is the counter surface the auth throttles require.
type RateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	Database        Pinger
	Cache           Pinger
	RateLimitStore  RateLimitStore
	Sessions        session.AccessSessionChecker
	AuthService     *auth.Service
	RegisterService *auth.RegisterService
	Directory       *users.Directory
	BookService     *booksvc.Service
	Registry        *prometheus.Registry
	HTTPMetrics     *metrics.HTTPMetrics
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(params.HTTPMetrics),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.Database, params.Cache, logg))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, params.RateLimitStore, logg)).
			Post("/register", controllers.AuthRegister(params.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, params.RateLimitStore, logg)).
			Post("/login", controllers.AuthLogin(params.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, params.RateLimitStore, logg)).
			Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))
			r.Get("/current", controllers.AuthCurrent(params.Directory, logg))
			r.Patch("/profile", controllers.AuthUpdateProfile(params.Directory, logg))
			r.Post("/logout", controllers.AuthLogout(params.AuthService, logg))
		})
	})

	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", controllers.ListBooks(params.BookService, logg))
		r.Get("/search", controllers.SearchBooks(params.BookService, logg))
		r.Get("/{bookId}", controllers.GetBook(params.BookService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))
			r.Post("/create", controllers.CreateBook(params.BookService, logg))
			r.Put("/{bookId}", controllers.UpdateBook(params.BookService, logg))
			r.Delete("/{bookId}", controllers.DeleteBook(params.BookService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Post("/books/backfill-creator-names", controllers.BackfillCreatorNames(params.BookService, logg))
	})

	return r
}
