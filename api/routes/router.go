package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eduport/eduport-backend/api/controllers"
	"github.com/eduport/eduport-backend/api/middleware"
	"github.com/eduport/eduport-backend/internal/auth"
	"github.com/eduport/eduport-backend/internal/catalog"
	"github.com/eduport/eduport-backend/internal/notifications"
	"github.com/eduport/eduport-backend/internal/purchases"
	"github.com/eduport/eduport-backend/internal/users"
	"github.com/eduport/eduport-backend/pkg/auth/session"
	"github.com/eduport/eduport-backend/pkg/config"
	"github.com/eduport/eduport-backend/pkg/db"
	"github.com/eduport/eduport-backend/pkg/enums"
	"github.com/eduport/eduport-backend/pkg/logger"
	"github.com/eduport/eduport-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	AuthService    auth.Service
	Catalog        catalog.Service
	Purchases      purchases.Service
	Notifications  notifications.Service
	UsersRepo      *users.Repository
	Metrics        *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/courses", controllers.CourseList(p.Catalog, logg))
			r.Get("/courses/{courseId}", controllers.CourseGet(p.Catalog, logg))
			r.Get("/plans", controllers.PlanList(p.Catalog, logg))
			r.Get("/plans/{planId}", controllers.PlanGet(p.Catalog, logg))
		})
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.Me(p.UsersRepo, logg))
			r.Put("/device-token", controllers.UpdateDeviceToken(p.UsersRepo, logg))
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", controllers.CourseList(p.Catalog, logg))
			r.Get("/{courseId}", controllers.CourseGet(p.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(enums.UserRoleTeacher), string(enums.UserRoleAdmin)))
				r.Post("/", controllers.CourseCreate(p.Catalog, logg))
				r.Patch("/{courseId}", controllers.CourseUpdate(p.Catalog, logg))
			})
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", controllers.PlanList(p.Catalog, logg))
			r.Get("/{planId}", controllers.PlanGet(p.Catalog, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.With(middleware.RequireAnyRole(logg,
				string(enums.UserRoleTeacher),
				string(enums.UserRoleAdmin),
			)).Get("/stats", controllers.PurchaseStats(p.Purchases, logg))

			r.Route("/{kind}", func(r chi.Router) {
				r.With(middleware.RequireRole(string(enums.UserRoleCustomer), logg)).
					Post("/", controllers.PurchaseSubmit(p.Purchases, logg))
				r.Get("/mine", controllers.PurchaseListMine(p.Purchases, logg))
				r.Get("/pending", controllers.PurchaseListMyPending(p.Purchases, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAnyRole(logg,
						string(enums.UserRoleTeacher),
						string(enums.UserRoleAdmin),
					))
					r.Get("/approvals", controllers.PurchaseListApprovals(p.Purchases, logg))
					r.Post("/{purchaseId}/approve", controllers.PurchaseApprove(p.Purchases, logg))
					r.Post("/{purchaseId}/reject", controllers.PurchaseReject(p.Purchases, logg))
				})
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Get("/ping", controllers.AdminPing())
		r.Route("/plans", func(r chi.Router) {
			r.Post("/", controllers.PlanCreate(p.Catalog, logg))
			r.Patch("/{planId}", controllers.PlanUpdate(p.Catalog, logg))
		})
	})

	return r
}
