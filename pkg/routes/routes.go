package routes

import (
	"context"
	"net/http"
	"time"

	"UniPath/internal/application"
	"UniPath/internal/auth"
	"UniPath/internal/bootstrap"
	"UniPath/internal/catalog"
	"UniPath/internal/config"
	"UniPath/internal/deadline"
	"UniPath/internal/notification"
	"UniPath/internal/profile"
	"UniPath/internal/scheduler"
	"UniPath/internal/validation"
	"UniPath/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CoreModules provides configuration, logging, the database and every
// repository.
var CoreModules = fx.Module("core",
	fx.Provide(config.Load),
	fx.Provide(bootstrap.NewLogger),
	fx.Provide(config.NewMongoDBClient),
	fx.Provide(validation.New),
	fx.Provide(auth.NewTokenIssuer),
	fx.Provide(auth.NewUserRepository),
	fx.Provide(profile.NewProfileRepository),
	fx.Provide(catalog.NewUniversityRepository),
	fx.Provide(catalog.NewScholarshipRepository),
	fx.Provide(catalog.NewResourceRepository),
	fx.Provide(application.NewApplicationRepository),
	fx.Provide(notification.NewNotificationRepository),
	fx.Provide(notification.NewDeadlineRepository),
)

var ServiceModules = fx.Module("services",
	fx.Provide(notification.NewLedgerFromRepositories),
	fx.Provide(auth.NewUserService),
	fx.Provide(profile.NewProfileService),
	fx.Provide(catalog.NewCatalogService),
	fx.Provide(application.NewStatusNotifier),
	fx.Provide(application.NewApplicationService),
	fx.Provide(deadline.NewDeadlineService),
	fx.Provide(deadline.NewSweeper),
	fx.Provide(deadline.NewCleaner),
	fx.Provide(scheduler.NewScheduler),
)

var EchoModules = fx.Module("echo",
	fx.Provide(middleware.NewCasbinEnforcer),
	fx.Provide(auth.NewAuthHandler),
	fx.Provide(notification.NewNotificationHandler),
	fx.Provide(profile.NewProfileHandler),
	fx.Provide(catalog.NewCatalogHandler),
	fx.Provide(application.NewApplicationHandler),
	fx.Provide(deadline.NewDeadlineHandler),
	fx.Provide(NewEchoServer),
	fx.Invoke(EnsureIndexesOnStart),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(deadline.RegisterJobs),
	fx.Invoke(func(s *scheduler.Scheduler, lc fx.Lifecycle) { s.StartScheduler(lc) }),
)

// Repositories collects every repository that owns indexes.
type Repositories struct {
	fx.In

	Users         *auth.UserRepository
	Profiles      *profile.ProfileRepository
	Universities  *catalog.UniversityRepository
	Scholarships  *catalog.ScholarshipRepository
	Resources     *catalog.ResourceRepository
	Applications  *application.ApplicationRepository
	Notifications *notification.NotificationRepository
}

func (r Repositories) Ensurers() []config.IndexEnsurer {
	return []config.IndexEnsurer{
		r.Users, r.Profiles, r.Universities, r.Scholarships,
		r.Resources, r.Applications, r.Notifications,
	}
}

func EnsureIndexesOnStart(lc fx.Lifecycle, repos Repositories, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return config.EnsureAll(ctx, logger, repos.Ensurers()...)
		},
	})
}

func NewEchoServer(lc fx.Lifecycle, cfg *config.Config, v *validation.Validator, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v
	e.HTTPErrorHandler = middleware.NewHTTPErrorHandler(v, logger)
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Metrics)

	addr := ":" + cfg.Server.Port
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("server listening", zap.String("addr", addr))
			go func() {
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.Fatal("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down the server")
			return e.Shutdown(ctx)
		},
	})
	return e
}

type Handlers struct {
	fx.In

	Auth          *auth.AuthHandler
	Notifications *notification.NotificationHandler
	Profile       *profile.ProfileHandler
	Catalog       *catalog.CatalogHandler
	Applications  *application.ApplicationHandler
	Deadlines     *deadline.DeadlineHandler
}

func healthz(db *config.MongoDBClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Client.Ping(ctx, nil); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

func RegisterRoutes(e *echo.Echo, h Handlers, db *config.MongoDBClient, tokens *auth.TokenIssuer, enf *casbin.Enforcer, logger *zap.Logger) {
	e.GET("/healthz", healthz(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/register", h.Auth.Register)
	e.POST("/login", h.Auth.Login)

	api := e.Group("/api", middleware.JWTMiddleware(tokens), middleware.CasbinMiddleware(enf, logger))
	api.GET("/me", h.Auth.Me)

	api.GET("/profile", h.Profile.Get)
	api.PUT("/profile", h.Profile.Update)

	n := api.Group("/notifications")
	n.GET("", h.Notifications.List)
	n.GET("/unread", h.Notifications.Unread)
	n.GET("/unread-count", h.Notifications.UnreadCount)
	n.PATCH("/mark-all-read", h.Notifications.MarkAllRead)
	n.PATCH("/mark-read", h.Notifications.MarkManyRead)
	n.PATCH("/:id/read", h.Notifications.MarkRead)
	n.DELETE("/read", h.Notifications.DeleteRead)
	n.DELETE("/:id", h.Notifications.Delete)
	n.DELETE("", h.Notifications.DeleteMany)
	n.POST("/test", h.Notifications.CreateTest)

	d := api.Group("/deadlines")
	d.GET("", h.Deadlines.List)
	d.POST("/save", h.Deadlines.Save)
	d.DELETE("/remove/:savedProgramId", h.Deadlines.Remove)
	d.GET("/notifications", h.Deadlines.Notifications)
	d.PUT("/notifications/:notificationId/read", h.Deadlines.MarkNotificationRead)
	d.GET("/preferences", h.Deadlines.GetPreferences)
	d.PUT("/preferences", h.Deadlines.UpdatePreferences)

	a := api.Group("/applications")
	a.POST("", h.Applications.Create)
	a.GET("", h.Applications.List)
	a.GET("/:id", h.Applications.Get)
	a.PUT("/:id", h.Applications.Update)
	a.DELETE("/:id", h.Applications.Withdraw)
	a.PATCH("/:id/status", h.Applications.UpdateStatus)

	api.GET("/universities", h.Catalog.ListUniversities)
	api.GET("/universities/:id", h.Catalog.GetUniversity)
	api.POST("/universities", h.Catalog.CreateUniversity)
	api.GET("/scholarships", h.Catalog.ListScholarships)
	api.POST("/scholarships", h.Catalog.CreateScholarship)
	api.GET("/resources", h.Catalog.ListResources)
	api.POST("/resources", h.Catalog.CreateResource)

	admin := api.Group("/admin")
	admin.POST("/sweep", h.Deadlines.RunSweep)
	admin.POST("/cleanup", h.Deadlines.RunCleanup)
}
