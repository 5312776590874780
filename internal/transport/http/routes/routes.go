package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/taskboard-auth/internal/infra/config"
	appLogger "github.com/arklim/taskboard-auth/internal/infra/logger"
	"github.com/arklim/taskboard-auth/internal/transport/http/handlers"
	"github.com/arklim/taskboard-auth/internal/transport/http/middleware"
	"github.com/arklim/taskboard-auth/internal/usecase"
)

const defaultRateLimitWindow = 15 * time.Minute

// CredentialAPI is the credential service as seen by the HTTP layer.
type CredentialAPI interface {
	handlers.Registrar
	handlers.Authenticator
	handlers.PasswordRecovery
	handlers.ProfileService
	middleware.SessionVerifier
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Credentials CredentialAPI
	RateLimiter *middleware.RateLimiter
	HTTPMetrics *middleware.HTTPMetrics
	// Metrics serves /metrics; promhttp.Handler() when nil.
	Metrics  http.Handler
	Database handlers.DatabaseChecker
	Cache    handlers.CacheChecker
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = &config.AppConfig{}
	}
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.HTTPMetrics.Handler())
	r.Use(middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: deps.Config.CORSOrigins(),
		HostSuffixes:   deps.Config.CORS.OriginSuffixes,
	}))

	healthHandler := handlers.NewHealthHandler(handlers.HealthOptions{
		Database:    deps.Database,
		Cache:       deps.Cache,
		Environment: deps.Config.App.Env,
		Version:     deps.Config.App.Version,
		Logger:      deps.Logger,
	})
	r.GET("/health", healthHandler.Status)

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	if deps.Credentials != nil {
		limits := deps.Config.RateLimit

		registrationHandler := handlers.NewRegistrationHandler(deps.Credentials)
		r.POST("/register", chain(rateLimit(deps, "register_ip", limits.RegisterMaxAttempts), registrationHandler.Register)...)

		authHandler := handlers.NewAuthHandler(deps.Credentials)
		r.POST("/login", chain(rateLimit(deps, "login_ip", limits.LoginMaxAttempts), authHandler.Login)...)

		passwordHandler := handlers.NewPasswordHandler(deps.Credentials)
		r.POST("/forgot-password", chain(rateLimit(deps, "forgot_password_ip", limits.ForgotPasswordMaxAttempts), passwordHandler.ForgotPassword)...)
		r.POST("/reset-password/:token", chain(rateLimit(deps, "reset_password_ip", limits.ResetPasswordMaxAttempts), passwordHandler.ResetPassword)...)

		profileHandler := handlers.NewProfileHandler(deps.Credentials)
		userGroup := r.Group("/api/user")
		userGroup.Use(middleware.RequireAuth(deps.Credentials))
		userGroup.GET("/profile", profileHandler.Get)
		userGroup.PUT("/profile", profileHandler.Update)
	}

	handlers.RegisterSwagger(r)

	return r
}

// rateLimit returns the per-IP limiter for one endpoint, or nil when limiting is off for it.
func rateLimit(deps Dependencies, name string, limit int) gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = defaultRateLimitWindow
	}

	return deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	})
}

func chain(limiter gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{limiter, handler}
}

// recovery turns panics into a logged 500 with the usual error body.
func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		appLogger.Scoped(c.Request.Context(), log).Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("route", c.FullPath()),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			handlers.NewErrorResponse(c, usecase.MsgInternalServerError))
	})
}
