package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appLogger "github.com/arklim/taskboard-auth/internal/infra/logger"
)

const (
	healthOK       = "OK"
	healthDegraded = "ERROR"

	dependencyConnected = "Connected"
	dependencyError     = "Error"
	dependencyDisabled  = "Disabled"

	defaultHealthTimeout = 2 * time.Second
)

// DatabaseChecker pings the credential store.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker reports the health of the rate limit cache.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthOptions configures the health handler. A nil Cache is reported as disabled.
type HealthOptions struct {
	Database    DatabaseChecker
	Cache       CacheChecker
	Environment string
	Version     string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// HealthHandler reports dependency status.
type HealthHandler struct {
	opts HealthOptions
	now  func() time.Time
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(opts HealthOptions) *HealthHandler {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultHealthTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &HealthHandler{opts: opts, now: time.Now}
}

// Status godoc
// @Summary Service health check
// @Description Reports store and cache connectivity. Answers 503 when the credential store is unreachable.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.Timeout)
	defer cancel()
	log := appLogger.Scoped(ctx, h.opts.Logger)

	resp := HealthResponse{
		Status:      healthOK,
		Database:    dependencyError,
		Cache:       dependencyDisabled,
		Timestamp:   h.now().UTC(),
		Environment: h.opts.Environment,
		Version:     h.opts.Version,
	}
	status := http.StatusOK

	if h.opts.Database != nil {
		if err := h.opts.Database.Ping(ctx); err != nil {
			log.Warn("database health check failed", zap.Error(err))
		} else {
			resp.Database = dependencyConnected
		}
	}
	if resp.Database != dependencyConnected {
		resp.Status = healthDegraded
		status = http.StatusServiceUnavailable
	}

	// The cache only backs rate limiting, so losing it does not fail the check.
	if h.opts.Cache != nil {
		resp.Cache = dependencyConnected
		if err := h.opts.Cache.HealthCheck(ctx); err != nil {
			log.Warn("cache health check failed", zap.Error(err))
			resp.Cache = dependencyError
		}
	}

	c.JSON(status, resp)
}
