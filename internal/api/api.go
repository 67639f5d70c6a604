// Package api serves stored bars and indicators over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"BarSentinel/internal/model"
	"BarSentinel/internal/series"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultLimit        = 200
	MaxLimit            = 5000
	ServiceVersion      = "1.0.0"
	ServiceName         = "bar-sentinel"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// BarService loads bar series and snapshots. An unspecified granularity
// means the stored base granularity.
type BarService interface {
	Bars(ctx context.Context, name string, g model.Granularity, limit int) (*series.Bars, error)
	Snapshot(ctx context.Context, name string, g model.Granularity) (*model.Snapshot, error)
}

// APIHandler handles HTTP requests using Gin framework
type APIHandler struct {
	service   BarService
	validator *Validator
	logger    *slog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(service BarService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		service:   service,
		validator: GetValidator(),
		logger:    logger,
	}
}

// NewServer returns an HTTP server for the routes on port.
func (h *APIHandler) NewServer(port int) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(h.logger))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/bars", h.GetBars)
	router.GET("/indicators", h.GetIndicators)
	router.GET("/snapshot", h.GetSnapshot)
	router.GET("/health", h.HealthCheck)

	return router
}
