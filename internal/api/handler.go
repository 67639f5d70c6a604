package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"BarSentinel/internal/collector"
	"BarSentinel/internal/model"
	"BarSentinel/internal/series"
)

type barsResponse struct {
	Instrument  model.Instrument  `json:"instrument"`
	Granularity model.Granularity `json:"granularity"`
	Bars        []model.Bar       `json:"bars"` // newest first
}

type indicatorResponse struct {
	Instrument  model.Instrument  `json:"instrument"`
	Granularity model.Granularity `json:"granularity"`
	Name        string            `json:"name"`
	Periods     int               `json:"periods,omitempty"`
	Values      []float64         `json:"values"` // newest first
}

// GetBars handles GET /bars requests
func (h *APIHandler) GetBars(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	req, err := h.validator.ValidateBarsRequest(c.Query("symbol"), c.Query("granularity"), c.Query("limit"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	bars, err := h.service.Bars(ctx, req.Symbol, req.Granularity, req.Limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	out := make([]model.Bar, 0, bars.Len())
	for i := 0; i < bars.Len(); i++ {
		b, _ := bars.Get(i)
		out = append(out, b)
	}
	c.JSON(http.StatusOK, barsResponse{
		Instrument:  bars.Instrument(),
		Granularity: bars.Granularity(),
		Bars:        out,
	})
}

// GetIndicators handles GET /indicators requests
func (h *APIHandler) GetIndicators(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	req, err := h.validator.ValidateIndicatorRequest(
		c.Query("symbol"), c.Query("granularity"), c.Query("name"), c.Query("periods"), c.Query("limit"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	bars, err := h.service.Bars(ctx, req.Symbol, req.Granularity, req.Limit+warmup(req.Name, req.Periods))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	values, err := indicators[req.Name].compute(bars, req.Periods)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	out := values.Values()
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	c.JSON(http.StatusOK, indicatorResponse{
		Instrument:  bars.Instrument(),
		Granularity: bars.Granularity(),
		Name:        req.Name,
		Periods:     req.Periods,
		Values:      out,
	})
}

// GetSnapshot handles GET /snapshot requests
func (h *APIHandler) GetSnapshot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	req, err := h.validator.ValidateBarsRequest(c.Query("symbol"), c.Query("granularity"), "")
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	snap, err := h.service.Snapshot(ctx, req.Symbol, req.Granularity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// HealthCheck handles GET /health requests
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   ServiceVersion,
	})
}

// handleServiceError maps domain errors to status codes.
func (h *APIHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, collector.ErrSymbolNotFound):
		h.handleError(c, err, http.StatusNotFound, "Symbol not found")
	case errors.Is(err, series.ErrInvalidInput):
		h.handleError(c, err, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.handleError(c, err, http.StatusGatewayTimeout, "Request timed out")
	default:
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
	}
}

// handleError logs the error and sends appropriate HTTP response
func (h *APIHandler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	requestIDStr := c.GetString(RequestIDContextKey)
	if requestIDStr == "" {
		requestIDStr = "unknown"
	}

	h.logger.Error("API error",
		slog.String("request_id", requestIDStr),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
	)

	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": requestIDStr,
	})
}

// handleValidationError handles validation errors specifically
func (h *APIHandler) handleValidationError(c *gin.Context, err error) {
	h.handleError(c, err, http.StatusBadRequest, err.Error())
}
