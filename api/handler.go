package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"api_analytics/internal/analytics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// analyticsHandler holds the analytics service and the store it reads from,
// and implements the dashboard HTTP handlers.
type analyticsHandler struct {
	service          *analytics.Service
	store            analytics.Storage
	defaultFeedLimit int
	logger           *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service *analytics.Service, store analytics.Storage, defaultFeedLimit int, logger *zap.Logger) *analyticsHandler {
	return &analyticsHandler{
		service:          service,
		store:            store,
		defaultFeedLimit: defaultFeedLimit,
		logger:           logger,
	}
}

// handleGetStats handles the GET /getStats/stats endpoint.
func (h *analyticsHandler) handleGetStats(ctx *gin.Context) {
	var month time.Month
	if raw := ctx.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			h.logger.Warn("invalid month filter", zap.String("month", raw))
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "month must be an integer between 1 and 12"})
			return
		}
		month = time.Month(m)
	}

	stats, err := h.service.ComputeStats(ctx.Request.Context(), h.store, month)
	if err != nil {
		h.fail(ctx, "failed to compute stats", err, zap.Int("month", int(month)))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// handleWeekdayAnalysis handles the GET /weekdayAnalysis/weekdayAnalysis endpoint.
func (h *analyticsHandler) handleWeekdayAnalysis(ctx *gin.Context) {
	matrix, err := h.service.BuildWeekdayHourMatrix(ctx.Request.Context(), h.store)
	if err != nil {
		h.fail(ctx, "failed to build weekday analysis", err)
		return
	}

	ctx.JSON(http.StatusOK, matrix)
}

// handleActivityFeed serves the merged customer/sale activity feed.
func (h *analyticsHandler) handleActivityFeed(ctx *gin.Context) {
	limit := h.defaultFeedLimit
	if raw := ctx.Query("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("invalid activity limit", zap.String("limit", raw))
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = l
	}

	feed, err := h.service.BuildActivityFeed(ctx.Request.Context(), h.store, limit)
	if err != nil {
		h.fail(ctx, "failed to build activity feed", err, zap.Int("limit", limit))
		return
	}

	ctx.JSON(http.StatusOK, feed)
}

func (h *analyticsHandler) fail(ctx *gin.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.String("request_id", ctx.GetString(requestIDKey)))
	h.logger.Error(msg, fields...)

	if errors.Is(err, analytics.ErrStorage) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": msg + ": data store unavailable"})
		return
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
