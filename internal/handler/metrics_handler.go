package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/diet-tracker/internal/middleware"
	"github.com/diet-tracker/internal/service"
	"github.com/diet-tracker/pkg/keygen"
	"github.com/diet-tracker/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait    = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

// MetricsHandler handles metrics API requests
type MetricsHandler struct {
	metricsService *service.MetricsService
	upgrader       websocket.Upgrader
}

// NewMetricsHandler creates a new MetricsHandler. checkOrigin gates
// websocket upgrades.
func NewMetricsHandler(metricsService *service.MetricsService, checkOrigin func(*http.Request) bool) *MetricsHandler {
	return &MetricsHandler{
		metricsService: metricsService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// GetMetrics returns the session's counters
// GET /metrics
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	snapshot, err := h.metricsService.GetMetrics(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		writeServiceError(c, err, "failed to get metrics")
		return
	}

	response.Success(c, snapshot)
}

// Stream pushes the current counters, then every update, over a websocket
// GET /metrics/stream
func (h *MetricsHandler) Stream(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe before reading so no update falls between the two
	updates, unsubscribe, err := h.metricsService.Subscribe(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrFeedUnavailable) {
			response.Error(c, http.StatusServiceUnavailable, -1005, "metrics stream unavailable")
			return
		}
		writeServiceError(c, err, "failed to subscribe to metrics")
		return
	}
	defer unsubscribe()

	current, err := h.metricsService.GetMetrics(ctx, sessionID)
	if err != nil {
		writeServiceError(c, err, "failed to get metrics")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.LogError("metrics stream upgrade failed session=%s: %v", keygen.Mask(sessionID), err)
		return
	}
	defer conn.Close()

	// Client messages are ignored; a read error means the peer went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(current); err != nil {
		return
	}

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// RegisterRoutes registers metrics routes
func (h *MetricsHandler) RegisterRoutes(rg *gin.RouterGroup, sessionMiddleware gin.HandlerFunc) {
	metrics := rg.Group("/metrics", sessionMiddleware)
	{
		metrics.GET("", h.GetMetrics)
		metrics.GET("/stream", h.Stream)
	}
}
