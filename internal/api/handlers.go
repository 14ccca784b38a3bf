// Package api serves the dashboard-facing HTTP surface: current status,
// alert history, user settings, and the WebSocket upgrade. It presents state
// owned elsewhere and never participates in alerting decisions.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/envsense/airwatch/internal/alertlog"
	"github.com/envsense/airwatch/internal/models"
	"github.com/envsense/airwatch/internal/services"
	"github.com/envsense/airwatch/internal/settings"
)

const maxAlertListLimit = 500

// StatusProvider exposes the live feed snapshot.
type StatusProvider interface {
	Status() services.StatusSnapshot
}

// WebsocketUpgrader upgrades dashboard connections onto the push hub.
type WebsocketUpgrader interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// Handler wires the HTTP layer to the monitor's services.
type Handler struct {
	feed          StatusProvider
	alertStore    alertlog.Store
	settingsStore settings.Store
	hub           WebsocketUpgrader
	logger        zerolog.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(feed StatusProvider, alertStore alertlog.Store, settingsStore settings.Store,
	hub WebsocketUpgrader, logger zerolog.Logger) *Handler {

	return &Handler{
		feed:          feed,
		alertStore:    alertStore,
		settingsStore: settingsStore,
		hub:           hub,
		logger:        logger,
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", h.healthz)

	api := router.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		api.GET("/alerts", h.getAlerts)
		api.GET("/settings", h.getSettings)
		api.PUT("/settings", h.putSettings)
	}

	if h.hub != nil {
		router.GET("/ws", h.wsConnect)
	}

	return router
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.feed.Status())
}

func (h *Handler) getAlerts(c *gin.Context) {
	limit := 50
	if qs := c.Query("limit"); qs != "" {
		parsed, err := strconv.Atoi(qs)
		if err != nil || parsed <= 0 || parsed > maxAlertListLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit'; use 1-500"})
			return
		}
		limit = parsed
	}

	records, err := h.alertStore.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list alert log records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(records), "alerts": records})
}

func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settingsStore.Document())
}

func (h *Handler) putSettings(c *gin.Context) {
	var doc models.SettingsDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings document"})
		return
	}

	if err := h.settingsStore.Save(doc); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}

	// Changes take effect on the next evaluation cycle, not retroactively.
	c.JSON(http.StatusOK, h.settingsStore.Document())
}

func (h *Handler) wsConnect(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request); err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
	}
}
