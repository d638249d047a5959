package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sensor-alert-service/internal/auth"
	"sensor-alert-service/internal/config"
	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
	"sensor-alert-service/internal/services"
)

// Service is the application layer the handlers call into.
type Service interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	GetConfig(ctx context.Context) (*models.ThresholdConfig, error)
	UpdateConfig(ctx context.Context, tempMax, humidityMax float64) (*models.ThresholdConfig, error)
	ConfigHistory(ctx context.Context, limit int) ([]models.ThresholdConfig, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) (models.Page[models.Alert], error)
	AcknowledgeAlert(ctx context.Context, id int64) (*models.Alert, error)
}

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Subscribers accepts live dashboard connections.
type Subscribers interface {
	Serve(conn *websocket.Conn) error
}

func NewRouter(svc Service, tokens TokenParser, hub Subscribers, logger *logging.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))
	r.Use(CORSMiddleware(cfg.API.CORSOrigins))

	h := NewHandler(svc, hub, logger, cfg.API.CORSOrigins)
	requireAuth := AuthMiddleware(tokens, false)

	api := r.Group(cfg.API.BasePath)
	{
		api.POST("/auth/login", h.Login)

		// Threshold config
		api.GET("/config", requireAuth, h.GetConfig)
		api.PUT("/config", requireAuth, h.UpdateConfig)
		api.GET("/config/history", requireAuth, h.ConfigHistory)

		// Alerts
		api.GET("/alerts", requireAuth, h.ListAlerts)
		api.POST("/alerts/:id/ack", requireAuth, h.AcknowledgeAlert)
	}

	r.GET("/hubs/alerts", AuthMiddleware(tokens, true), h.AlertsHub)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
