package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sensor-alert-service/internal/auth"
	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
)

// maxThreshold bounds both limits accepted over the API.
const maxThreshold = 100.0

type Handler struct {
	svc      Service
	hub      Subscribers
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

func NewHandler(svc Service, hub Subscribers, logger *logging.Logger, origins []string) *Handler {
	return &Handler{
		svc:    svc,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type configResponse struct {
	ID          int64     `json:"id"`
	TempMax     float64   `json:"tempMax"`
	HumidityMax float64   `json:"humidityMax"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type updateConfigRequest struct {
	TempMax     *float64 `json:"tempMax"`
	HumidityMax *float64 `json:"humidityMax"`
}

func toConfigResponse(cfg *models.ThresholdConfig) configResponse {
	return configResponse{
		ID:          cfg.ID,
		TempMax:     cfg.TempMax,
		HumidityMax: cfg.HumidityMax,
		UpdatedAt:   cfg.UpdatedAt,
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid request body for login: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		h.writeError(c, err, "Failed to log in")
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: res.Token, Username: res.Username, ExpiresAt: res.ExpiresAt})
}

func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.svc.GetConfig(c.Request.Context())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No threshold config found"})
			return
		}
		h.writeError(c, err, "Failed to get config")
		return
	}
	c.JSON(http.StatusOK, toConfigResponse(cfg))
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid request body for config: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if msg := validateUpdateConfig(req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	cfg, err := h.svc.UpdateConfig(c.Request.Context(), *req.TempMax, *req.HumidityMax)
	if err != nil {
		h.writeError(c, err, "Failed to update config")
		return
	}
	c.JSON(http.StatusOK, toConfigResponse(cfg))
}

func validateUpdateConfig(req updateConfigRequest) string {
	switch {
	case req.TempMax == nil:
		return "tempMax is required"
	case req.HumidityMax == nil:
		return "humidityMax is required"
	case !(*req.TempMax > 0 && *req.TempMax <= maxThreshold):
		return "tempMax must be greater than 0 and at most 100"
	case !(*req.HumidityMax > 0 && *req.HumidityMax <= maxThreshold):
		return "humidityMax must be greater than 0 and at most 100"
	}
	return ""
}

func (h *Handler) ConfigHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	versions, err := h.svc.ConfigHistory(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err, "Failed to get config history")
		return
	}
	c.JSON(http.StatusOK, versions)
}

func (h *Handler) ListAlerts(c *gin.Context) {
	filter, err := parseAlertFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.svc.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err, "Failed to list alerts")
		return
	}
	h.logger.Debugf("Retrieved %d of %d alerts", len(page.Data), page.TotalCount)
	c.JSON(http.StatusOK, page)
}

// parseAlertFilter reads status, from, to, pageNumber and pageSize. Unknown
// status values mean no status filter.
func parseAlertFilter(c *gin.Context) (models.AlertFilter, error) {
	filter := models.AlertFilter{PageNumber: 1, PageSize: models.DefaultPageSize}

	if status, ok := models.ParseAlertStatus(c.Query("status")); ok {
		filter.Status = &status
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("%s must be an RFC3339 timestamp", p.name)
		}
		*p.dst = &t
	}
	for _, p := range []struct {
		name string
		dst  *int
		max  int
	}{{"pageNumber", &filter.PageNumber, models.MaxPageNumber}, {"pageSize", &filter.PageSize, math.MaxInt32}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("%s must be an integer", p.name)
		}
		if n > p.max {
			return filter, fmt.Errorf("%s must be at most %d", p.name, p.max)
		}
		*p.dst = n
	}
	return filter.Normalize(), nil
}

func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Errorf("Invalid alert id %s: %v", idStr, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert id"})
		return
	}

	alert, err := h.svc.AcknowledgeAlert(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		case errors.Is(err, models.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Alert is already acknowledged"})
		default:
			h.writeError(c, err, "Failed to acknowledge alert")
		}
		return
	}
	c.JSON(http.StatusOK, alert)
}

// AlertsHub upgrades to a websocket and holds it until the client leaves.
func (h *Handler) AlertsHub(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warnf("Websocket upgrade failed: %v", err)
		return
	}

	user := subscriberLabel(claimsFrom(c))
	h.logger.Infof("Dashboard subscriber %s connected", user)
	if err := h.hub.Serve(conn); err != nil {
		h.logger.Warnf("Dashboard subscriber %s rejected: %v", user, err)
		return
	}
	h.logger.Infof("Dashboard subscriber %s disconnected", user)
}

func subscriberLabel(claims *auth.Claims) string {
	if claims == nil {
		return "unknown"
	}
	if id, err := claims.UserID(); err == nil {
		return fmt.Sprintf("%s (#%d)", claims.Username, id)
	}
	return claims.Username
}

// writeError maps domain errors to status codes. Anything unrecognised is a 500
// with a generic message.
func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
