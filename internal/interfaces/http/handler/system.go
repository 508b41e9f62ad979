package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmstock/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Service identity reported by the info endpoint.
const (
	serviceName    = "PharmStock API"
	serviceVersion = "1.0.0"
)

// StorePinger reports whether the backing store is reachable.
type StorePinger interface {
	Ping() error
}

// SystemHandler serves the operational endpoints: service info, liveness
// ping, and the store-probing health check.
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	store     StorePinger
}

// NewSystemHandler creates a SystemHandler that probes store on health
// checks. Uptime is measured from this call.
func NewSystemHandler(store StorePinger) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		store:     store,
	}
}

// RegisterRoutes mounts the system routes.
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	system.GET("/info", h.GetSystemInfo)
	system.GET("/ping", h.Ping)
}

// SystemInfoResponse describes the running service.
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// PingResponse answers a liveness ping.
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse reports overall service health. Unlike the API endpoints it
// is not wrapped in the response envelope, so probes can read it directly.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Store  string `json:"store"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns the service identity, Go runtime version, and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      serviceName,
		Version:   serviceVersion,
		GoVersion: runtime.Version(),
		Uptime:    h.uptime(),
	})
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping
// @Description  Confirms the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Probes the backing store and reports 200 or 503 accordingly. Served outside the versioned API group and not wrapped in the response envelope
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	now := time.Now().Format(time.RFC3339)

	if err := h.store.Ping(); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Time:   now,
			Store:  "error",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   now,
		Store:  "ok",
	})
}

func (h *SystemHandler) uptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}
