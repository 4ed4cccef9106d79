package handler

import (
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Version is the API version reported by /system/info
var Version = "1.0.0"

// Pinger checks a backing dependency
type Pinger interface {
	Ping() error
}

// PoolStatter reports connection pool usage. *persistence.Database implements it.
type PoolStatter interface {
	Stats() (sql.DBStats, error)
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	db        Pinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. db may be nil, in which case
// health reports the database as skipped.
func NewSystemHandler(name string, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string    `json:"name" example:"ledgerline"`
	Version   string    `json:"version" example:"1.0.0"`
	GoVersion string    `json:"go_version" example:"go1.25.5"`
	Uptime    string    `json:"uptime" example:"1h30m45s"`
	Pool      *PoolInfo `json:"db_pool,omitempty"`
}

// PoolInfo is the database pool section of /system/info
type PoolInfo struct {
	Open      int   `json:"open" example:"4"`
	InUse     int   `json:"in_use" example:"1"`
	Idle      int   `json:"idle" example:"3"`
	WaitCount int64 `json:"wait_count" example:"0"`
}

// HealthResponse reports liveness of the service and its database
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Time     string `json:"time" example:"2026-01-23T12:00:00Z"`
	Database string `json:"database" example:"ok"`
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Time: time.Now().Format(time.RFC3339), Database: "ok"}
	if h.db == nil {
		resp.Database = "skipped"
		c.JSON(http.StatusOK, resp)
		return
	}
	if err := h.db.Ping(); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if ps, ok := h.db.(PoolStatter); ok {
		if st, err := ps.Stats(); err == nil {
			info.Pool = &PoolInfo{Open: st.OpenConnections, InUse: st.InUse, Idle: st.Idle, WaitCount: st.WaitCount}
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}

