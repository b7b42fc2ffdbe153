package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
)

// Pinger 可探活的依赖，*sql.DB 即满足
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthCheckHandler struct {
	db Pinger
}

func NewHealthCheckHandler(db Pinger) *HealthCheckHandler {
	return &HealthCheckHandler{db: db}
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components []ComponentStatus `json:"components,omitempty"`
}

// 启用关键组件标签判断
type ComponentStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	IsCore  bool          `json:"is_core"`
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

var startupTime = time.Now()

// AdvancedHealthCheck 增强的健康检查接口
func (h *HealthCheckHandler) AdvancedHealthCheck(ctx context.Context, c *app.RequestContext) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(startupTime).Round(time.Second).String(),
	}
	if h.db != nil {
		status.Components = append(status.Components, checkDatabase(ctx, h.db))
	}

	if hasCriticalErrors(status.Components) {
		status.Status = "degraded"
		c.JSON(503, status)
		return
	}

	c.JSON(200, status)
}

func checkDatabase(ctx context.Context, db Pinger) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	comp := ComponentStatus{Name: "database", Status: "ok", IsCore: true}
	if err := db.PingContext(ctx); err != nil {
		comp.Status = "down"
		comp.Error = err.Error()
	}
	comp.Latency = time.Since(start)
	return comp
}

func hasCriticalErrors(components []ComponentStatus) bool {
	for _, comp := range components {
		// 核心组件状态异常或任意组件发生严重错误
		if (comp.IsCore && comp.Status != "ok") || comp.Status == "critical" {
			return true
		}
	}
	return false
}
