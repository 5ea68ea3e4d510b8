package handlers

import (
	"context"
	"runtime"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"gorm.io/gorm"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version   string
	startTime time.Time
	db        *gorm.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
	}
}

// WithDB sets the database connection checked by the health endpoint.
func (h *HealthHandler) WithDB(db *gorm.DB) *HealthHandler {
	h.db = db
	return h
}

// Register registers the health routes with the API.
func (h *HealthHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns service health, uptime and host load",
		Tags:        []string{"System"},
	}, h.Health)
}

// HealthInput is the input for the health check endpoint.
type HealthInput struct{}

// HealthOutput is the output for the health check endpoint.
type HealthOutput struct {
	Body struct {
		Status        string  `json:"status"`
		Version       string  `json:"version"`
		UptimeSeconds int64   `json:"uptime_seconds"`
		Database      string  `json:"database"`
		Goroutines    int     `json:"goroutines"`
		MemoryPercent float64 `json:"memory_percent,omitempty"`
		Load1         float64 `json:"load1,omitempty"`
	}
}

// Health reports service health. The status degrades when the database
// is unreachable; host metrics are best-effort.
func (h *HealthHandler) Health(ctx context.Context, input *HealthInput) (*HealthOutput, error) {
	resp := &HealthOutput{}
	resp.Body.Status = "ok"
	resp.Body.Version = h.version
	resp.Body.UptimeSeconds = int64(time.Since(h.startTime).Seconds())
	resp.Body.Goroutines = runtime.NumGoroutine()

	resp.Body.Database = "ok"
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			resp.Body.Database = "unreachable"
			resp.Body.Status = "degraded"
		}
	} else {
		resp.Body.Database = "not configured"
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp.Body.MemoryPercent = vm.UsedPercent
	}
	if avg, err := load.Avg(); err == nil {
		resp.Body.Load1 = avg.Load1
	}

	return resp, nil
}
