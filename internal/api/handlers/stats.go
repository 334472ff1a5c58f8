package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Server statistics
// @Description Returns process uptime, host CPU/memory usage, cached query counters, and live upstream health.
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Security BearerAuth
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := models.MemoryStats{}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vmStat.Total) / 1024 / 1024
		memStats.FreeMB = float64(vmStat.Available) / 1024 / 1024
		memStats.UsedMB = float64(vmStat.Used) / 1024 / 1024
		memStats.UsedPercent = vmStat.UsedPercent
	}

	cpuStats := models.CPUStats{NumCPU: runtime.NumCPU()}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		cpuStats.UsedPercent = cpuPercent[0]
		cpuStats.IdlePercent = 100.0 - cpuPercent[0]
	}

	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		CPU:           cpuStats,
		Memory:        memStats,
		Upstreams:     h.upstreamStats(),
	}

	if h.Stats != nil {
		snap := h.Stats.Stats(time.Now())
		resp.TotalQueries = snap.TotalQueries
		resp.CacheHits = snap.CacheHits
		resp.QueriesToday = snap.QueriesToday
	}
	if h.Resolver != nil && h.Resolver.Cache != nil {
		cacheStats := h.Resolver.Cache.Stats()
		resp.Cache = models.CacheStatsResponse{Entries: cacheStats.Entries}
	}

	c.JSON(http.StatusOK, resp)
}
