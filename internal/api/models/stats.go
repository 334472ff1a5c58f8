package models

import "time"

// CPUStats contains system CPU statistics.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats contains system memory statistics.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// UpstreamStatsResponse reports one upstream server's live health, as
// tracked by the in-memory pool.
type UpstreamStatsResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Healthy     bool    `json:"healthy"`
	Successes   uint64  `json:"successes"`
	Failures    uint64  `json:"failures"`
	AvgRttMs    float64 `json:"avg_rtt_ms"`
	SuccessRate float64 `json:"success_rate"`
}

// ServerStatsResponse contains server runtime statistics, blending
// system metrics (gopsutil) with the atomic query counters cached in
// internal/statscache and live upstream health from internal/upstream.
type ServerStatsResponse struct {
	Uptime        string                  `json:"uptime"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	StartTime     time.Time               `json:"start_time"`
	CPU           CPUStats                `json:"cpu"`
	Memory        MemoryStats             `json:"memory"`
	TotalQueries  int64                   `json:"total_queries"`
	CacheHits     int64                   `json:"cache_hits"`
	QueriesToday  int64                   `json:"queries_today"`
	Cache         CacheStatsResponse      `json:"cache"`
	Upstreams     []UpstreamStatsResponse `json:"upstreams"`
}
