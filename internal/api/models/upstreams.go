package models

// UpstreamResponse is a persisted upstream_servers row, enriched with
// live health/latency stats from the running pool when available.
type UpstreamResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Protocol  string  `json:"protocol"`
	TimeoutMs int64   `json:"timeout_ms"`
	Enabled   bool    `json:"enabled"`
	Healthy   bool    `json:"healthy,omitempty"`
	AvgRttMs  float64 `json:"avg_rtt_ms,omitempty"`
}

// UpstreamRequest is the create/update payload for an upstream server.
type UpstreamRequest struct {
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address" binding:"required"`
	Protocol  string `json:"protocol" binding:"required"`
	TimeoutMs int64  `json:"timeout_ms"`
	Enabled   bool   `json:"enabled"`
}
