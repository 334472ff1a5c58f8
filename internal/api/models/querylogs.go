package models

import "time"

// QueryLogResponse is a persisted query_logs row.
type QueryLogResponse struct {
	ID             int64     `json:"id"`
	ClientIP       string    `json:"client_ip"`
	QueryName      string    `json:"query_name"`
	QueryType      string    `json:"query_type"`
	ResponseCode   string    `json:"response_code"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	CacheHit       bool      `json:"cache_hit"`
	UpstreamUsed   string    `json:"upstream_used,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// QueryLogListResponse is the paginated response for GET /logs.
type QueryLogListResponse struct {
	Logs   []QueryLogResponse `json:"logs"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}
