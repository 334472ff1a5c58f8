package models

// SettingsResponse reports the mutable runtime settings kept in
// system_config: disabled record types, query strategy, cache sizing,
// and log retention.
type SettingsResponse struct {
	DisabledRecordTypes []string `json:"disabled_record_types"`
	QueryStrategy       string   `json:"query_strategy"`
	CacheDefaultTTL     int      `json:"cache_default_ttl"`
	CacheMaxEntries     int      `json:"cache_max_entries"`
	LogRetentionDays    int      `json:"log_retention_days"`
	LogAutoCleanup      bool     `json:"log_auto_cleanup_enabled"`
}

// SettingsRequest is the partial-update payload for PUT /settings.
// Fields absent from the body (nil) are left unchanged; a field that is
// present is written even when it holds a zero value or an empty list.
type SettingsRequest struct {
	DisabledRecordTypes *[]string `json:"disabled_record_types,omitempty"`
	QueryStrategy       *string   `json:"query_strategy,omitempty"`
	CacheDefaultTTL     *int      `json:"cache_default_ttl,omitempty"`
	CacheMaxEntries     *int      `json:"cache_max_entries,omitempty"`
	LogRetentionDays    *int      `json:"log_retention_days,omitempty"`
	LogAutoCleanup      *bool     `json:"log_auto_cleanup_enabled,omitempty"`
}

// CacheStatsResponse reports the resolver's answer cache occupancy.
type CacheStatsResponse struct {
	Entries int `json:"entries"`
	MaxSize int `json:"max_size"`
}
