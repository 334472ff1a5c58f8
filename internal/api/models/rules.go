package models

// RuleResponse is a persisted rewrite_rules row.
type RuleResponse struct {
	ID          int64  `json:"id"`
	Pattern     string `json:"pattern"`
	MatchType   string `json:"match_type"`
	ActionType  string `json:"action_type"`
	ActionValue string `json:"action_value"`
	Priority    int32  `json:"priority"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// RuleRequest is the create/update payload for a rewrite rule.
type RuleRequest struct {
	Pattern     string `json:"pattern" binding:"required"`
	MatchType   string `json:"match_type" binding:"required"`
	ActionType  string `json:"action_type" binding:"required"`
	ActionValue string `json:"action_value"`
	Priority    int32  `json:"priority"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}
