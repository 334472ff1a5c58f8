package llmagent

// Config is the optional LLM provider configuration: an OpenAI-compatible
// base URL, API key, and model name. An empty APIKey means the agent is
// unconfigured and must not be wired into the admin API.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Configured reports whether enough is set to make requests.
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.APIKey != "" && c.Model != ""
}
