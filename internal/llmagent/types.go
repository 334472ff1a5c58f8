// Package llmagent is an optional admin agent that translates
// natural-language requests into calls against the same repository
// facade the REST handlers use. It is never required for DNS
// resolution; when unconfigured it is simply not wired up.
//
// Grounded on the OpenAI-compatible chat completion protocol used by
// most hosted and self-hosted model providers.
package llmagent

import "encoding/json"

// Role is a chat message's author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is one turn of the conversation sent to or received from
// the model.
type ChatMessage struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the function and carries its arguments as a raw
// JSON-encoded string, exactly as the model returns them.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionDefinition describes a callable function to the model.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolDefinition wraps a FunctionDefinition in the "tools" shape the
// chat completion API expects.
type ToolDefinition struct {
	Type     string              `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// ChatCompletionRequest is the outgoing request body.
type ChatCompletionRequest struct {
	Model       string           `json:"model"`
	Messages    []ChatMessage    `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature float32          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Stream      bool             `json:"stream"`
}

// ChatCompletionResponse is the provider's response body.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one candidate completion.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// Usage reports token accounting for the request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FunctionResult is what a registered function hands back to the
// model after execution.
type FunctionResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ResultOK wraps a successful function result, marshaling data to JSON.
func ResultOK(data any) FunctionResult {
	raw, err := json.Marshal(data)
	if err != nil {
		return FunctionResult{Success: false, Error: err.Error()}
	}
	return FunctionResult{Success: true, Data: raw}
}

// ResultErr wraps a failed function result.
func ResultErr(msg string) FunctionResult {
	return FunctionResult{Success: false, Error: msg}
}
