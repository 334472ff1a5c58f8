package llmagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// maxConversationMessages bounds the tool-calling loop so a model that
// keeps requesting tools can't run forever.
const maxConversationMessages = 50

// Agent drives a single chat conversation, executing any tool calls
// the model requests against Registry and feeding the results back.
type Agent struct {
	Client   *Client
	Registry *Registry
}

// New builds an Agent. cfg must be Configured(); callers should not
// wire an Agent into the admin API otherwise.
func New(cfg Config, st Store, c Cache) *Agent {
	return &Agent{
		Client:   NewClient(cfg),
		Registry: NewRegistry(st, c),
	}
}

// Chat appends userMessage to messages, resolves any tool calls the
// model makes, and returns the assistant's final text reply.
func (a *Agent) Chat(ctx context.Context, messages []ChatMessage, userMessage string) (string, []ChatMessage, error) {
	messages = append(messages, ChatMessage{Role: RoleUser, Content: userMessage})
	tools := a.Registry.ToolDefinitions()

	for {
		resp, err := a.Client.Chat(ctx, messages, tools)
		if err != nil {
			return "", messages, err
		}
		if len(resp.Choices) == 0 {
			return "", messages, errors.New("llmagent: no choices in response")
		}

		assistant := resp.Choices[0].Message
		messages = append(messages, assistant)

		if len(assistant.ToolCalls) == 0 {
			return assistant.Content, messages, nil
		}

		for _, call := range assistant.ToolCalls {
			result := a.Registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
			resultJSON, err := json.Marshal(result)
			if err != nil {
				return "", messages, fmt.Errorf("llmagent: encode tool result: %w", err)
			}
			messages = append(messages, ChatMessage{
				Role:       RoleTool,
				Content:    string(resultJSON),
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}

		if len(messages) > maxConversationMessages {
			return "", messages, errors.New("llmagent: too many messages in conversation, possible infinite loop")
		}
	}
}
