package llm

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/devanand8x/honeypot-api/pkg/httputil"
)

// AnthropicBackend talks to the Anthropic Messages API.
type AnthropicBackend struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicBackend creates an Anthropic-backed completion backend.
func NewAnthropicBackend(apiKey, model string) *AnthropicBackend {
	return &AnthropicBackend{
		client: anthropic.NewClient(apiKey, anthropic.WithHTTPClient(httputil.SlowClient())),
		model:  model,
	}
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

// Complete implements Backend.
func (b *AnthropicBackend) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	msgs := make([]anthropic.Message, 0, len(messages))
	for _, m := range messages {
		role := anthropic.RoleUser
		if m.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		msgs = append(msgs, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
		})
	}

	temperature := float32(0.8)
	resp, err := b.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(b.model),
		Messages:    msgs,
		MaxTokens:   replyMaxTokens,
		Temperature: &temperature,
		MultiSystem: []anthropic.MessageSystemPart{{Type: "text", Text: system}},
	})
	if err != nil {
		return "", WrapBackendError("anthropic", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text += *block.Text
		}
	}
	if text == "" {
		return "", WrapBackendError("anthropic", fmt.Errorf("empty completion response"))
	}
	return text, nil
}
