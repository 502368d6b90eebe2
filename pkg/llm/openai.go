package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/devanand8x/honeypot-api/pkg/httputil"
)

// Default base URLs for the OpenAI-compatible providers the honeypot
// supports out of the box. Gemini is the default primary, as the persona
// was tuned on it.
const (
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OllamaBaseURL = "http://localhost:11434/v1"
)

// OpenAIBackend talks to any OpenAI-compatible chat completion endpoint.
type OpenAIBackend struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAIBackend creates a backend for an OpenAI-compatible provider.
// An empty baseURL means api.openai.com.
func NewOpenAIBackend(name, apiKey, model, baseURL string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	// Pooled client with a hard timeout; a hung provider must not outlive
	// the orchestrator's per-call budget by much.
	config.HTTPClient = httputil.SlowClient()
	return &OpenAIBackend{
		name:   name,
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (b *OpenAIBackend) Name() string { return b.name }

// Complete implements Backend.
func (b *OpenAIBackend) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	temperature := float32(0.8)
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    msgs,
		MaxTokens:   replyMaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", WrapBackendError(b.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", WrapBackendError(b.name, fmt.Errorf("empty completion response"))
	}
	return resp.Choices[0].Message.Content, nil
}
