package llm

import (
	"fmt"
)

// NewBackend builds a Backend for a named provider. Everything except
// "anthropic" speaks the OpenAI wire format at some base URL, so the
// provider name mostly selects a default endpoint and model.
func NewBackend(provider, apiKey, model, baseURL string) (Backend, error) {
	switch provider {
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini backend requires an api key")
		}
		if model == "" {
			model = "gemini-1.5-flash"
		}
		if baseURL == "" {
			baseURL = GeminiBaseURL
		}
		return NewOpenAIBackend("gemini", apiKey, model, baseURL), nil

	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai backend requires an api key")
		}
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIBackend("openai", apiKey, model, baseURL), nil

	case "groq":
		if apiKey == "" {
			return nil, fmt.Errorf("groq backend requires an api key")
		}
		if model == "" {
			model = "llama-3.1-70b-versatile"
		}
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		return NewOpenAIBackend("groq", apiKey, model, baseURL), nil

	case "ollama":
		// Local models accept any key.
		if apiKey == "" {
			apiKey = "ollama"
		}
		if model == "" {
			model = "llama3.1"
		}
		if baseURL == "" {
			baseURL = OllamaBaseURL
		}
		return NewOpenAIBackend("ollama", apiKey, model, baseURL), nil

	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic backend requires an api key")
		}
		if model == "" {
			model = "claude-3-5-haiku-20241022"
		}
		return NewAnthropicBackend(apiKey, model), nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown provider %q (supported: gemini, openai, groq, ollama, anthropic)", provider)
	}
}
