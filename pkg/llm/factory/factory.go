package factory

import (
	"fmt"
	"time"

	"pharmacy-assistant-be/pkg/llm"
	"pharmacy-assistant-be/pkg/llm/huggingface"
	"pharmacy-assistant-be/pkg/llm/ollama"
)

// Settings selects and configures an LLM backend.
type Settings struct {
	Provider string // "ollama", "huggingface", "none" or ""
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// NewLLMProvider returns nil, nil when no provider is configured; callers
// treat a nil provider as "AI features unavailable".
func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "", "none":
		return nil, nil
	case "ollama":
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, s.Model, s.Timeout), nil
	case "huggingface":
		if s.APIKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(s.APIKey, "", s.Model, s.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
