package factory

import (
	"fmt"

	"littlesteps-be/pkg/llm"
	"littlesteps-be/pkg/llm/ollama"
	"littlesteps-be/pkg/llm/openai"
)

type Config struct {
	Provider          string
	Model             string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OllamaBaseURL     string
	RequestsPerSecond float64
}

// NewLLMProvider builds the configured backend behind the outbound rate
// limiter.
func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	var provider llm.LLMProvider
	switch cfg.Provider {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		provider = openai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model)
	case "ollama":
		provider = ollama.NewOllamaProvider(cfg.OllamaBaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	return llm.NewRateLimited(provider, cfg.RequestsPerSecond), nil
}
