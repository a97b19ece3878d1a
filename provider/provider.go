package provider

import (
	"context"
	"errors"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/models"
	openai_provider "github.com/scoutdig/scout/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Gemini    Client = "gemini"
	Anthropic Client = "anthropic"
)

const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Complete(ctx context.Context, req models.CompletionRequest) (models.Completion, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("LLM API key not set")
	}
	switch client {
	case OpenAI:
		return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	case Gemini:
		// Gemini speaks the chat-completions wire format on its compatibility endpoint.
		base := cfg.BaseURL
		if base == "" {
			base = geminiOpenAIBaseURL
		}
		return openai_provider.NewClient(cfg.APIKey, base, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
