package analysis

import (
	"context"
	"errors"
	"net/http"

	"github.com/Omarrawas/Atmetny1/internal/config"
	"github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("openai api key not configured")

// Completer is the chat-completion call the analyzer needs. *openai.Client
// implements it.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient builds an OpenAI client for cfg. BaseURL points it at any
// OpenAI-compatible endpoint.
func NewClient(cfg config.OpenAIConfig) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(oc), nil
}
