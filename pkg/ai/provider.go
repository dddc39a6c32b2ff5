package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// UnavailableCompleter fails every call. It stands in when no backend credentials are configured,
// which makes the service run in degraded mode instead of refusing to start.
type UnavailableCompleter struct {
	Reason string
}

// Complete always reports ErrBackendUnavailable.
func (u UnavailableCompleter) Complete(context.Context, CompletionRequest) (string, error) {
	if u.Reason == "" {
		return "", ErrBackendUnavailable
	}
	return "", fmt.Errorf("%w: %s", ErrBackendUnavailable, u.Reason)
}

// NewCompleter selects a backend implementation for the given provider name.
func NewCompleter(provider string, cfg OpenAIConfig, logger zerolog.Logger) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai":
		if cfg.APIKey == "" {
			logger.Warn().Msg("openai api key not configured, completions will run in degraded mode")
			return UnavailableCompleter{Reason: "openai api key not configured"}, nil
		}
		cfg.Logger = logger
		return NewOpenAICompleter(cfg)
	case "none", "offline":
		return UnavailableCompleter{Reason: "completions disabled"}, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", provider)
	}
}
