package ai

import (
	"context"
	"errors"
)

// Chat roles understood by the completion backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrBackendUnavailable marks any failure of the model backend: network, quota, timeout or an unusable reply.
var ErrBackendUnavailable = errors.New("completion backend unavailable")

// Message is a single role-tagged chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest bundles everything the backend needs for one generation call.
type CompletionRequest struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Completer generates a single text completion. Implementations are stateless across calls;
// callers supply the full history every time.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
