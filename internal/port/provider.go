package port

import (
	"context"
	"encoding/json"
	"io"

	"krakengpt/internal/domain"
)

// CompletionRequest is the payload forwarded to a generation provider.
type CompletionRequest struct {
	Model       string           `json:"model,omitempty"`
	Messages    []domain.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
	Stream      bool             `json:"stream"`
}

// Completion is a whole (non-streamed) provider response. Raw carries the
// upstream body verbatim so it can be relayed unmodified; Message is the
// single assistant message extracted from it.
type Completion struct {
	Raw     json.RawMessage
	Message domain.Message
}

// Provider is an upstream text-generation service.
type Provider interface {
	// Name identifies the provider in routing and error messages.
	Name() string

	// Available reports whether the provider is configured well enough to
	// attempt a request. It performs no network I/O.
	Available() bool

	// Complete performs a non-streaming chat completion.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Stream dispatches a streaming chat completion and returns the raw SSE
	// body. A non-2xx upstream status is returned as an error before any
	// bytes are relayed.
	Stream(ctx context.Context, req CompletionRequest) (io.ReadCloser, error)
}
