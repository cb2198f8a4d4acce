package provider

import (
	"context"
	"io"
	"net/http"

	"krakengpt/config"
	"krakengpt/internal/port"
)

// Local is a self-hosted OpenAI-compatible endpoint. No credential.
type Local struct {
	endpoint string
	client   *http.Client
}

func NewLocal(cfg config.LocalConfig, client *http.Client) *Local {
	return &Local{
		endpoint: cfg.Endpoint,
		client:   client,
	}
}

func (l *Local) Name() string {
	return "local"
}

func (l *Local) Available() bool {
	return l.endpoint != ""
}

func (l *Local) Complete(ctx context.Context, req port.CompletionRequest) (*port.Completion, error) {
	return complete(ctx, l.client, l.Name(), l.endpoint+"/v1/chat/completions", nil, req)
}

func (l *Local) Stream(ctx context.Context, req port.CompletionRequest) (io.ReadCloser, error) {
	return stream(ctx, l.client, l.Name(), l.endpoint+"/v1/chat/completions", nil, req)
}
