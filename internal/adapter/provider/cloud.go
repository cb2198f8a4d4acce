package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"krakengpt/config"
	"krakengpt/internal/port"
)

// Cloud is the hosted deployment provider. The model name in the request
// selects the deployment; authentication uses an api-key header.
type Cloud struct {
	endpoint   string
	apiKey     string
	apiVersion string
	client     *http.Client
}

func NewCloud(cfg config.CloudConfig, client *http.Client) *Cloud {
	return &Cloud{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		client:     client,
	}
}

func (c *Cloud) Name() string {
	return "cloud"
}

// Available requires both an endpoint and a credential.
func (c *Cloud) Available() bool {
	return c.endpoint != "" && c.apiKey != ""
}

func (c *Cloud) url(deployment string) string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, url.PathEscape(deployment), url.QueryEscape(c.apiVersion))
}

func (c *Cloud) headers() map[string]string {
	return map[string]string{"api-key": c.apiKey}
}

func (c *Cloud) Complete(ctx context.Context, req port.CompletionRequest) (*port.Completion, error) {
	// The deployment comes from the URL; the payload carries no model field.
	deployment := req.Model
	req.Model = ""
	return complete(ctx, c.client, c.Name(), c.url(deployment), c.headers(), req)
}

func (c *Cloud) Stream(ctx context.Context, req port.CompletionRequest) (io.ReadCloser, error) {
	deployment := req.Model
	req.Model = ""
	return stream(ctx, c.client, c.Name(), c.url(deployment), c.headers(), req)
}
