package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"krakengpt/internal/domain"
	"krakengpt/internal/port"
)

// ErrNoProvider is the fatal configuration error raised when no provider in
// the fallback chain is available. It is never retried.
var ErrNoProvider = errors.New("no provider configured")

// ErrUnknownProvider is raised when the caller names a provider that does
// not exist.
var ErrUnknownProvider = errors.New("unsupported provider")

// HTTPError is a non-2xx response from an upstream provider.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// upstreamResponse is the subset of the chat-completion response needed to
// extract the assistant message. The raw body is always relayed verbatim.
type upstreamResponse struct {
	Choices []struct {
		Message domain.Message `json:"message"`
	} `json:"choices"`
}

func postJSON(ctx context.Context, client *http.Client, name, url string, headers map[string]string, body port.CompletionRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s connection error: %w", name, err)
	}
	return resp, nil
}

// complete performs a whole (non-streaming) completion against url and
// extracts the single assistant message from the response.
func complete(ctx context.Context, client *http.Client, name, url string, headers map[string]string, req port.CompletionRequest) (*port.Completion, error) {
	req.Stream = false

	resp, err := postJSON(ctx, client, name, url, headers, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read error: %w", name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Provider: name, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed upstreamResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%s returned malformed response: %w", name, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", name)
	}

	return &port.Completion{
		Raw:     json.RawMessage(raw),
		Message: parsed.Choices[0].Message,
	}, nil
}

// stream dispatches a streaming completion and hands back the raw SSE body.
// A non-2xx status is consumed and returned as *HTTPError so no bytes reach
// the caller.
func stream(ctx context.Context, client *http.Client, name, url string, headers map[string]string, req port.CompletionRequest) (io.ReadCloser, error) {
	req.Stream = true

	resp, err := postJSON(ctx, client, name, url, headers, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{Provider: name, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp.Body, nil
}
