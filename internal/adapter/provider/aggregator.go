package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"krakengpt/config"
	"krakengpt/internal/port"
)

// DefaultAggregatorModels is the static model catalog used when the dynamic
// fetch is unavailable.
var DefaultAggregatorModels = []string{
	"mistralai/mistral-7b-instruct:free",
	"google/gemma-7b-it:free",
	"meta-llama/llama-3.1-8b-instruct:free",
	"microsoft/phi-3-mini-128k-instruct:free",
	"openchat/openchat-7b:free",
}

// Aggregator is the model-aggregator provider, keyed by API key alone. It
// supports a dynamic model catalog fetch.
type Aggregator struct {
	endpoint string
	apiKey   string
	referer  string
	title    string
	client   *http.Client
}

func NewAggregator(cfg config.AggregatorConfig, client *http.Client) *Aggregator {
	return &Aggregator{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		referer:  cfg.Referer,
		title:    cfg.Title,
		client:   client,
	}
}

func (a *Aggregator) Name() string {
	return "aggregator"
}

func (a *Aggregator) Available() bool {
	return a.apiKey != ""
}

func (a *Aggregator) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.apiKey,
		"HTTP-Referer":  a.referer,
		"X-Title":       a.title,
	}
}

func (a *Aggregator) Complete(ctx context.Context, req port.CompletionRequest) (*port.Completion, error) {
	return complete(ctx, a.client, a.Name(), a.endpoint+"/v1/chat/completions", a.headers(), req)
}

func (a *Aggregator) Stream(ctx context.Context, req port.CompletionRequest) (io.ReadCloser, error) {
	return stream(ctx, a.client, a.Name(), a.endpoint+"/v1/chat/completions", a.headers(), req)
}

// Models fetches the dynamic model catalog. Falls back to the static list on
// any failure so the /models endpoint stays usable.
func (a *Aggregator) Models(ctx context.Context) []string {
	if !a.Available() {
		return DefaultAggregatorModels
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"/v1/models", nil)
	if err != nil {
		return DefaultAggregatorModels
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return DefaultAggregatorModels
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DefaultAggregatorModels
	}

	var catalog struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return DefaultAggregatorModels
	}

	models := make([]string, 0, len(catalog.Data))
	for _, m := range catalog.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	if len(models) == 0 {
		return DefaultAggregatorModels
	}
	return models
}
