package provider

import (
	"context"
	"fmt"
	"io"

	"krakengpt/internal/logger"
	"krakengpt/internal/port"
)

// preSendFallback is the fixed order tried when the selected provider is not
// configured. All three providers participate.
var preSendFallback = map[string][]string{
	"cloud":      {"local", "aggregator"},
	"aggregator": {"local", "cloud"},
	"local":      {"cloud", "aggregator"},
}

// runtimeFallback is the single alternate tried after a dispatched request
// fails. Local is deliberately absent: post-dispatch retry only swaps
// between cloud and aggregator, unlike the pre-send chain above. The
// asymmetry is inherited behavior, kept rather than corrected.
var runtimeFallback = map[string]string{
	"cloud":      "aggregator",
	"aggregator": "cloud",
}

// Router selects a generation provider for each request and applies both
// failover policies.
type Router struct {
	log         *logger.Logger
	providers   map[string]port.Provider
	defaultName string
}

func NewRouter(log *logger.Logger, defaultName string, providers ...port.Provider) *Router {
	byName := make(map[string]port.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Router{
		log:         log.With("service", "Router"),
		providers:   byName,
		defaultName: defaultName,
	}
}

// Names lists the registered providers.
func (r *Router) Names() []string {
	return []string{"cloud", "aggregator", "local"}
}

// DefaultName returns the configured default provider name.
func (r *Router) DefaultName() string {
	return r.defaultName
}

// Get returns a registered provider by name.
func (r *Router) Get(name string) (port.Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Select resolves the provider serving a request: the caller's choice when
// given, else the default, walking the pre-send fallback chain when the
// selected provider is unavailable. No network I/O happens here; if the
// whole chain is unavailable the request fails fast with ErrNoProvider.
func (r *Router) Select(requested string) (port.Provider, error) {
	name := requested
	if name == "" {
		name = r.defaultName
	}

	selected, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	if selected.Available() {
		return selected, nil
	}

	for _, alt := range preSendFallback[name] {
		p, ok := r.providers[alt]
		if !ok || !p.Available() {
			continue
		}
		r.log.Info("falling back before dispatch", "from", name, "to", alt)
		return p, nil
	}
	return nil, ErrNoProvider
}

// Complete runs a non-streaming completion with one-shot runtime failover.
// On double failure both errors are surfaced together. Returns the provider
// that actually served the request.
func (r *Router) Complete(ctx context.Context, p port.Provider, req port.CompletionRequest) (*port.Completion, port.Provider, error) {
	result, err := p.Complete(ctx, req)
	if err == nil {
		return result, p, nil
	}
	if ctx.Err() != nil {
		return nil, nil, err
	}

	alt := r.runtimeAlternate(p)
	if alt == nil {
		return nil, nil, err
	}
	r.log.Warn("provider failed, retrying once", "provider", p.Name(), "fallback", alt.Name(), "error", err.Error())

	result, altErr := alt.Complete(ctx, req)
	if altErr != nil {
		return nil, nil, fmt.Errorf("both providers failed: %v | %v", err, altErr)
	}
	return result, alt, nil
}

// Stream dispatches a streaming completion with the same one-shot runtime
// failover as Complete.
func (r *Router) Stream(ctx context.Context, p port.Provider, req port.CompletionRequest) (io.ReadCloser, port.Provider, error) {
	body, err := p.Stream(ctx, req)
	if err == nil {
		return body, p, nil
	}
	if ctx.Err() != nil {
		return nil, nil, err
	}

	alt := r.runtimeAlternate(p)
	if alt == nil {
		return nil, nil, err
	}
	r.log.Warn("provider failed, retrying once", "provider", p.Name(), "fallback", alt.Name(), "error", err.Error())

	body, altErr := alt.Stream(ctx, req)
	if altErr != nil {
		return nil, nil, fmt.Errorf("both providers failed: %v | %v", err, altErr)
	}
	return body, alt, nil
}

func (r *Router) runtimeAlternate(p port.Provider) port.Provider {
	name, ok := runtimeFallback[p.Name()]
	if !ok {
		return nil
	}
	alt, ok := r.providers[name]
	if !ok || !alt.Available() {
		return nil
	}
	return alt
}
