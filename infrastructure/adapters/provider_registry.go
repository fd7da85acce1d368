package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
)

// ProviderRoute binds a model-name prefix to a concrete client. Routes are
// matched in order; adding a provider means adding one route and one client.
type ProviderRoute struct {
	Prefix string
	Client outbound.GenerationProviderPort
}

type providerRegistry struct {
	logger outbound.LoggerPort
	routes []ProviderRoute
}

func NewProviderRegistry(logger outbound.LoggerPort, routes []ProviderRoute) outbound.GenerationProviderPort {
	return &providerRegistry{
		logger: logger,
		routes: routes,
	}
}

func (p *providerRegistry) Submit(ctx context.Context, params outbound.SubmitTaskParams) (string, error) {
	client, err := p.lookup(params.Model)
	if err != nil {
		return "", err
	}
	return client.Submit(ctx, params)
}

func (p *providerRegistry) Query(ctx context.Context, model string, taskID string) (*outbound.TaskResult, error) {
	client, err := p.lookup(model)
	if err != nil {
		return nil, err
	}
	return client.Query(ctx, model, taskID)
}

func (p *providerRegistry) lookup(model string) (outbound.GenerationProviderPort, error) {
	for _, route := range p.routes {
		if strings.HasPrefix(model, route.Prefix) {
			return route.Client, nil
		}
	}
	return nil, fmt.Errorf("no provider registered for model %q", model)
}
