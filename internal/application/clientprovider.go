package application

import (
	"context"
	"sync"

	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// ClientFactory builds a protocol client from an account's current settings.
// The factory is called lazily, off any UI path, and again after the cached
// client is invalidated.
type ClientFactory func(ctx context.Context, settings *BlogSettings) (driven.ProtocolClient, error)

// ClientProvider resolves an account's protocol client on first use and
// caches it until invalidated. Settings edits that change the client type or
// endpoint call Invalidate so the next request rebuilds against the fresh
// configuration.
type ClientProvider struct {
	mu       sync.Mutex
	client   driven.ProtocolClient
	factory  ClientFactory
	settings *BlogSettings
}

// NewClientProvider creates a provider that builds clients for the given
// account settings.
func NewClientProvider(settings *BlogSettings, factory ClientFactory) *ClientProvider {
	return &ClientProvider{factory: factory, settings: settings}
}

// Get returns the cached client, building it on first call.
func (p *ClientProvider) Get(ctx context.Context) (driven.ProtocolClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := p.factory(ctx, p.settings)
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

// Invalidate drops the cached client. The next Get rebuilds it.
func (p *ClientProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = nil
}
