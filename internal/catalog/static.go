package catalog

import (
	"context"
	"strings"
	"sync"
)

// Business bundles everything a Provider knows about one business.
type Business struct {
	Services []Service
	Contact  ContactDetails
	FAQs     []FAQ
}

// StaticProvider serves catalogs held in memory. Used for demos and tests.
type StaticProvider struct {
	mu         sync.RWMutex
	businesses map[string]Business
}

// NewStaticProvider creates a provider seeded with the given businesses.
func NewStaticProvider(businesses map[string]Business) *StaticProvider {
	p := &StaticProvider{businesses: make(map[string]Business, len(businesses))}
	for id, b := range businesses {
		p.businesses[id] = b
	}
	return p
}

// Put replaces the data for one business.
func (p *StaticProvider) Put(businessID string, b Business) {
	p.mu.Lock()
	p.businesses[businessID] = b
	p.mu.Unlock()
}

func (p *StaticProvider) lookup(businessID string) (Business, error) {
	if strings.TrimSpace(businessID) == "" {
		return Business{}, ErrBusinessRequired
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.businesses[businessID], nil
}

// Services returns the deduplicated catalog for a business.
func (p *StaticProvider) Services(_ context.Context, businessID string) ([]Service, error) {
	b, err := p.lookup(businessID)
	if err != nil {
		return nil, err
	}
	return Dedupe(b.Services), nil
}

// ContactDetails returns the business's contact details.
func (p *StaticProvider) ContactDetails(_ context.Context, businessID string) (ContactDetails, error) {
	b, err := p.lookup(businessID)
	if err != nil {
		return ContactDetails{}, err
	}
	return b.Contact, nil
}

// FAQs returns the business's FAQs.
func (p *StaticProvider) FAQs(_ context.Context, businessID string) ([]FAQ, error) {
	b, err := p.lookup(businessID)
	if err != nil {
		return nil, err
	}
	out := make([]FAQ, len(b.FAQs))
	copy(out, b.FAQs)
	return out, nil
}
