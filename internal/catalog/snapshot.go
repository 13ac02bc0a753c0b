package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Snapshot is everything the engine knows about one business for a turn.
type Snapshot struct {
	BusinessID string
	Services   []Service
	Contact    ContactDetails
	FAQs       []FAQ
}

// Load reads all three collections. A failing collection is left empty and
// its error joined into the result so callers can still use the rest.
func Load(ctx context.Context, p Provider, businessID string) (Snapshot, error) {
	snap := Snapshot{BusinessID: businessID}
	var errs []error

	services, err := p.Services(ctx, businessID)
	if err != nil {
		errs = append(errs, fmt.Errorf("catalog: services: %w", err))
	} else {
		snap.Services = Dedupe(services)
	}

	details, err := p.ContactDetails(ctx, businessID)
	if err != nil {
		errs = append(errs, fmt.Errorf("catalog: contact details: %w", err))
	} else {
		snap.Contact = details
	}

	faqs, err := p.FAQs(ctx, businessID)
	if err != nil {
		errs = append(errs, fmt.Errorf("catalog: faqs: %w", err))
	} else {
		snap.FAQs = faqs
	}

	return snap, errors.Join(errs...)
}

// ServiceNames lists service names in catalog order.
func (s Snapshot) ServiceNames() []string {
	names := make([]string, 0, len(s.Services))
	for _, svc := range s.Services {
		names = append(names, svc.Name)
	}
	return names
}
