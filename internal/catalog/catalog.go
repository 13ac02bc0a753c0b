// Package catalog describes the per-business data the dialogue engine reads:
// the service catalog, the business's own contact details, and its FAQs.
// The engine never writes through these types.
package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrBusinessRequired is returned when a lookup is made without a business id.
var ErrBusinessRequired = errors.New("catalog: business id is required")

// Service is one offering in a business's catalog. Only Name is required.
type Service struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price,omitempty"`
	Timeline    string   `json:"timeline,omitempty"`
	Benefits    []string `json:"benefits,omitempty"`
	// ManualOverride marks entries curated by the business owner. They win
	// over imported entries with the same name.
	ManualOverride bool `json:"manual_override"`
}

// ContactDetails is how the business itself can be reached.
type ContactDetails struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// IsZero reports whether no contact channel is known.
func (c ContactDetails) IsZero() bool {
	return c.Phone == "" && c.Email == "" && c.Address == ""
}

// FAQ is a curated question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Provider supplies read-only business data.
type Provider interface {
	Services(ctx context.Context, businessID string) ([]Service, error)
	ContactDetails(ctx context.Context, businessID string) (ContactDetails, error)
	FAQs(ctx context.Context, businessID string) ([]FAQ, error)
}

// Find returns the service whose name matches case-insensitively.
func Find(services []Service, name string) (Service, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Service{}, false
	}
	for _, svc := range services {
		if strings.EqualFold(strings.TrimSpace(svc.Name), name) {
			return svc, true
		}
	}
	return Service{}, false
}

// Dedupe collapses entries sharing a name. A manual override replaces an
// earlier imported entry in place; otherwise the first entry wins. Blank
// names are dropped. Catalog order is otherwise preserved.
func Dedupe(services []Service) []Service {
	out := make([]Service, 0, len(services))
	index := make(map[string]int, len(services))
	for _, svc := range services {
		key := strings.ToLower(strings.TrimSpace(svc.Name))
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			if svc.ManualOverride && !out[i].ManualOverride {
				out[i] = svc
			}
			continue
		}
		index[key] = len(out)
		out = append(out, svc)
	}
	return out
}
