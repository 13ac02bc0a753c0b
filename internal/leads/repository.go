package leads

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage. Create must fail with
// ErrDuplicateLead when (business, phone) already exists, atomically.
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	FindByPhone(ctx context.Context, businessID, phone string) (*Lead, error)
	ListByBusiness(ctx context.Context, businessID string, filter ListLeadsFilter) ([]*Lead, error)
}

// InMemoryRepository keeps leads in memory with a unique (business, phone) index
type InMemoryRepository struct {
	mu      sync.RWMutex
	leads   map[string]*Lead
	byPhone map[string]string
	order   []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:   make(map[string]*Lead),
		byPhone: make(map[string]string),
	}
}

func phoneKey(businessID, phone string) string {
	return strings.TrimSpace(businessID) + "|" + strings.TrimSpace(phone)
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(_ context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := phoneKey(req.BusinessID, req.Phone)
	if _, exists := r.byPhone[key]; exists {
		return nil, ErrDuplicateLead
	}

	lead := &Lead{
		ID:              uuid.New().String(),
		BusinessID:      req.BusinessID,
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		ServiceInterest: req.ServiceInterest,
		Status:          StatusNew,
		CreatedAt:       time.Now().UTC(),
	}
	r.leads[lead.ID] = lead
	r.byPhone[key] = lead.ID
	r.order = append(r.order, lead.ID)

	out := *lead
	return &out, nil
}

// FindByPhone returns the lead for (business, phone) or ErrLeadNotFound
func (r *InMemoryRepository) FindByPhone(_ context.Context, businessID, phone string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPhone[phoneKey(businessID, phone)]
	if !ok {
		return nil, ErrLeadNotFound
	}
	out := *r.leads[id]
	return &out, nil
}

// ListByBusiness returns leads newest first
func (r *InMemoryRepository) ListByBusiness(_ context.Context, businessID string, filter ListLeadsFilter) ([]*Lead, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	filter = filter.normalized()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Lead
	for i := len(r.order) - 1; i >= 0; i-- {
		lead := r.leads[r.order[i]]
		if lead.BusinessID != businessID {
			continue
		}
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		out := *lead
		matched = append(matched, &out)
	}
	if filter.Offset >= len(matched) {
		return []*Lead{}, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}
