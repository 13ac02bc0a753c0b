package leads

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/leadchat/internal/contact"
)

// DefaultServiceInterest is stored when no service was discussed.
const DefaultServiceInterest = "General Inquiry"

// Status tracks a lead through the sales pipeline.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusConverted Status = "converted"
	StatusClosed    Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusConverted, StatusClosed:
		return true
	}
	return false
}

// Lead is a prospective customer captured from chat
type Lead struct {
	ID              string    `json:"id"`
	BusinessID      string    `json:"business_id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	ServiceInterest string    `json:"service_interest"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateLeadRequest carries the fields needed to insert a lead
type CreateLeadRequest struct {
	BusinessID      string `json:"business_id"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	ServiceInterest string `json:"service_interest"`
}

// NewCreateLeadRequest normalizes a complete contact into a request.
func NewCreateLeadRequest(businessID string, c contact.Contact, serviceInterest string) *CreateLeadRequest {
	interest := strings.TrimSpace(serviceInterest)
	if interest == "" {
		interest = DefaultServiceInterest
	}
	return &CreateLeadRequest{
		BusinessID:      strings.TrimSpace(businessID),
		Name:            strings.Join(strings.Fields(c.Name), " "),
		Phone:           contact.NormalizePhone(c.Phone),
		Email:           strings.ToLower(strings.TrimSpace(c.Email)),
		ServiceInterest: interest,
	}
}

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.BusinessID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLead, ErrMissingBusiness)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLead, ErrInvalidName)
	}
	if strings.TrimSpace(r.Phone) == "" || strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLead, ErrMissingContact)
	}
	return nil
}

// ListLeadsFilter narrows ListByBusiness results
type ListLeadsFilter struct {
	Status Status
	Limit  int
	Offset int
}

func (f ListLeadsFilter) normalized() ListLeadsFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
