package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/pkg/logging"
)

// Notifier is told about newly created leads.
type Notifier interface {
	NotifyNewLead(ctx context.Context, lead *Lead) error
}

// Outcome is the result of a commit.
type Outcome struct {
	// Created is false when the phone was already on file.
	Created         bool
	Lead            *Lead
	Acknowledgement string
}

// Capture commits complete contacts as leads, once per (business, phone).
type Capture struct {
	repo     Repository
	notifier Notifier
	logger   *logging.Logger
}

// NewCapture wires a capture; notifier may be nil.
func NewCapture(repo Repository, notifier Notifier, logger *logging.Logger) *Capture {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Capture{repo: repo, notifier: notifier, logger: logger}
}

// Commit stores a new lead or acknowledges the existing one. A duplicate is a
// normal outcome, not an error.
func (c *Capture) Commit(ctx context.Context, businessID string, ct contact.Contact, serviceInterest string) (Outcome, error) {
	if !contact.HasComplete(ct) {
		return Outcome{}, fmt.Errorf("%w: %w", ErrInvalidLead, ErrMissingContact)
	}
	req := NewCreateLeadRequest(businessID, ct, serviceInterest)
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	existing, err := c.repo.FindByPhone(ctx, req.BusinessID, req.Phone)
	switch {
	case err == nil:
		return duplicateOutcome(existing), nil
	case !errors.Is(err, ErrLeadNotFound):
		return Outcome{}, fmt.Errorf("leads: lookup failed: %w", err)
	}

	lead, err := c.repo.Create(ctx, req)
	if errors.Is(err, ErrDuplicateLead) {
		existing, findErr := c.repo.FindByPhone(ctx, req.BusinessID, req.Phone)
		if findErr != nil {
			c.logger.Warn("duplicate lead lookup failed", "business_id", req.BusinessID, "phone_last4", contact.Last4(req.Phone), "error", findErr)
			return duplicateOutcome(&Lead{BusinessID: req.BusinessID, Name: req.Name, Phone: req.Phone}), nil
		}
		return duplicateOutcome(existing), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	c.logger.Info("lead created", "lead_id", lead.ID, "business_id", lead.BusinessID, "phone_last4", contact.Last4(lead.Phone), "service_interest", lead.ServiceInterest)
	if c.notifier != nil {
		if err := c.notifier.NotifyNewLead(ctx, lead); err != nil {
			c.logger.Warn("lead notification failed", "lead_id", lead.ID, "error", err)
		}
	}

	return Outcome{
		Created:         true,
		Lead:            lead,
		Acknowledgement: fmt.Sprintf("Thank you, %s! We've received your details and our team will be in touch shortly.", firstName(lead.Name)),
	}, nil
}

func duplicateOutcome(existing *Lead) Outcome {
	return Outcome{
		Lead:            existing,
		Acknowledgement: fmt.Sprintf("Welcome back, %s! We already have your details on file, and our team will be in touch soon.", firstName(existing.Name)),
	}
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
