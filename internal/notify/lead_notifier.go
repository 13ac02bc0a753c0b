package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/leadchat/internal/catalog"
	"github.com/wolfman30/leadchat/internal/leads"
	"github.com/wolfman30/leadchat/pkg/logging"
)

// LeadNotifier emails the business owner when a new lead is captured. The
// recipient is the business's own contact email, else the configured default.
type LeadNotifier struct {
	email     EmailSender
	contacts  catalog.Provider
	defaultTo string
	logger    *logging.Logger
}

// NewLeadNotifier wires a notifier. contacts may be nil.
func NewLeadNotifier(email EmailSender, contacts catalog.Provider, defaultTo string, logger *logging.Logger) *LeadNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadNotifier{
		email:     email,
		contacts:  contacts,
		defaultTo: strings.TrimSpace(defaultTo),
		logger:    logger,
	}
}

// NotifyNewLead sends the owner email. A business with no known recipient is
// skipped silently.
func (n *LeadNotifier) NotifyNewLead(ctx context.Context, lead *leads.Lead) error {
	if n == nil || n.email == nil || lead == nil {
		return nil
	}

	to := n.recipient(ctx, lead.BusinessID)
	if to == "" {
		n.logger.Debug("notify: no recipient for new lead", "business_id", lead.BusinessID)
		return nil
	}

	msg := Email{
		To:      to,
		ReplyTo: lead.Email,
		Subject: fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.ServiceInterest),
		Text: fmt.Sprintf(`A new lead came in through your website chat.

Name: %s
Phone: %s
Email: %s
Interested in: %s
Received: %s
`, lead.Name, lead.Phone, lead.Email, lead.ServiceInterest, lead.CreatedAt.Format("Jan 2, 2006 3:04 PM MST")),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: new lead email: %w", err)
	}
	return nil
}

func (n *LeadNotifier) recipient(ctx context.Context, businessID string) string {
	if n.contacts != nil {
		details, err := n.contacts.ContactDetails(ctx, businessID)
		if err != nil {
			n.logger.Warn("notify: contact lookup failed", "business_id", businessID, "error", err)
		} else if email := strings.TrimSpace(details.Email); email != "" {
			return email
		}
	}
	return n.defaultTo
}

var _ leads.Notifier = (*LeadNotifier)(nil)
