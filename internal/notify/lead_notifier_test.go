package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/leadchat/internal/catalog"
	"github.com/wolfman30/leadchat/internal/leads"
)

type recordingSender struct {
	sent []Email
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Email) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func sampleLead(businessID string) *leads.Lead {
	return &leads.Lead{
		ID:              "lead-1",
		BusinessID:      businessID,
		Name:            "John Doe",
		Phone:           "5551234567",
		Email:           "j@x.com",
		ServiceInterest: "Veneers",
		Status:          leads.StatusNew,
		CreatedAt:       time.Date(2024, 3, 1, 15, 4, 0, 0, time.UTC),
	}
}

func TestLeadNotifier_UsesBusinessEmail(t *testing.T) {
	sender := &recordingSender{}
	contacts := catalog.NewStaticProvider(map[string]catalog.Business{
		"biz-1": {Contact: catalog.ContactDetails{Email: "owner@smile.example"}},
	})
	n := NewLeadNotifier(sender, contacts, "fallback@example.com", nil)

	if err := n.NotifyNewLead(context.Background(), sampleLead("biz-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "owner@smile.example" {
		t.Errorf("expected business email recipient, got %s", msg.To)
	}
	if msg.ReplyTo != "j@x.com" {
		t.Errorf("expected lead email as reply-to, got %q", msg.ReplyTo)
	}
	if !strings.Contains(msg.Subject, "John Doe") || !strings.Contains(msg.Text, "Veneers") {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestLeadNotifier_FallsBackToDefaultRecipient(t *testing.T) {
	sender := &recordingSender{}
	n := NewLeadNotifier(sender, catalog.NewStaticProvider(nil), "fallback@example.com", nil)

	if err := n.NotifyNewLead(context.Background(), sampleLead("biz-2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "fallback@example.com" {
		t.Fatalf("expected fallback recipient, got %+v", sender.sent)
	}
}

func TestLeadNotifier_SkipsWithoutRecipient(t *testing.T) {
	sender := &recordingSender{}
	n := NewLeadNotifier(sender, nil, "", nil)
	if err := n.NotifyNewLead(context.Background(), sampleLead("biz-3")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.sent))
	}
}

func TestLeadNotifier_WrapsSendError(t *testing.T) {
	sender := &recordingSender{err: errors.New("bounced")}
	n := NewLeadNotifier(sender, nil, "owner@example.com", nil)
	if err := n.NotifyNewLead(context.Background(), sampleLead("biz-1")); err == nil {
		t.Fatal("expected error")
	}
}
