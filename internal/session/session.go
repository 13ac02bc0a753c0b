// Package session owns the per-conversation record: bounded message history,
// the derived dialogue state, and accumulated contact details.
package session

import (
	"errors"
	"time"

	"github.com/wolfman30/leadchat/internal/contact"
)

const (
	// DefaultMaxMessages bounds the stored history per session.
	DefaultMaxMessages = 20
	// DefaultTTL is how long an idle session survives.
	DefaultTTL = 48 * time.Hour
)

var (
	// ErrNotFound is returned when a session id has no live record.
	ErrNotFound = errors.New("session: not found")
	// ErrInvalidID is returned for blank session or business ids.
	ErrInvalidID = errors.New("session: session id and business id are required")
)

// QuestionType is the coarse intent of the most recent user turn.
type QuestionType string

const (
	QuestionNone         QuestionType = "none"
	QuestionPrice        QuestionType = "price"
	QuestionIntroduction QuestionType = "introduction"
	QuestionTimeline     QuestionType = "timeline"
	QuestionBooking      QuestionType = "booking"
	QuestionContact      QuestionType = "contact"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one history entry.
type Message struct {
	Role           Role         `json:"role"`
	Content        string       `json:"content"`
	Timestamp      time.Time    `json:"timestamp"`
	ServiceContext string       `json:"service_context,omitempty"`
	QuestionType   QuestionType `json:"question_type,omitempty"`
	// Set on user turns that were a bare "yes"/"sure" to the previous question.
	WasAffirmative   bool         `json:"was_affirmative,omitempty"`
	PreviousQuestion QuestionType `json:"previous_question,omitempty"`
}

// ServiceContext tracks what has been covered for one service.
type ServiceContext struct {
	PriceAsked        bool      `json:"price_asked"`
	IntroductionGiven bool      `json:"introduction_given"`
	TimelineDiscussed bool      `json:"timeline_discussed"`
	BookingAttempted  bool      `json:"booking_attempted"`
	LastDiscussedAt   time.Time `json:"last_discussed_at"`
}

// Session is one conversation.
type Session struct {
	ID         string `json:"session_id"`
	BusinessID string `json:"business_id"`

	Messages []Message `json:"messages"`

	CurrentService    string                    `json:"current_service,omitempty"`
	MentionedServices map[string]bool           `json:"mentioned_services,omitempty"`
	LastQuestion      QuestionType              `json:"last_question"`
	ServiceContext    map[string]ServiceContext `json:"service_context,omitempty"`

	PartialContact contact.Contact `json:"partial_contact_info"`
	// Contact is frozen at the moment a lead is captured.
	Contact *contact.Contact `json:"contact_info,omitempty"`

	LastInteraction time.Time `json:"last_interaction_time"`
	CreatedAt       time.Time `json:"created_at"`
}

// New returns an empty session.
func New(id, businessID string, now time.Time) *Session {
	return &Session{
		ID:                id,
		BusinessID:        businessID,
		Messages:          []Message{},
		LastQuestion:      QuestionNone,
		MentionedServices: map[string]bool{},
		ServiceContext:    map[string]ServiceContext{},
		LastInteraction:   now,
		CreatedAt:         now,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	out.MentionedServices = make(map[string]bool, len(s.MentionedServices))
	for k, v := range s.MentionedServices {
		out.MentionedServices[k] = v
	}
	out.ServiceContext = make(map[string]ServiceContext, len(s.ServiceContext))
	for k, v := range s.ServiceContext {
		out.ServiceContext[k] = v
	}
	if s.Contact != nil {
		c := *s.Contact
		out.Contact = &c
	}
	return &out
}

// Expired reports whether the session has been idle for longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastInteraction) > ttl
}

// LastUserMessage returns the most recent user entry, if any.
func (s *Session) LastUserMessage() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// LeadCaptured reports whether contact details have been frozen.
func (s *Session) LeadCaptured() bool {
	return s.Contact != nil
}

// Patch carries the fields ApplyPatch overwrites. Nil fields are left alone;
// maps replace the stored map wholesale.
type Patch struct {
	CurrentService    *string
	MentionedServices map[string]bool
	LastQuestion      *QuestionType
	ServiceContext    map[string]ServiceContext
	PartialContact    *contact.Contact
	Contact           *contact.Contact
}

// Apply merges p into s.
func (p Patch) Apply(s *Session) {
	if p.CurrentService != nil {
		s.CurrentService = *p.CurrentService
	}
	if p.MentionedServices != nil {
		s.MentionedServices = make(map[string]bool, len(p.MentionedServices))
		for k, v := range p.MentionedServices {
			s.MentionedServices[k] = v
		}
	}
	if p.LastQuestion != nil {
		s.LastQuestion = *p.LastQuestion
	}
	if p.ServiceContext != nil {
		s.ServiceContext = make(map[string]ServiceContext, len(p.ServiceContext))
		for k, v := range p.ServiceContext {
			s.ServiceContext[k] = v
		}
	}
	if p.PartialContact != nil {
		s.PartialContact = *p.PartialContact
	}
	if p.Contact != nil {
		c := *p.Contact
		s.Contact = &c
	}
}

// PatchFrom captures every patchable field of s.
func PatchFrom(s *Session) Patch {
	current := s.CurrentService
	last := s.LastQuestion
	partial := s.PartialContact
	p := Patch{
		CurrentService:    &current,
		MentionedServices: s.MentionedServices,
		LastQuestion:      &last,
		ServiceContext:    s.ServiceContext,
		PartialContact:    &partial,
	}
	if s.Contact != nil {
		c := *s.Contact
		p.Contact = &c
	}
	return p
}

// appendBounded appends msgs and keeps only the newest max entries.
func appendBounded(history []Message, max int, msgs ...Message) []Message {
	history = append(history, msgs...)
	if max > 0 && len(history) > max {
		trimmed := make([]Message, max)
		copy(trimmed, history[len(history)-max:])
		history = trimmed
	}
	return history
}

func applyTurn(s *Session, max int, patch Patch, user, bot Message) {
	patch.Apply(s)
	if n := len(s.Messages); n >= 2 && sameMessage(s.Messages[n-2], user) && sameMessage(s.Messages[n-1], bot) {
		return
	}
	s.Messages = appendBounded(s.Messages, max, user, bot)
}

func sameMessage(a, b Message) bool {
	return a.Role == b.Role && a.Content == b.Content && a.Timestamp.Equal(b.Timestamp)
}
