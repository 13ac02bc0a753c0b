// Package contact extracts prospect contact details from chat messages and
// guards free text against leaking them.
package contact

import (
	"regexp"
	"strings"
	"time"
)

// Field names as reported by MissingFields.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// Contact is a possibly partial set of prospect details. Empty strings mean
// the field has not been seen.
type Contact struct {
	Name        string    `json:"name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	ExtractedAt time.Time `json:"extracted_at,omitempty"`
}

// IsEmpty reports whether no field is set.
func (c Contact) IsEmpty() bool {
	return strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Phone) == "" && strings.TrimSpace(c.Email) == ""
}

// Merge returns c with every non-blank field of other laid over it.
func (c Contact) Merge(other Contact) Contact {
	if v := strings.TrimSpace(other.Name); v != "" {
		c.Name = v
	}
	if v := strings.TrimSpace(other.Phone); v != "" {
		c.Phone = v
	}
	if v := strings.TrimSpace(other.Email); v != "" {
		c.Email = v
	}
	if !other.ExtractedAt.IsZero() {
		c.ExtractedAt = other.ExtractedAt
	}
	return c
}

// HasComplete reports whether name, email and phone are all non-blank.
func HasComplete(c Contact) bool {
	return len(MissingFields(c)) == 0
}

// MissingFields lists the fields still absent, in name, email, phone order.
func MissingFields(c Contact) []string {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, FieldName)
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, FieldEmail)
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, FieldPhone)
	}
	return missing
}

var nonDigitRe = regexp.MustCompile(`\D`)

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return nonDigitRe.ReplaceAllString(phone, "")
}

// Format normalizes an extracted contact for storage and stamps it with the
// extraction time.
func Format(c Contact, now time.Time) Contact {
	return Contact{
		Name:        strings.Join(strings.Fields(c.Name), " "),
		Phone:       NormalizePhone(c.Phone),
		Email:       strings.ToLower(strings.TrimSpace(c.Email)),
		ExtractedAt: now.UTC(),
	}
}

// Last4 returns the tail of a phone for logs.
func Last4(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) <= 4 {
		return digits
	}
	return "..." + digits[len(digits)-4:]
}
