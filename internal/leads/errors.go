package leads

import "errors"

var (
	// ErrInvalidLead wraps every validation failure below.
	ErrInvalidLead = errors.New("leads: invalid lead")

	// ErrMissingBusiness is returned when the business id is blank
	ErrMissingBusiness = errors.New("business id is required")

	// ErrInvalidName is returned when the name is invalid
	ErrInvalidName = errors.New("name is required")

	// ErrMissingContact is returned when phone or email is missing
	ErrMissingContact = errors.New("phone and email are required")

	// ErrInvalidStatus is returned for an unknown status filter or value
	ErrInvalidStatus = errors.New("unknown lead status")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrDuplicateLead is returned when (business, phone) already has a lead.
	ErrDuplicateLead = errors.New("leads: lead already exists for this phone")
)
