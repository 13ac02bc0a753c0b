package dialogue

import "errors"

var (
	// ErrValidation marks malformed inbound messages. Nothing is processed.
	ErrValidation = errors.New("dialogue: invalid inbound message")
	// ErrExternalService marks AI or business-data failures. The engine
	// recovers from these locally and only logs them.
	ErrExternalService = errors.New("dialogue: external service failure")
	// ErrPersistence marks a turn whose session or lead write could not be
	// confirmed. The reply must not be shown as sent.
	ErrPersistence = errors.New("dialogue: turn could not be persisted")
)
