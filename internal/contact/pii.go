package contact

import (
	"unicode/utf8"

	"github.com/wolfman30/leadchat/internal/lexicon"
)

// RedactedPlaceholder replaces PII spans by default.
const RedactedPlaceholder = "[REDACTED]"

const (
	minPIIDigits = 7
	maxPIIDigits = 14
)

// Guard judges whether text carries personally identifying data. A digit run
// only counts as a phone number when a contact keyword is present or the text
// is short, so order numbers and dates in longer messages pass through.
type Guard struct {
	lex *lexicon.Lexicon
}

// NewGuard builds a guard over the given lexicon (Default when nil).
func NewGuard(lex *lexicon.Lexicon) *Guard {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Guard{lex: lex}
}

// ContainsPotentialPII reports whether text holds an email address or a
// phone-like digit run that passes the keyword/length heuristic.
func (g *Guard) ContainsPotentialPII(text string) bool {
	if text == "" {
		return false
	}
	if emailRe.MatchString(text) {
		return true
	}

	hasContext := g.lex.HasContactKeyword(text) || utf8.RuneCountInString(text) < g.lex.ShortMessageLength
	if !hasContext {
		return false
	}
	for _, span := range phoneLikeRe.FindAllString(text, -1) {
		if n := len(NormalizePhone(span)); n >= minPIIDigits && n <= maxPIIDigits {
			return true
		}
	}
	return false
}

// Redact replaces every email span, and every phone-like span that on its own
// passes ContainsPotentialPII, with placeholder. An empty placeholder means
// RedactedPlaceholder.
func (g *Guard) Redact(text, placeholder string) string {
	if text == "" {
		return text
	}
	if placeholder == "" {
		placeholder = RedactedPlaceholder
	}
	out := emailRe.ReplaceAllString(text, placeholder)
	return phoneLikeRe.ReplaceAllStringFunc(out, func(span string) string {
		if g.ContainsPotentialPII(span) {
			return placeholder
		}
		return span
	})
}
