package contact

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// Phone-shaped spans, tried in order at each position: NANP with an
	// optional country code ("+1 555.123.4567", "(555) 123 4567"), spaced
	// international numbers ("+44 20 7946 0958"), local "555-1234", and bare
	// digit runs. Word boundaries keep neighbouring numbers apart.
	phoneLikeRe = regexp.MustCompile(strings.Join([]string{
		`(?:\+\d{1,3}[\s.\-]?|\b1[\s.\-]?)?(?:\(\d{3}\)\s?|\b\d{3}[\s.\-]?)\d{3}[\s.\-]?\d{4}\b`,
		`\+\d{1,3}(?:[\s.\-]?\d{2,4}){2,4}\b`,
		`\b\d{3}[.\-]\d{4}\b`,
		`\+?\b\d{7,}\b`,
	}, "|"))

	labeledNameRe  = regexp.MustCompile(`(?i)\bname\s*:\s*([^,\n]+)`)
	labeledPhoneRe = regexp.MustCompile(`(?i)\bphone\s*:\s*([^,\n]+)`)
	labeledEmailRe = regexp.MustCompile(`(?i)\bemail\s*:\s*([^,\n]+)`)

	introducedNameRe = regexp.MustCompile(`(?:[Mm]y name is|[Nn]ame is|I am|I'm)\s+([A-Z][a-z'\-]+(?:\s+[A-Z][a-z'\-]+)*)`)
	capitalizedRunRe = regexp.MustCompile(`\b[A-Z][a-z'\-]+(?:\s+[A-Z][a-z'\-]+)+\b`)
)

const minPhoneDigits = 7

// Words that follow "I'm"/"I am" without being a name.
var notNames = map[string]struct{}{
	"interested": {}, "looking": {}, "just": {}, "here": {}, "curious": {},
	"wondering": {}, "new": {}, "not": {}, "ready": {}, "available": {},
}

// Extract pulls candidate contact details out of a message. Labeled
// "name: .., phone: .., email: .." input is returned verbatim when all three
// labels are present; otherwise each field is matched independently in free
// text. The second result is false when nothing was found.
//
// Values are returned as written; Format normalizes them for storage.
func Extract(message string) (Contact, bool) {
	if strings.TrimSpace(message) == "" {
		return Contact{}, false
	}

	if c, ok := extractLabeled(message); ok {
		return c, true
	}

	c := extractFreeText(message)
	if c.IsEmpty() {
		return Contact{}, false
	}
	return c, true
}

func extractLabeled(message string) (Contact, bool) {
	name := labeledNameRe.FindStringSubmatch(message)
	phone := labeledPhoneRe.FindStringSubmatch(message)
	email := labeledEmailRe.FindStringSubmatch(message)
	if name == nil || phone == nil || email == nil {
		return Contact{}, false
	}
	return Contact{
		Name:  strings.TrimSpace(name[1]),
		Phone: strings.TrimSpace(phone[1]),
		Email: strings.TrimSpace(email[1]),
	}, true
}

func extractFreeText(message string) Contact {
	var c Contact

	email := emailRe.FindString(message)
	if email != "" {
		c.Email = email
	}
	rest := emailRe.ReplaceAllString(message, " ")

	for _, candidate := range phoneLikeRe.FindAllString(rest, -1) {
		if n := len(NormalizePhone(candidate)); n >= minPhoneDigits && n <= maxPIIDigits {
			c.Phone = strings.TrimSpace(candidate)
			break
		}
	}

	if m := introducedNameRe.FindStringSubmatch(rest); m != nil && !startsWithNotName(m[1]) {
		c.Name = m[1]
	} else if c.Email != "" || c.Phone != "" {
		// A bare run of capitalized words only reads as a name when it sits
		// next to other contact details; otherwise service names would match.
		if run := capitalizedRunRe.FindString(rest); run != "" {
			c.Name = run
		}
	}
	return c
}

func startsWithNotName(candidate string) bool {
	first, _, _ := strings.Cut(candidate, " ")
	_, ok := notNames[strings.ToLower(first)]
	return ok
}
