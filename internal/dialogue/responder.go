package dialogue

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfman30/leadchat/internal/catalog"
	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/internal/lexicon"
	"github.com/wolfman30/leadchat/internal/session"
)

// Kind names the template branch a reply came from.
type Kind string

const (
	KindFallback Kind = "fallback"
	KindPrice    Kind = "price"
	KindInterest Kind = "interest"
	KindFAQ      Kind = "faq"
	KindGeneric  Kind = "generic"
)

const maxListedServices = 5

var (
	priceRangeSep = regexp.MustCompile(`\s*(?:-|–|\bto\b)\s*`)
	bareAmount    = regexp.MustCompile(`^\d[\d,]*(?:\.\d{1,2})?$`)
)

// Response is a reply split into its informative body and the closing
// next-step prompt.
type Response struct {
	Kind     Kind
	Body     string
	FollowUp string
}

// Text joins the non-empty parts.
func (r Response) Text() string {
	return joinSentences(r.Body, r.FollowUp)
}

// Responder picks and fills reply templates.
type Responder struct {
	lex     *lexicon.Lexicon
	matcher *Matcher
}

func NewResponder(lex *lexicon.Lexicon, matcher *Matcher) *Responder {
	if lex == nil {
		lex = lexicon.Default()
	}
	if matcher == nil {
		matcher = NewMatcher(lex)
	}
	return &Responder{lex: lex, matcher: matcher}
}

// Generate builds the reply for the session's latest user message.
func (r *Responder) Generate(s *session.Session, biz catalog.Snapshot, qt session.QuestionType) Response {
	last, _ := s.LastUserMessage()

	svc, ok := catalog.Find(biz.Services, s.CurrentService)
	if !ok {
		if faq, found := r.matcher.MatchFAQ(last.Content, biz.FAQs); found {
			return Response{Kind: KindFAQ, Body: strings.TrimSpace(faq.Answer), FollowUp: r.ContactFollowUp(s)}
		}
		return Response{Kind: KindFallback, Body: r.clarify(biz), FollowUp: r.ContactFollowUp(s)}
	}

	switch {
	case qt == session.QuestionPrice:
		return Response{Kind: KindPrice, Body: priceSentence(svc), FollowUp: r.ContactFollowUp(s)}
	case r.lex.HasEnthusiasm(last.Content):
		return Response{Kind: KindInterest, Body: interestBody(svc), FollowUp: r.BookingFollowUp(s)}
	}

	if faq, found := r.matcher.MatchFAQ(last.Content, biz.FAQs); found {
		return Response{Kind: KindFAQ, Body: strings.TrimSpace(faq.Answer), FollowUp: r.BookingFollowUp(s)}
	}
	return Response{Kind: KindGeneric, Body: genericBody(svc, s.ServiceContext[svc.Name], qt), FollowUp: r.BookingFollowUp(s)}
}

// ContactFollowUp asks for whatever contact details are still missing.
func (r *Responder) ContactFollowUp(s *session.Session) string {
	if s.LeadCaptured() {
		return "Would you like us to book a consultation for you?"
	}
	if !s.PartialContact.IsEmpty() {
		return missingFieldsPrompt(s.PartialContact)
	}
	return "Would you like to share your name, phone number, and email so our team can reach out with a personalized quote?"
}

// BookingFollowUp steers toward scheduling a consultation.
func (r *Responder) BookingFollowUp(s *session.Session) string {
	if s.LeadCaptured() {
		return "Would you like us to reserve a consultation time for you?"
	}
	if !s.PartialContact.IsEmpty() {
		return missingFieldsPrompt(s.PartialContact)
	}
	return "Would you like to book a consultation? Just share your name, phone number, and email and we'll set it up."
}

func (r *Responder) clarify(biz catalog.Snapshot) string {
	var b strings.Builder
	b.WriteString("I'd be happy to help!")
	if names := biz.ServiceNames(); len(names) > 0 {
		if len(names) > maxListedServices {
			names = names[:maxListedServices]
		}
		fmt.Fprintf(&b, " Which service are you interested in? We offer %s.", humanList(names))
	} else {
		b.WriteString(" Could you tell me a little more about what you're looking for?")
	}
	if line := contactLine(biz.Contact); line != "" {
		b.WriteString(" ")
		b.WriteString(line)
	}
	return b.String()
}

func contactLine(c catalog.ContactDetails) string {
	var channels []string
	if p := strings.TrimSpace(c.Phone); p != "" {
		channels = append(channels, p)
	}
	if e := strings.TrimSpace(c.Email); e != "" {
		channels = append(channels, e)
	}
	if len(channels) == 0 {
		return ""
	}
	return fmt.Sprintf("You can also reach us directly at %s.", strings.Join(channels, " or "))
}

func priceSentence(svc catalog.Service) string {
	price := formatPrice(svc)
	switch {
	case price == "":
		return fmt.Sprintf("Pricing for %s depends on your treatment plan, and we offer flexible financing options to fit your budget.", svc.Name)
	case svc.ManualOverride:
		return fmt.Sprintf("Our current price for %s is %s. We also offer flexible financing options to fit your budget.", svc.Name, price)
	case strings.Contains(price, " - "):
		return fmt.Sprintf("%s typically ranges %s. We also offer flexible financing options to fit your budget.", svc.Name, price)
	default:
		return fmt.Sprintf("%s typically costs %s. We also offer flexible financing options to fit your budget.", svc.Name, price)
	}
}

func interestBody(svc catalog.Service) string {
	parts := []string{fmt.Sprintf("Great choice! %s", describe(svc))}
	if len(svc.Benefits) > 0 {
		parts = append(parts, fmt.Sprintf("Benefits include %s.", humanList(lowerFirst(svc.Benefits))))
	}
	if price := formatPrice(svc); price != "" {
		parts = append(parts, fmt.Sprintf("Pricing is %s.", price))
	}
	return joinSentences(parts...)
}

func genericBody(svc catalog.Service, sc session.ServiceContext, qt session.QuestionType) string {
	var parts []string
	timeline := strings.TrimSpace(svc.Timeline)
	if qt == session.QuestionTimeline {
		if timeline != "" {
			parts = append(parts, fmt.Sprintf("For %s, the typical timeline is %s.", svc.Name, timeline))
		} else {
			parts = append(parts, fmt.Sprintf("The timeline for %s varies from client to client and is covered in your consultation.", svc.Name))
		}
		timeline = ""
	}
	parts = append(parts, describe(svc))
	if len(svc.Benefits) > 0 {
		parts = append(parts, fmt.Sprintf("Clients love it for %s.", humanList(lowerFirst(svc.Benefits))))
	}
	if timeline != "" {
		parts = append(parts, fmt.Sprintf("The typical timeline is %s.", timeline))
	}
	if price := formatPrice(svc); price != "" && !sc.PriceAsked {
		parts = append(parts, fmt.Sprintf("Pricing is %s.", price))
	}
	return joinSentences(parts...)
}

func describe(svc catalog.Service) string {
	if desc := strings.TrimSpace(svc.Description); desc != "" {
		return ensurePeriod(desc)
	}
	return fmt.Sprintf("%s is one of our most requested services.", svc.Name)
}

// formatPrice prefixes bare amounts with "$". Manual overrides are quoted
// verbatim.
func formatPrice(svc catalog.Service) string {
	price := strings.TrimSpace(svc.Price)
	if price == "" || svc.ManualOverride {
		return price
	}
	parts := priceRangeSep.Split(price, -1)
	if len(parts) == 1 && !bareAmount.MatchString(parts[0]) {
		return price
	}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if bareAmount.MatchString(part) {
			part = "$" + part
		}
		parts[i] = part
	}
	return strings.Join(parts, " - ")
}

func missingFieldsPrompt(c contact.Contact) string {
	missing := contact.MissingFields(c)
	labels := make([]string, 0, len(missing))
	for _, field := range missing {
		switch field {
		case contact.FieldPhone:
			labels = append(labels, "phone number")
		case contact.FieldEmail:
			labels = append(labels, "email address")
		default:
			labels = append(labels, field)
		}
	}
	return fmt.Sprintf("Could you also share your %s so our team can follow up?", humanList(labels))
}

func humanList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func lowerFirst(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimRight(strings.TrimSpace(item), ".")
		if item == "" {
			continue
		}
		// Acronyms such as "FDA approved" keep their case.
		first, _, _ := strings.Cut(item, " ")
		if len(first) == 1 || (first[1] >= 'a' && first[1] <= 'z') {
			item = strings.ToLower(item[:1]) + item[1:]
		}
		out = append(out, item)
	}
	return out
}

func ensurePeriod(s string) string {
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}

func joinSentences(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
