package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/leadchat/internal/catalog"
	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/pkg/logging"
)

// Apology is returned in place of a generated reply when generation fails.
const Apology = "I'm sorry, I'm having trouble answering that right now. A member of our team can help you directly."

const (
	defaultTimeout   = 8 * time.Second
	defaultMaxTokens = 220
	maxPromptFAQs    = 10
)

// ErrGeneration wraps every failure to produce text.
var ErrGeneration = errors.New("assistant: generation failed")

// Generator produces short business-grounded replies.
type Generator struct {
	llm     LLMClient
	guard   *contact.Guard
	logger  *logging.Logger
	timeout time.Duration
}

// NewGenerator wraps llm. Messages are PII-redacted before they leave the
// process.
func NewGenerator(llm LLMClient, guard *contact.Guard, logger *logging.Logger) *Generator {
	if llm == nil {
		panic("assistant: llm client required")
	}
	if guard == nil {
		guard = contact.NewGuard(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Generator{llm: llm, guard: guard, logger: logger, timeout: defaultTimeout}
}

// Reply answers message using only biz. On failure it returns Apology along
// with an error wrapping ErrGeneration.
func (g *Generator) Reply(ctx context.Context, message string, biz catalog.Snapshot) (string, error) {
	text := strings.TrimSpace(g.guard.Redact(message, contact.RedactedPlaceholder))
	if text == "" {
		return Apology, fmt.Errorf("%w: empty message", ErrGeneration)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.llm.Complete(ctx, LLMRequest{
		System:      []string{systemPrompt(biz)},
		Messages:    []ChatMessage{{Role: RoleUser, Content: text}},
		MaxTokens:   defaultMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return Apology, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		return Apology, fmt.Errorf("%w: empty completion", ErrGeneration)
	}

	g.logger.Debug("fallback reply generated",
		"business_id", biz.BusinessID,
		"latency_ms", time.Since(start).Milliseconds(),
		"output_tokens", resp.Usage.OutputTokens,
	)
	return reply, nil
}

func systemPrompt(biz catalog.Snapshot) string {
	var b strings.Builder
	b.WriteString("You are the front-desk assistant on a business website chat. ")
	b.WriteString("Answer in at most three short sentences using only the business facts below. ")
	b.WriteString("Never invent prices, services, or policies. If the facts do not cover the question, say a team member will follow up. ")
	b.WriteString("Do not ask for or repeat personal details.\n")

	if len(biz.Services) > 0 {
		b.WriteString("\nServices:\n")
		for _, svc := range biz.Services {
			fmt.Fprintf(&b, "- %s", svc.Name)
			if price := strings.TrimSpace(svc.Price); price != "" {
				fmt.Fprintf(&b, " (%s)", price)
			}
			if desc := strings.TrimSpace(svc.Description); desc != "" {
				fmt.Fprintf(&b, ": %s", desc)
			}
			b.WriteString("\n")
		}
	}

	if !biz.Contact.IsZero() {
		b.WriteString("\nBusiness contact:\n")
		if biz.Contact.Phone != "" {
			fmt.Fprintf(&b, "- Phone: %s\n", biz.Contact.Phone)
		}
		if biz.Contact.Email != "" {
			fmt.Fprintf(&b, "- Email: %s\n", biz.Contact.Email)
		}
		if biz.Contact.Address != "" {
			fmt.Fprintf(&b, "- Address: %s\n", biz.Contact.Address)
		}
	}

	if len(biz.FAQs) > 0 {
		b.WriteString("\nFAQs:\n")
		for i, faq := range biz.FAQs {
			if i == maxPromptFAQs {
				break
			}
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", strings.TrimSpace(faq.Question), strings.TrimSpace(faq.Answer))
		}
	}
	return b.String()
}
