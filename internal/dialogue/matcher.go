package dialogue

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/wolfman30/leadchat/internal/catalog"
	"github.com/wolfman30/leadchat/internal/lexicon"
)

// Tier names which rule produced a service match.
type Tier string

const (
	TierNone     Tier = ""
	TierExact    Tier = "exact"
	TierAllWords Tier = "all_words"
	TierMajority Tier = "majority"
	TierToken    Tier = "fuzzy_token"
	TierMessage  Tier = "fuzzy_message"
)

// Match is a detected service and the tier that found it.
type Match struct {
	Service string
	Tier    Tier
	Score   float64
}

// Found reports whether a service was detected.
func (m Match) Found() bool { return m.Service != "" }

// Matcher scores a message against a service catalog.
type Matcher struct {
	lex *lexicon.Lexicon
}

func NewMatcher(lex *lexicon.Lexicon) *Matcher {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Matcher{lex: lex}
}

// Match returns the best service for message. Tiers are tried in order and
// the first catalog entry reaching a tier wins it.
func (m *Matcher) Match(message string, services []catalog.Service) Match {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" || len(services) == 0 {
		return Match{}
	}
	tokens := tokenize(text)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = struct{}{}
	}

	for _, svc := range services {
		name := strings.ToLower(strings.TrimSpace(svc.Name))
		if name != "" && strings.Contains(text, name) {
			return Match{Service: svc.Name, Tier: TierExact, Score: 3}
		}
	}

	for _, svc := range services {
		words := significantWords(svc.Name)
		if len(words) < 2 {
			continue
		}
		all := true
		for _, w := range words {
			if !strings.Contains(text, w) {
				all = false
				break
			}
		}
		if all {
			return Match{Service: svc.Name, Tier: TierAllWords, Score: 2}
		}
	}

	for _, svc := range services {
		words := significantWords(svc.Name)
		if len(words) == 0 {
			continue
		}
		hits := 0
		for _, w := range words {
			if _, ok := tokenSet[w]; ok {
				hits++
			}
		}
		if hits >= (len(words)+1)/2 {
			return Match{Service: svc.Name, Tier: TierMajority, Score: 1}
		}
	}

	return m.fuzzy(text, tokens, services)
}

func (m *Matcher) fuzzy(text string, tokens []string, services []catalog.Service) Match {
	candidates := m.contentTokens(tokens)
	for _, svc := range services {
		name := strings.ToLower(strings.TrimSpace(svc.Name))
		for _, tok := range candidates {
			if score := Similarity(tok, name); score >= m.lex.TokenSimilarity {
				return Match{Service: svc.Name, Tier: TierToken, Score: score}
			}
		}
	}

	best := Match{}
	for _, svc := range services {
		score := Similarity(text, strings.ToLower(strings.TrimSpace(svc.Name)))
		if score > best.Score {
			best = Match{Service: svc.Name, Tier: TierMessage, Score: score}
		}
	}
	if best.Found() && best.Score >= m.lex.MessageSimilarity {
		return best
	}
	return Match{}
}

// MatchFAQ returns the FAQ whose question best overlaps the message, if the
// overlap clears the message similarity threshold.
func (m *Matcher) MatchFAQ(message string, faqs []catalog.FAQ) (catalog.FAQ, bool) {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return catalog.FAQ{}, false
	}
	msgTokens := make(map[string]struct{})
	for _, tok := range m.contentTokens(tokenize(text)) {
		msgTokens[tok] = struct{}{}
	}

	var (
		best      catalog.FAQ
		bestScore float64
	)
	for _, faq := range faqs {
		question := strings.ToLower(strings.TrimSpace(faq.Question))
		if question == "" || strings.TrimSpace(faq.Answer) == "" {
			continue
		}
		score := Similarity(text, question)
		if qTokens := m.contentTokens(tokenize(question)); len(qTokens) > 0 {
			hits := 0
			for _, tok := range qTokens {
				if _, ok := msgTokens[tok]; ok {
					hits++
				}
			}
			if overlap := float64(hits) / float64(len(qTokens)); overlap > score {
				score = overlap
			}
		}
		if score > bestScore {
			best, bestScore = faq, score
		}
	}
	if bestScore >= m.lex.MessageSimilarity {
		return best, true
	}
	return catalog.FAQ{}, false
}

// contentTokens drops stopwords and tokens shorter than the minimum length.
func (m *Matcher) contentTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < m.lex.MinTokenLength || m.lex.IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Similarity is 1 - levenshtein(a,b)/max(len(a),len(b)), in [0,1].
func Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// significantWords are the lower-cased name words longer than two runes.
func significantWords(name string) []string {
	var out []string
	for _, w := range tokenize(strings.ToLower(name)) {
		if utf8.RuneCountInString(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}
