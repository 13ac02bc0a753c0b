// Package lexicon holds the keyword tables that drive intent classification,
// service matching, and PII heuristics. Tables are data only; the matching
// logic lives in the dialogue and contact packages.
package lexicon

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Version identifies the built-in table revision.
const Version = "2024.1"

// Intent names. The order of Lexicon.Intents decides classification priority.
const (
	IntentPrice        = "price"
	IntentIntroduction = "introduction"
	IntentTimeline     = "timeline"
	IntentBooking      = "booking"
	IntentContact      = "contact"
)

var (
	ErrEmptyIntents   = errors.New("lexicon: at least one intent is required")
	ErrUnknownIntent  = errors.New("lexicon: unknown intent")
	ErrBadThreshold   = errors.New("lexicon: similarity thresholds must be within (0,1]")
	ErrBadTokenLength = errors.New("lexicon: min token length must be positive")
)

// IntentKeywords lists the substrings that signal one intent.
type IntentKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Lexicon is the versioned configuration table injected into the classifier,
// matcher, and PII guard.
type Lexicon struct {
	Version string `yaml:"version"`

	Intents []IntentKeywords `yaml:"intents"`

	Stopwords      []string `yaml:"stopwords"`
	MinTokenLength int      `yaml:"min_token_length"`

	// Similarity thresholds for the fuzzy tier of service matching.
	TokenSimilarity   float64 `yaml:"token_similarity"`
	MessageSimilarity float64 `yaml:"message_similarity"`

	Affirmatives       []string `yaml:"affirmatives"`
	EnthusiasmMarkers  []string `yaml:"enthusiasm_markers"`
	ContactKeywords    []string `yaml:"contact_keywords"`
	ShortMessageLength int      `yaml:"short_message_length"`

	once           sync.Once
	stopwordSet    map[string]struct{}
	affirmativeSet map[string]struct{}
}

// Default returns the built-in table.
func Default() *Lexicon {
	lx := &Lexicon{
		Version: Version,
		Intents: []IntentKeywords{
			{Name: IntentPrice, Keywords: []string{"price", "cost", "how much", "pricing", "fees", "charge", "expensive", "afford", "rates", "quote"}},
			{Name: IntentIntroduction, Keywords: []string{"what is", "what's", "tell me about", "explain", "information", "details", "describe", "how does", "learn more"}},
			{Name: IntentTimeline, Keywords: []string{"how long", "duration", "timeline", "recovery", "take to", "weeks", "days", "turnaround"}},
			{Name: IntentBooking, Keywords: []string{"book", "appointment", "schedule", "consultation", "available", "availability", "reserve", "slot"}},
			{Name: IntentContact, Keywords: []string{"contact", "call", "phone", "email", "reach", "talk to", "speak"}},
		},
		Stopwords: []string{
			"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had", "her", "was", "one",
			"our", "out", "has", "have", "his", "how", "its", "may", "new", "now", "see", "who", "did", "get",
			"him", "let", "say", "she", "too", "use", "what", "whats", "what's", "when", "where", "which",
			"with", "would", "could", "should", "about", "your", "this", "that", "there", "their", "them",
			"they", "then", "than", "from", "into", "just", "like", "want", "need", "much", "does", "some",
			"more", "also", "very", "will", "know", "tell", "please", "thanks", "thank", "hello", "hey",
			"yes", "price", "cost",
		},
		MinTokenLength:     3,
		TokenSimilarity:    0.8,
		MessageSimilarity:  0.6,
		Affirmatives:       []string{"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "please", "yes please", "sure thing", "definitely", "absolutely", "of course", "sounds good", "let's do it", "go ahead"},
		EnthusiasmMarkers:  []string{"interested", "keen on", "love to", "sign me up", "want to try", "sounds great"},
		ContactKeywords:    []string{"email", "e-mail", "phone", "call", "contact", "address", "text me", "reach me", "mobile", "cell"},
		ShortMessageLength: 35,
	}
	lx.once.Do(lx.index)
	return lx
}

// Load reads a YAML table from path. Fields left empty in the file keep the
// built-in values.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML table layered over Default.
func Parse(data []byte) (*Lexicon, error) {
	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("lexicon: decode: %w", err)
	}

	lx := Default()
	if override.Version != "" {
		lx.Version = override.Version
	}
	if len(override.Intents) > 0 {
		lx.Intents = override.Intents
	}
	if len(override.Stopwords) > 0 {
		lx.Stopwords = override.Stopwords
	}
	if override.MinTokenLength != 0 {
		lx.MinTokenLength = override.MinTokenLength
	}
	if override.TokenSimilarity != 0 {
		lx.TokenSimilarity = override.TokenSimilarity
	}
	if override.MessageSimilarity != 0 {
		lx.MessageSimilarity = override.MessageSimilarity
	}
	if len(override.Affirmatives) > 0 {
		lx.Affirmatives = override.Affirmatives
	}
	if len(override.EnthusiasmMarkers) > 0 {
		lx.EnthusiasmMarkers = override.EnthusiasmMarkers
	}
	if len(override.ContactKeywords) > 0 {
		lx.ContactKeywords = override.ContactKeywords
	}
	if override.ShortMessageLength != 0 {
		lx.ShortMessageLength = override.ShortMessageLength
	}

	if err := lx.Validate(); err != nil {
		return nil, err
	}
	// Default already consumed once; rebuild the sets for the overridden lists.
	lx.index()
	return lx, nil
}

// Validate checks the table for values the matchers cannot work with.
func (l *Lexicon) Validate() error {
	if len(l.Intents) == 0 {
		return ErrEmptyIntents
	}
	for _, in := range l.Intents {
		switch in.Name {
		case IntentPrice, IntentIntroduction, IntentTimeline, IntentBooking, IntentContact:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownIntent, in.Name)
		}
	}
	if l.MinTokenLength <= 0 {
		return ErrBadTokenLength
	}
	if l.TokenSimilarity <= 0 || l.TokenSimilarity > 1 || l.MessageSimilarity <= 0 || l.MessageSimilarity > 1 {
		return ErrBadThreshold
	}
	return nil
}

func (l *Lexicon) index() {
	l.stopwordSet = make(map[string]struct{}, len(l.Stopwords))
	for _, w := range l.Stopwords {
		l.stopwordSet[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	l.affirmativeSet = make(map[string]struct{}, len(l.Affirmatives))
	for _, a := range l.Affirmatives {
		l.affirmativeSet[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}
}

// IsStopword reports whether the lower-cased token is a stopword.
func (l *Lexicon) IsStopword(token string) bool {
	l.once.Do(l.index)
	_, ok := l.stopwordSet[token]
	return ok
}

// IsAffirmative reports whether the whole message is exactly an affirmative
// phrase after trimming and lower-casing. Trailing punctuation is ignored.
func (l *Lexicon) IsAffirmative(message string) bool {
	l.once.Do(l.index)
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, ".!")
	_, ok := l.affirmativeSet[normalized]
	return ok
}

// HasEnthusiasm reports whether the text carries an interest marker.
func (l *Lexicon) HasEnthusiasm(text string) bool {
	return containsAny(strings.ToLower(text), l.EnthusiasmMarkers)
}

// HasContactKeyword reports whether the text mentions a contact channel.
func (l *Lexicon) HasContactKeyword(text string) bool {
	return containsAny(strings.ToLower(text), l.ContactKeywords)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}
