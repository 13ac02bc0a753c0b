// Package dialogue turns one inbound chat message into session state changes
// and a templated reply.
package dialogue

import (
	"strings"

	"github.com/wolfman30/leadchat/internal/lexicon"
	"github.com/wolfman30/leadchat/internal/session"
)

// Classifier maps a message to a question type by keyword containment.
type Classifier struct {
	lex *lexicon.Lexicon
}

func NewClassifier(lex *lexicon.Lexicon) *Classifier {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Classifier{lex: lex}
}

// Classify returns the first intent, in lexicon priority order, with any
// keyword contained in the lower-cased message.
func (c *Classifier) Classify(message string) session.QuestionType {
	text := strings.ToLower(message)
	if strings.TrimSpace(text) == "" {
		return session.QuestionNone
	}
	for _, intent := range c.lex.Intents {
		for _, kw := range intent.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return session.QuestionType(intent.Name)
			}
		}
	}
	return session.QuestionNone
}
