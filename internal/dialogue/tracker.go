package dialogue

import (
	"time"

	"github.com/wolfman30/leadchat/internal/catalog"
	"github.com/wolfman30/leadchat/internal/lexicon"
	"github.com/wolfman30/leadchat/internal/session"
)

// Turn is what the tracker learned from one user message.
type Turn struct {
	// Message is the tagged user history entry appended to the session.
	Message     session.Message
	Intent      session.QuestionType
	Match       Match
	Affirmative bool
}

// Tracker folds one user message into a session's dialogue state.
type Tracker struct {
	lex        *lexicon.Lexicon
	classifier *Classifier
	matcher    *Matcher
	now        func() time.Time
}

func NewTracker(lex *lexicon.Lexicon, classifier *Classifier, matcher *Matcher) *Tracker {
	if lex == nil {
		lex = lexicon.Default()
	}
	if classifier == nil {
		classifier = NewClassifier(lex)
	}
	if matcher == nil {
		matcher = NewMatcher(lex)
	}
	return &Tracker{
		lex:        lex,
		classifier: classifier,
		matcher:    matcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Process mutates s in place and returns the turn summary. Callers own s
// exclusively for the duration of the call.
func (t *Tracker) Process(s *session.Session, message string, services []catalog.Service) Turn {
	now := t.now()

	if s.LastQuestion != session.QuestionNone && s.LastQuestion != "" && t.lex.IsAffirmative(message) {
		previous := s.LastQuestion
		s.LastQuestion = session.QuestionBooking
		msg := session.Message{
			Role:             session.RoleUser,
			Content:          message,
			Timestamp:        now,
			ServiceContext:   s.CurrentService,
			QuestionType:     session.QuestionBooking,
			WasAffirmative:   true,
			PreviousQuestion: previous,
		}
		s.Messages = append(s.Messages, msg)
		return Turn{Message: msg, Intent: session.QuestionBooking, Affirmative: true}
	}

	intent := t.classifier.Classify(message)
	match := t.matcher.Match(message, services)

	if s.MentionedServices == nil {
		s.MentionedServices = map[string]bool{}
	}
	if s.ServiceContext == nil {
		s.ServiceContext = map[string]session.ServiceContext{}
	}

	if match.Found() {
		s.CurrentService = match.Service
		s.MentionedServices[match.Service] = true
		sc := s.ServiceContext[match.Service]
		sc.LastDiscussedAt = now
		s.ServiceContext[match.Service] = sc
	}

	if intent != session.QuestionNone {
		s.LastQuestion = intent
		if s.CurrentService != "" {
			sc := s.ServiceContext[s.CurrentService]
			switch intent {
			case session.QuestionPrice:
				sc.PriceAsked = true
			case session.QuestionIntroduction:
				sc.IntroductionGiven = true
			case session.QuestionTimeline:
				sc.TimelineDiscussed = true
			case session.QuestionBooking:
				sc.BookingAttempted = true
			}
			sc.LastDiscussedAt = now
			s.ServiceContext[s.CurrentService] = sc
		}
	}

	msg := session.Message{
		Role:           session.RoleUser,
		Content:        message,
		Timestamp:      now,
		ServiceContext: match.Service,
		QuestionType:   intent,
	}
	s.Messages = append(s.Messages, msg)
	return Turn{Message: msg, Intent: intent, Match: match}
}
