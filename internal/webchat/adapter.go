package webchat

import (
	"time"

	"github.com/wolfman30/leadchat/internal/chat"
	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/internal/dialogue"
	"github.com/wolfman30/leadchat/internal/session"
)

func replyFrame(reply dialogue.Reply) OutboundFrame {
	return OutboundFrame{
		Type:            FrameMessage,
		Role:            string(session.RoleAssistant),
		Text:            reply.Response,
		DetectedService: reply.DetectedService,
		QuestionType:    reply.QuestionType,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

// historyFrame replays a stored session with contact details redacted.
func historyFrame(sess *session.Session, guard *contact.Guard) OutboundFrame {
	view := chat.NewSessionView(sess, guard)
	return OutboundFrame{Type: FrameHistory, SessionID: sess.ID, Messages: view.Messages}
}

func errorFrame(text string) OutboundFrame {
	return OutboundFrame{Type: FrameError, Text: text}
}
