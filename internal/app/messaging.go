package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"rentmatch/internal/domain"
)

// DefaultPreviewLen bounds the last-message preview, in runes.
const DefaultPreviewLen = 80

// ThreadView is the derived message view for an approved negotiation: the
// thread itself, the unread count relative to the negotiation's last status
// change, and a bounded preview of the most recent message.
type ThreadView struct {
	Messages    []domain.Message
	UnreadCount int
	LastMessage string
}

// MessagingSync loads a negotiation's thread on demand and derives the unread
// view. It never polls; callers re-invoke it when the negotiation's status or
// the screen's visibility changes, and repeated loads are idempotent.
type MessagingSync struct {
	transport  domain.MessagingTransport
	previewLen int
	log        zerolog.Logger
}

func NewMessagingSync(t domain.MessagingTransport, log zerolog.Logger) *MessagingSync {
	return &MessagingSync{transport: t, previewLen: DefaultPreviewLen, log: log}
}

// Load fetches the thread for an approved negotiation and derives the view
// for userID. Messaging is gated on approval; any other status is a caller
// error, not a transport failure.
func (m *MessagingSync) Load(ctx context.Context, n domain.Negotiation, userID int64) (ThreadView, error) {
	if n.Status != domain.StatusApproved {
		return ThreadView{}, &domain.ValidationError{Field: "status", Reason: "messaging requires an approved negotiation"}
	}
	msgs, err := m.transport.LoadThread(ctx, n.ID)
	if err != nil {
		return ThreadView{}, &domain.CollaboratorError{Op: "messaging.LoadThread", Err: err}
	}
	return DeriveThread(n, msgs, userID, m.previewLen), nil
}

// Send appends a message to an approved negotiation's thread.
func (m *MessagingSync) Send(ctx context.Context, n domain.Negotiation, senderID int64, body string) (domain.Message, error) {
	if n.Status != domain.StatusApproved {
		return domain.Message{}, &domain.ValidationError{Field: "status", Reason: "messaging requires an approved negotiation"}
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Message{}, &domain.ValidationError{Field: "body", Reason: "empty message"}
	}
	msg, err := m.transport.Send(ctx, n.ID, senderID, body)
	if err != nil {
		return domain.Message{}, &domain.CollaboratorError{Op: "messaging.Send", Err: err}
	}
	return msg, nil
}

// DeriveThread computes the unread count and preview. Unread means addressed
// to userID and sent strictly after the negotiation's UpdatedAt. The preview
// is the most-recently-sent body, ties broken by insertion order, truncated
// to previewLen runes.
func DeriveThread(n domain.Negotiation, msgs []domain.Message, userID int64, previewLen int) ThreadView {
	view := ThreadView{Messages: msgs}
	lastIdx := -1
	for i, msg := range msgs {
		if msg.RecipientID == userID && msg.SentAt.After(n.UpdatedAt) {
			view.UnreadCount++
		}
		if lastIdx < 0 || !msg.SentAt.Before(msgs[lastIdx].SentAt) {
			lastIdx = i
		}
	}
	if lastIdx >= 0 {
		view.LastMessage = truncate(msgs[lastIdx].Body, previewLen)
	}
	return view
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
