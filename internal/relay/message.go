package relay

import (
	"go.uber.org/zap"

	"github.com/mr-mark-a/messagecaller/internal/codec"
	"github.com/mr-mark-a/messagecaller/internal/model"
	"github.com/mr-mark-a/messagecaller/internal/notify"
)

type chatHistoryPayload struct {
	With     string          `json:"with"`
	Messages []model.Message `json:"messages"`
}

// SendMessage appends text to the conversation between the caller and to,
// acknowledges the caller and pushes the message to the recipient if it is
// online.
func (r *Relay) SendMessage(sessionID, to, text string) {
	if _, err := r.send(sessionID, to, text); err != nil {
		r.Fail(sessionID, err)
	}
}

func (r *Relay) send(sessionID, to, text string) (model.Message, error) {
	from, ok := r.sessions.UserFor(sessionID)
	if !ok {
		return model.Message{}, ErrNotAuthenticated
	}
	if text == "" {
		return model.Message{}, ErrEmptyMessage
	}
	recipient, ok := r.store.User(to)
	if !ok {
		return model.Message{}, ErrRecipientNotFound
	}

	msg := r.store.AppendMessage(model.Message{
		From:      from,
		To:        to,
		Text:      text,
		Timestamp: r.nowMillis(),
	})
	r.out.Emit(sessionID, EventMessageSent, msg)

	delivery := "offline"
	if recipient.SessionID != "" && r.out.Emit(recipient.SessionID, EventMessageReceived, msg) {
		delivery = "online"
	}
	r.metrics.RecordMessage(delivery)
	r.log.Debug("message relayed", zap.String("from", from), zap.String("to", to), zap.String("delivery", delivery))

	if recipient.Email != "" {
		r.notifyRecipient(recipient, msg)
	}
	return msg, nil
}

func (r *Relay) notifyRecipient(recipient model.User, msg model.Message) {
	fromName := msg.From
	if sender, ok := r.store.User(msg.From); ok && sender.Nickname != "" {
		fromName = sender.Nickname
	}
	r.notifier.Notify(notify.Notification{
		To:        recipient.Email,
		From:      msg.From,
		FromName:  fromName,
		Body:      codec.Format(msg.Text),
		CreatedAt: msg.Timestamp,
	})
}

// GetChatHistory sends the caller its full conversation with target.
func (r *Relay) GetChatHistory(sessionID, target string) {
	requester, ok := r.sessions.UserFor(sessionID)
	if !ok {
		r.Fail(sessionID, ErrNotAuthenticated)
		return
	}
	r.out.Emit(sessionID, EventChatHistory, chatHistoryPayload{
		With:     target,
		Messages: r.store.History(requester, target),
	})
}

// History returns the conversation between requester and target.
func (r *Relay) History(requester, target string) ([]model.Message, error) {
	if _, ok := r.store.User(requester); !ok {
		return nil, ErrNotAuthenticated
	}
	return r.store.History(requester, target), nil
}
