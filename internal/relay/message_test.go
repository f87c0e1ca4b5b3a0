package relay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mr-mark-a/messagecaller/internal/codec"
	"github.com/mr-mark-a/messagecaller/internal/model"
)

func TestSendMessageScenario(t *testing.T) {
	f := newFixture(t)
	f.connect("alice", "bob")
	f.register("alice", "1234", "Alice")
	f.register("bob", "5678", "Bob")
	f.out.reset()

	f.relay.SendMessage("alice", "5678", "hi")

	sent := f.out.named("alice", EventMessageSent)
	require.Len(t, sent, 1)
	received := f.out.named("bob", EventMessageReceived)
	require.Len(t, received, 1)
	msg := received[0].body.(model.Message)
	require.Equal(t, "1234", msg.From)
	require.Equal(t, "5678", msg.To)
	require.Equal(t, "hi", msg.Text)
	require.Equal(t, sent[0].body, received[0].body)

	ab, err := f.relay.History("1234", "5678")
	require.NoError(t, err)
	ba, err := f.relay.History("5678", "1234")
	require.NoError(t, err)
	require.Equal(t, []model.Message{msg}, ab)
	require.Equal(t, ab, ba)

	f.relay.GetChatHistory("bob", "1234")
	hist := f.out.named("bob", EventChatHistory)
	require.Len(t, hist, 1)
	body := hist[0].body.(chatHistoryPayload)
	require.Equal(t, "1234", body.With)
	require.Equal(t, []model.Message{msg}, body.Messages)
}

func TestSendToUnknownRecipient(t *testing.T) {
	f := newFixture(t)
	f.connect("alice")
	f.register("alice", "1234", "Alice")

	f.relay.SendMessage("alice", "9999", "hi")

	requireError(t, f.out, "alice", "recipient_not_found")
	require.Equal(t, 0, f.store.Conversations())
	require.Empty(t, f.out.named("alice", EventMessageSent))
}

func TestSendRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	f.connect("anon", "bob")
	f.register("bob", "5678", "Bob")

	f.relay.SendMessage("anon", "5678", "hi")
	requireError(t, f.out, "anon", "not_authenticated")

	f.relay.GetChatHistory("anon", "5678")
	require.Empty(t, f.out.named("anon", EventChatHistory))
	require.Equal(t, 0, f.store.Conversations())
}

func TestSendRejectsEmptyText(t *testing.T) {
	f := newFixture(t)
	f.connect("alice", "bob")
	f.register("alice", "1234", "Alice")
	f.register("bob", "5678", "Bob")

	f.relay.SendMessage("alice", "5678", "")
	requireError(t, f.out, "alice", "empty_message")
	require.Equal(t, 0, f.store.Conversations())
}

func TestSendToOfflineRecipientIsStillStored(t *testing.T) {
	f := newFixture(t)
	f.connect("alice", "bob")
	f.register("alice", "1234", "Alice")
	f.register("bob", "5678", "Bob")
	f.relay.Disconnect("bob")

	f.relay.SendMessage("alice", "5678", "are you there?")

	require.Len(t, f.out.named("alice", EventMessageSent), 1)
	require.Empty(t, f.out.named("bob", EventMessageReceived))

	f.connect("bob2")
	f.register("bob2", "5678", "")
	f.relay.GetChatHistory("bob2", "1234")
	hist := f.out.named("bob2", EventChatHistory)
	require.Len(t, hist, 1)
	require.Len(t, hist[0].body.(chatHistoryPayload).Messages, 1)
}

func TestNotificationOnlyWithEmail(t *testing.T) {
	f := newFixture(t)
	f.connect("alice", "bob")
	f.register("alice", "1234", "Alice")
	f.relay.Register("bob", RegisterRequest{Number: "5678", Profile: model.Profile{Nickname: "Bob", Email: "bob@example.com"}})

	f.relay.SendMessage("bob", "1234", "no email here")
	require.Empty(t, f.notes.got)

	f.relay.SendMessage("alice", "5678", "hi Bob")
	require.Len(t, f.notes.got, 1)
	note := f.notes.got[0]
	require.Equal(t, "bob@example.com", note.To)
	require.Equal(t, "1234", note.From)
	require.Equal(t, "Alice", note.FromName)
	require.Equal(t, codec.Format("hi Bob"), note.Body)
	decoded, err := codec.Decode(strings.Fields(note.Body))
	require.NoError(t, err)
	require.Equal(t, "hi Bob", decoded)

	// offline recipients are notified as well
	f.relay.Disconnect("bob")
	f.relay.SendMessage("alice", "5678", "again")
	require.Len(t, f.notes.got, 2)
}

func TestHistoryForUnknownRequester(t *testing.T) {
	f := newFixture(t)
	_, err := f.relay.History("1234", "5678")
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
