// Package relay implements the client-facing operations: registration and
// sign-in hand-off, profile updates, directory lookups, message relay and
// call signaling. Every exported event method is expected to run on the
// dispatch loop; results are pushed to connections through the Outbox.
package relay

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mr-mark-a/messagecaller/internal/arbiter"
	"github.com/mr-mark-a/messagecaller/internal/hub"
	"github.com/mr-mark-a/messagecaller/internal/metrics"
	"github.com/mr-mark-a/messagecaller/internal/model"
	"github.com/mr-mark-a/messagecaller/internal/notify"
	"github.com/mr-mark-a/messagecaller/internal/store"
)

const (
	EventRegistered            = "registered"
	EventAwaitingAuthorization = "awaitingAuthorization"
	EventSignInRequest         = "signInRequest"
	EventSignInApproved        = "signInApproved"
	EventSignInDenied          = "signInDenied"
	EventProfileUpdated        = "profileUpdated"
	EventUserFound             = "userFound"
	EventUserNotFound          = "userNotFound"
	EventMessageSent           = "messageSent"
	EventMessageReceived       = "messageReceived"
	EventChatHistory           = "chatHistory"
	EventIncomingCall          = "incomingCall"
	EventCallAnswered          = "callAnswered"
	EventICECandidate          = "iceCandidate"
	EventCallEnded             = "callEnded"
	EventError                 = "error"
)

var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrEmptyMessage      = errors.New("empty message")
	ErrInvalidRequest    = errors.New("invalid request")
)

// Outbox pushes an event to one connection. It reports whether the
// connection was there to receive it.
type Outbox interface {
	Emit(sessionID, event string, body any) bool
}

// TokenIssuer mints a bearer token for a number bound to a session.
type TokenIssuer func(userID, sessionID string) (string, error)

type Deps struct {
	Store      *store.Store
	Sessions   *hub.Hub
	Arbiter    *arbiter.Arbiter
	Outbox     Outbox
	Notifier   notify.Notifier
	IssueToken TokenIssuer
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

type Relay struct {
	store      *store.Store
	sessions   *hub.Hub
	arbiter    *arbiter.Arbiter
	out        Outbox
	notifier   notify.Notifier
	issueToken TokenIssuer
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func New(deps Deps) *Relay {
	r := &Relay{
		store:      deps.Store,
		sessions:   deps.Sessions,
		arbiter:    deps.Arbiter,
		out:        deps.Outbox,
		notifier:   deps.Notifier,
		issueToken: deps.IssueToken,
		log:        deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Now,
	}
	if r.arbiter == nil {
		r.arbiter = arbiter.New()
	}
	if r.notifier == nil {
		r.notifier = notify.Discard{}
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

type profilePayload struct {
	Number string `json:"number"`
	model.Profile
	Token string `json:"token,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (r *Relay) nowMillis() int64 {
	return r.now().UnixMilli()
}

func (r *Relay) emitProfile(sessionID, event string, u model.User, withToken bool) {
	body := profilePayload{Number: u.Number, Profile: u.Profile}
	if withToken && r.issueToken != nil {
		tok, err := r.issueToken(u.Number, sessionID)
		if err != nil {
			r.log.Error("token creation failed", zap.String("number", u.Number), zap.Error(err))
		} else {
			body.Token = tok
		}
	}
	r.out.Emit(sessionID, event, body)
}

// Fail reports err to the connection as an error event.
func (r *Relay) Fail(sessionID string, err error) {
	code, msg := describe(err)
	r.metrics.RecordError(code)
	r.log.Debug("client error", zap.String("session", sessionID), zap.String("code", code), zap.Error(err))
	r.out.Emit(sessionID, EventError, errorPayload{Message: msg, Code: code})
}

func describe(err error) (code, message string) {
	switch {
	case errors.Is(err, store.ErrInvalidIdentifier):
		return "invalid_identifier", "Number must be exactly 4 digits"
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated", "Not registered"
	case errors.Is(err, ErrRecipientNotFound):
		return "recipient_not_found", "Recipient not found"
	case errors.Is(err, store.ErrNotFound):
		return "not_found", "User not found"
	case errors.Is(err, ErrEmptyMessage):
		return "empty_message", "Message text is required"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request", "Invalid request"
	default:
		return "internal", "Internal error"
	}
}

func (r *Relay) updateGauges() {
	r.metrics.SetLiveSessions(r.sessions.Bound())
	r.metrics.SetPendingSignIns(r.arbiter.Len())
}

// LookupUser returns the public profile for number.
func (r *Relay) LookupUser(number string) (model.PublicUser, error) {
	u, ok := r.store.PublicUser(number)
	if !ok {
		return model.PublicUser{}, store.ErrNotFound
	}
	return u, nil
}

// Profile returns the full profile of number.
func (r *Relay) Profile(number string) (model.User, error) {
	u, ok := r.store.User(number)
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return u, nil
}

// SessionLive reports whether sessionID is the live session of number.
func (r *Relay) SessionLive(number, sessionID string) bool {
	u, ok := r.store.User(number)
	return ok && sessionID != "" && u.SessionID == sessionID
}
