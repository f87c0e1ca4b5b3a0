package relay

import (
	"errors"

	"go.uber.org/zap"

	"github.com/mr-mark-a/messagecaller/internal/arbiter"
	"github.com/mr-mark-a/messagecaller/internal/hub"
	"github.com/mr-mark-a/messagecaller/internal/model"
	"github.com/mr-mark-a/messagecaller/internal/store"
)

type RegisterRequest struct {
	Number  string
	Profile model.Profile
}

type signInPayload struct {
	RequestID string `json:"requestId"`
	Number    string `json:"number"`
}

// Register claims req.Number for sessionID. A number bound to another live
// connection opens a sign-in request instead of binding.
func (r *Relay) Register(sessionID string, req RegisterRequest) {
	if !r.sessions.Connected(sessionID) {
		return
	}
	if !store.ValidIdentifier(req.Number) {
		r.metrics.RecordRegistration("invalid")
		r.Fail(sessionID, store.ErrInvalidIdentifier)
		return
	}

	if current, ok := r.sessions.UserFor(sessionID); ok {
		if current == req.Number {
			u, _ := r.store.User(current)
			r.emitProfile(sessionID, EventRegistered, u, true)
			return
		}
		r.release(sessionID)
	}

	now := r.nowMillis()
	u, created, err := r.store.CreateOrBind(req.Number, req.Profile, sessionID, now)
	if errors.Is(err, store.ErrIdentityConflict) {
		if r.sessions.Connected(u.SessionID) {
			r.openSignIn(sessionID, u)
			return
		}
		// the recorded live session has no connection behind it
		u, err = r.store.Rebind(req.Number, u.SessionID, sessionID, now)
	}
	if err != nil {
		r.Fail(sessionID, err)
		return
	}

	outcome := "resumed"
	if created {
		outcome = "created"
	}
	r.sessions.Bind(sessionID, u.Number)
	r.metrics.RecordRegistration(outcome)
	r.updateGauges()
	r.log.Info("registered", zap.String("number", u.Number), zap.String("session", sessionID), zap.String("outcome", outcome))
	r.emitProfile(sessionID, EventRegistered, u, true)
}

func (r *Relay) openSignIn(sessionID string, owner model.User) {
	req := r.arbiter.Open(owner.Number, sessionID)
	r.metrics.RecordRegistration("conflict")
	r.updateGauges()
	r.log.Info("sign-in requested",
		zap.String("number", owner.Number),
		zap.String("requestId", req.ID),
		zap.String("requester", sessionID),
		zap.String("owner", owner.SessionID),
	)

	body := signInPayload{RequestID: req.ID, Number: owner.Number}
	r.out.Emit(owner.SessionID, EventSignInRequest, body)
	r.out.Emit(sessionID, EventAwaitingAuthorization, body)
}

// authorizes reports whether sessionID may answer sign-in requests for u.
func (r *Relay) authorizes(sessionID string, u model.User) bool {
	if sessionID == "" {
		return false
	}
	if u.SessionID == sessionID {
		return true
	}
	owner, ok := r.sessions.UserFor(sessionID)
	return ok && owner == u.Number
}

// pendingFor returns the request if sessionID may resolve it. Unknown or
// unauthorized requests are logged and ignored.
func (r *Relay) pendingFor(sessionID, requestID, action string) (arbiter.Request, model.User, bool) {
	req, ok := r.arbiter.Get(requestID)
	if !ok {
		r.metrics.RecordSignIn("ignored")
		r.log.Debug("unknown sign-in request", zap.String("action", action), zap.String("requestId", requestID), zap.String("session", sessionID))
		return arbiter.Request{}, model.User{}, false
	}
	u, ok := r.store.User(req.Target)
	if !ok || !r.authorizes(sessionID, u) {
		r.metrics.RecordSignIn("ignored")
		r.log.Warn("unauthorized sign-in answer", zap.String("action", action), zap.String("requestId", requestID), zap.String("session", sessionID))
		return arbiter.Request{}, model.User{}, false
	}
	return req, u, true
}

// ApproveSignIn hands the live session of the requested number over to the
// requesting connection.
func (r *Relay) ApproveSignIn(sessionID, requestID string) {
	req, u, ok := r.pendingFor(sessionID, requestID, "approve")
	if !ok {
		return
	}

	if !r.sessions.Connected(req.RequestingSession) {
		if _, err := r.arbiter.Resolve(req.ID, arbiter.Denied); err == nil {
			r.metrics.RecordSignIn("abandoned")
			r.updateGauges()
		}
		r.log.Info("sign-in requester gone", zap.String("requestId", req.ID))
		return
	}
	if _, err := r.arbiter.Resolve(req.ID, arbiter.Approved); err != nil {
		r.log.Warn("resolve sign-in", zap.String("requestId", req.ID), zap.Error(err))
		return
	}

	if current, bound := r.sessions.UserFor(req.RequestingSession); bound && current != req.Target {
		r.release(req.RequestingSession)
	}

	previous := u.SessionID
	u, err := r.store.Rebind(req.Target, previous, req.RequestingSession, r.nowMillis())
	if err != nil {
		r.log.Error("sign-in hand-off failed", zap.String("requestId", req.ID), zap.Error(err))
		return
	}
	r.sessions.Unbind(previous)
	r.sessions.Bind(req.RequestingSession, req.Target)

	r.metrics.RecordSignIn("approved")
	r.updateGauges()
	r.log.Info("sign-in approved",
		zap.String("number", req.Target),
		zap.String("requestId", req.ID),
		zap.String("from", previous),
		zap.String("to", req.RequestingSession),
	)
	r.emitProfile(req.RequestingSession, EventSignInApproved, u, true)
}

// DenySignIn rejects the request; the current owner stays signed in.
func (r *Relay) DenySignIn(sessionID, requestID string) {
	req, _, ok := r.pendingFor(sessionID, requestID, "deny")
	if !ok {
		return
	}
	if _, err := r.arbiter.Resolve(req.ID, arbiter.Denied); err != nil {
		r.log.Warn("resolve sign-in", zap.String("requestId", req.ID), zap.Error(err))
		return
	}

	r.metrics.RecordSignIn("denied")
	r.updateGauges()
	r.log.Info("sign-in denied", zap.String("number", req.Target), zap.String("requestId", req.ID))
	r.out.Emit(req.RequestingSession, EventSignInDenied, signInPayload{RequestID: req.ID, Number: req.Target})
}

// Connect adds a freshly opened connection to the session registry.
func (r *Relay) Connect(conn *hub.Connection) {
	r.sessions.Register(conn)
	r.metrics.ConnectionOpened()
	r.log.Debug("connected", zap.String("session", conn.ID))
}

// Disconnect drops the connection and clears the live-session reference it
// held. Pending sign-in requests involving it are left in place.
func (r *Relay) Disconnect(sessionID string) {
	if !r.sessions.Connected(sessionID) {
		return
	}
	if number, bound := r.sessions.Unregister(sessionID); bound {
		r.store.Unbind(number, sessionID)
		r.log.Info("signed out", zap.String("number", number), zap.String("session", sessionID))
	}
	r.metrics.ConnectionClosed()
	r.updateGauges()
}

func (r *Relay) release(sessionID string) {
	if number, ok := r.sessions.Unbind(sessionID); ok {
		r.store.Unbind(number, sessionID)
	}
}
