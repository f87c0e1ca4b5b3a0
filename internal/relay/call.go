package relay

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mr-mark-a/messagecaller/internal/model"
)

// Call signaling is forwarded as-is to the target's live session. Nothing is
// recorded and nothing checks that an answer follows an offer.

type incomingCallPayload struct {
	From   string           `json:"from"`
	Caller model.PublicUser `json:"caller"`
	Offer  json.RawMessage  `json:"offer"`
}

type callAnsweredPayload struct {
	From   string          `json:"from"`
	Answer json.RawMessage `json:"answer"`
}

type iceCandidatePayload struct {
	From      string          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}

type callEndedPayload struct {
	From string `json:"from"`
}

func (r *Relay) InitiateCall(sessionID, to string, offer json.RawMessage) {
	r.forward(sessionID, model.CallOffer, to, EventIncomingCall, func(caller model.User) any {
		return incomingCallPayload{From: caller.Number, Caller: caller.Public(), Offer: offer}
	})
}

func (r *Relay) AnswerCall(sessionID, to string, answer json.RawMessage) {
	r.forward(sessionID, model.CallAnswer, to, EventCallAnswered, func(caller model.User) any {
		return callAnsweredPayload{From: caller.Number, Answer: answer}
	})
}

func (r *Relay) ICECandidate(sessionID, to string, candidate json.RawMessage) {
	r.forward(sessionID, model.CallICECandidate, to, EventICECandidate, func(caller model.User) any {
		return iceCandidatePayload{From: caller.Number, Candidate: candidate}
	})
}

func (r *Relay) EndCall(sessionID, to string) {
	r.forward(sessionID, model.CallEnd, to, EventCallEnded, func(caller model.User) any {
		return callEndedPayload{From: caller.Number}
	})
}

// forward delivers a signal to the live session of to, dropping it silently
// when to is unknown or offline.
func (r *Relay) forward(sessionID string, kind model.CallSignalKind, to, event string, body func(caller model.User) any) {
	from, ok := r.sessions.UserFor(sessionID)
	if !ok {
		r.Fail(sessionID, ErrNotAuthenticated)
		return
	}
	caller, ok := r.store.User(from)
	if !ok {
		r.Fail(sessionID, ErrNotAuthenticated)
		return
	}

	target, ok := r.store.User(to)
	if !ok || target.SessionID == "" || !r.out.Emit(target.SessionID, event, body(caller)) {
		r.metrics.RecordCallSignal(string(kind), "dropped")
		r.log.Debug("call signal dropped", zap.String("kind", string(kind)), zap.String("from", from), zap.String("to", to))
		return
	}
	r.metrics.RecordCallSignal(string(kind), "forwarded")
}
