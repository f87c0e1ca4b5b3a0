package socketio

import (
	"go.uber.org/zap"

	"github.com/mr-mark-a/messagecaller/internal/hub"
)

// Outbox encodes relay events as socket.io frames and hands them to the
// registered connection.
type Outbox struct {
	hub *hub.Hub
	log *zap.Logger
}

func NewOutbox(h *hub.Hub, log *zap.Logger) *Outbox {
	if log == nil {
		log = zap.NewNop()
	}
	return &Outbox{hub: h, log: log}
}

func (o *Outbox) Emit(sessionID, event string, body any) bool {
	frame, err := encodeEvent(event, body)
	if err != nil {
		o.log.Error("encode event", zap.String("event", event), zap.Error(err))
		return false
	}
	if !o.hub.Send(sessionID, frame) {
		o.log.Debug("event not delivered", zap.String("event", event), zap.String("session", sessionID))
		return false
	}
	return true
}
