package socketio

import (
	"encoding/json"
	"fmt"

	"github.com/mr-mark-a/messagecaller/internal/model"
	"github.com/mr-mark-a/messagecaller/internal/relay"
)

// eventHandler decodes the arguments of one client event and applies it. A
// returned error is reported back to the client.
type eventHandler func(sessionID string, args []json.RawMessage) error

func (s *Server) eventHandlers() map[string]eventHandler {
	return map[string]eventHandler{
		"register":        s.onRegister,
		"approveSignIn":   s.onApproveSignIn,
		"denySignIn":      s.onDenySignIn,
		"updateProfile":   s.onUpdateProfile,
		"getUserByNumber": s.onGetUserByNumber,
		"sendMessage":     s.onSendMessage,
		"getChatHistory":  s.onGetChatHistory,
		"initiateCall":    s.onInitiateCall,
		"answerCall":      s.onAnswerCall,
		"iceCandidate":    s.onICECandidate,
		"endCall":         s.onEndCall,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", relay.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func decodeArg(args []json.RawMessage, v any) error {
	if len(args) < 1 {
		return invalid("missing payload")
	}
	if err := json.Unmarshal(args[0], v); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// stringArg accepts either a bare string or an object carrying field.
func stringArg(args []json.RawMessage, field string) (string, error) {
	if len(args) < 1 {
		return "", invalid("missing payload")
	}
	var v string
	if json.Unmarshal(args[0], &v) == nil {
		return v, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(args[0], &obj); err != nil {
		return "", invalid("%v", err)
	}
	raw, ok := obj[field]
	if !ok || json.Unmarshal(raw, &v) != nil {
		return "", invalid("missing %s", field)
	}
	return v, nil
}

type registerPayload struct {
	Number string `json:"number"`
	model.Profile
}

func (s *Server) onRegister(sessionID string, args []json.RawMessage) error {
	var body registerPayload
	if err := decodeArg(args, &body); err != nil {
		return err
	}
	s.relay.Register(sessionID, relay.RegisterRequest{Number: body.Number, Profile: body.Profile})
	return nil
}

func (s *Server) onApproveSignIn(sessionID string, args []json.RawMessage) error {
	id, err := stringArg(args, "requestId")
	if err != nil {
		return err
	}
	s.relay.ApproveSignIn(sessionID, id)
	return nil
}

func (s *Server) onDenySignIn(sessionID string, args []json.RawMessage) error {
	id, err := stringArg(args, "requestId")
	if err != nil {
		return err
	}
	s.relay.DenySignIn(sessionID, id)
	return nil
}

func (s *Server) onUpdateProfile(sessionID string, args []json.RawMessage) error {
	var patch model.ProfilePatch
	if err := decodeArg(args, &patch); err != nil {
		return err
	}
	s.relay.UpdateProfile(sessionID, patch)
	return nil
}

func (s *Server) onGetUserByNumber(sessionID string, args []json.RawMessage) error {
	number, err := stringArg(args, "number")
	if err != nil {
		return err
	}
	s.relay.GetUserByNumber(sessionID, number)
	return nil
}

func (s *Server) onSendMessage(sessionID string, args []json.RawMessage) error {
	var body struct {
		To   string `json:"to"`
		Text string `json:"text"`
	}
	if err := decodeArg(args, &body); err != nil {
		return err
	}
	s.relay.SendMessage(sessionID, body.To, body.Text)
	return nil
}

func (s *Server) onGetChatHistory(sessionID string, args []json.RawMessage) error {
	with, err := stringArg(args, "with")
	if err != nil {
		return err
	}
	s.relay.GetChatHistory(sessionID, with)
	return nil
}

type callPayload struct {
	To        string          `json:"to"`
	Offer     json.RawMessage `json:"offer"`
	Answer    json.RawMessage `json:"answer"`
	Candidate json.RawMessage `json:"candidate"`
}

func decodeCall(args []json.RawMessage) (callPayload, error) {
	var body callPayload
	if err := decodeArg(args, &body); err != nil {
		return body, err
	}
	if body.To == "" {
		return body, invalid("missing to")
	}
	return body, nil
}

func (s *Server) onInitiateCall(sessionID string, args []json.RawMessage) error {
	body, err := decodeCall(args)
	if err != nil {
		return err
	}
	s.relay.InitiateCall(sessionID, body.To, body.Offer)
	return nil
}

func (s *Server) onAnswerCall(sessionID string, args []json.RawMessage) error {
	body, err := decodeCall(args)
	if err != nil {
		return err
	}
	s.relay.AnswerCall(sessionID, body.To, body.Answer)
	return nil
}

func (s *Server) onICECandidate(sessionID string, args []json.RawMessage) error {
	body, err := decodeCall(args)
	if err != nil {
		return err
	}
	s.relay.ICECandidate(sessionID, body.To, body.Candidate)
	return nil
}

func (s *Server) onEndCall(sessionID string, args []json.RawMessage) error {
	to, err := stringArg(args, "to")
	if err != nil {
		return err
	}
	if to == "" {
		return invalid("missing to")
	}
	s.relay.EndCall(sessionID, to)
	return nil
}
