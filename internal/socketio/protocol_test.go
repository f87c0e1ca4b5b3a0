package socketio

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mr-mark-a/messagecaller/internal/hub"
	"github.com/mr-mark-a/messagecaller/internal/relay"
)

func TestParseSocketEventPacket(t *testing.T) {
	pkt, err := parseSocketEventPacket(`212["sendMessage",{"to":"5678","text":"hi"}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pkt.Namespace != "/" || pkt.ID == nil || *pkt.ID != 12 || pkt.Event != "sendMessage" {
		t.Fatalf("unexpected packet: %+v", pkt)
	}
	if len(pkt.Args) != 1 {
		t.Fatalf("args = %d", len(pkt.Args))
	}

	pkt, err = parseSocketEventPacket(`2/chat,["ping"]`)
	if err != nil {
		t.Fatalf("parse namespaced: %v", err)
	}
	if pkt.Namespace != "/chat" || pkt.ID != nil || pkt.Event != "ping" {
		t.Fatalf("unexpected packet: %+v", pkt)
	}
}

func TestParseSocketEventPacketRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"", "0{}", "2", "2{}", "2[]", "2[1]", `2[""]`, "2[oops"} {
		if _, err := parseSocketEventPacket(payload); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestBuildPackets(t *testing.T) {
	ev, err := buildSocketEventPacket("/", "registered", map[string]string{"number": "1234"})
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev != `2["registered",{"number":"1234"}]` {
		t.Fatalf("event = %s", ev)
	}

	connect, err := buildSocketConnectPacket("/", "abc")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if connect != `0{"sid":"abc"}` {
		t.Fatalf("connect = %s", connect)
	}

	ack, err := buildSocketAckPacket("/admin", 7)
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	if ack != "3/admin,7[]" {
		t.Fatalf("ack = %s", ack)
	}
}

func TestEncodeEvent(t *testing.T) {
	frame, err := encodeEvent("error", map[string]string{"message": "Not registered"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(frame) != `42["error",{"message":"Not registered"}]` {
		t.Fatalf("frame = %s", frame)
	}
}

func TestStringArg(t *testing.T) {
	args := []json.RawMessage{json.RawMessage(`"1234"`)}
	if v, err := stringArg(args, "number"); err != nil || v != "1234" {
		t.Fatalf("bare string: %q %v", v, err)
	}

	args = []json.RawMessage{json.RawMessage(`{"number":"5678"}`)}
	if v, err := stringArg(args, "number"); err != nil || v != "5678" {
		t.Fatalf("object: %q %v", v, err)
	}

	for _, raw := range []string{`{}`, `{"number":5}`, `12`} {
		_, err := stringArg([]json.RawMessage{json.RawMessage(raw)}, "number")
		if !errors.Is(err, relay.ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", raw, err)
		}
	}
	if _, err := stringArg(nil, "number"); !errors.Is(err, relay.ErrInvalidRequest) {
		t.Fatalf("missing: %v", err)
	}
}

func TestDecodeCallRequiresTarget(t *testing.T) {
	_, err := decodeCall([]json.RawMessage{json.RawMessage(`{"offer":{}}`)})
	if !errors.Is(err, relay.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	body, err := decodeCall([]json.RawMessage{json.RawMessage(`{"to":"1234","offer":{"sdp":"x"}}`)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.To != "1234" || string(body.Offer) != `{"sdp":"x"}` {
		t.Fatalf("unexpected body: %+v", body)
	}
}

type bufferWriter struct {
	frames [][]byte
	closed bool
}

func (w *bufferWriter) Write(frame []byte) error {
	w.frames = append(w.frames, frame)
	return nil
}

func (w *bufferWriter) Close() error {
	w.closed = true
	return nil
}

func TestOutboxEmit(t *testing.T) {
	h := hub.New()
	w := &bufferWriter{}
	h.Register(&hub.Connection{ID: "c1", Writer: w})
	out := NewOutbox(h, nil)

	if !out.Emit("c1", "userNotFound", map[string]string{"number": "9999"}) {
		t.Fatalf("expected delivery")
	}
	if out.Emit("missing", "userNotFound", nil) {
		t.Fatalf("expected no delivery to unknown connection")
	}
	if len(w.frames) != 1 || string(w.frames[0]) != `42["userNotFound",{"number":"9999"}]` {
		t.Fatalf("frames = %q", w.frames)
	}
	if out.Emit("c1", "bad", make(chan int)) {
		t.Fatalf("expected unencodable body to fail")
	}
}
