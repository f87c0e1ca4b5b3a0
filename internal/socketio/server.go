// Package socketio serves the engine.io v4 / socket.io v5 websocket
// transport and feeds client events into the relay through the dispatch
// loop.
package socketio

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mr-mark-a/messagecaller/internal/dispatch"
	"github.com/mr-mark-a/messagecaller/internal/hub"
	"github.com/mr-mark-a/messagecaller/internal/metrics"
	"github.com/mr-mark-a/messagecaller/internal/relay"
)

const (
	maxPayload       int64         = 1000000
	writeTimeout     time.Duration = 10 * time.Second
	pingInterval     time.Duration = 25 * time.Second
	pingTimeout      time.Duration = 20 * time.Second
	defaultQueueSize               = 64
)

type Deps struct {
	Relay   *relay.Relay
	Loop    *dispatch.Loop
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// QueueSize bounds the outbound frames buffered per connection.
	QueueSize int
}

type Server struct {
	relay     *relay.Relay
	loop      *dispatch.Loop
	log       *zap.Logger
	metrics   *metrics.Metrics
	queueSize int

	upgrader websocket.Upgrader
	handlers map[string]eventHandler
}

func NewServer(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		relay:     deps.Relay,
		loop:      deps.Loop,
		log:       log.Named("socketio"),
		metrics:   deps.Metrics,
		queueSize: deps.QueueSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.handlers = s.eventHandlers()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", zap.Error(err))
		return
	}
	ws.SetReadLimit(maxPayload)

	c := newConn(ws, s.queueSize)
	go c.writeLoop()
	defer s.disconnect(c)

	open := map[string]any{
		"sid":          c.sid,
		"upgrades":     []string{},
		"pingInterval": pingInterval.Milliseconds(),
		"pingTimeout":  pingTimeout.Milliseconds(),
		"maxPayload":   maxPayload,
	}
	openBytes, _ := json.Marshal(open)
	if err := c.Write(append([]byte{byte(engineOpen)}, openBytes...)); err != nil {
		return
	}

	go c.pingLoop()
	c.readLoop(func(msg string) {
		s.handleMessage(c, msg)
	})
}

func (s *Server) disconnect(c *conn) {
	c.close()
	if !c.connected.Load() {
		return
	}
	s.loop.Submit(func() {
		s.relay.Disconnect(c.sid)
	})
}

func (s *Server) handleMessage(c *conn, msg string) {
	if msg == "" {
		return
	}

	switch enginePacketType(msg[0]) {
	case enginePong:
		c.markPong()
	case enginePing:
		_ = c.Write([]byte(string(enginePong) + msg[1:]))
	case engineMessage:
		s.handleSocketPayload(c, msg[1:])
	case engineClose:
		c.close()
	}
}

func (s *Server) handleSocketPayload(c *conn, payload string) {
	if payload == "" {
		return
	}

	switch socketPacketType(payload[0]) {
	case socketConnect:
		s.handleConnect(c)
	case socketDisconnect:
		c.close()
	case socketEvent:
		s.handleEvent(c, payload)
	}
}

// handleConnect admits the socket. Identity is established later by the
// register event, so no auth payload is required.
func (s *Server) handleConnect(c *conn) {
	if c.connected.Swap(true) {
		return
	}
	s.loop.Submit(func() {
		s.relay.Connect(&hub.Connection{ID: c.sid, Writer: c})
		packet, err := buildSocketConnectPacket("/", c.sid)
		if err != nil {
			return
		}
		_ = c.Write(messageFrame(packet))
	})
}

func (s *Server) handleEvent(c *conn, payload string) {
	if !c.connected.Load() {
		return
	}

	pkt, err := parseSocketEventPacket(payload)
	if err != nil {
		s.log.Debug("malformed event", zap.String("session", c.sid), zap.Error(err))
		return
	}

	if pkt.Event == "ping" {
		if pkt.ID != nil {
			s.ack(c, pkt)
		}
		return
	}

	h, ok := s.handlers[pkt.Event]
	if !ok {
		s.log.Debug("unknown event", zap.String("session", c.sid), zap.String("event", pkt.Event))
		return
	}

	s.loop.Submit(func() {
		start := time.Now()
		if err := h(c.sid, pkt.Args); err != nil {
			s.relay.Fail(c.sid, err)
		}
		s.metrics.ObserveEvent(pkt.Event, time.Since(start))
		if pkt.ID != nil {
			s.ack(c, pkt)
		}
	})
}

func (s *Server) ack(c *conn, pkt socketEventPacket) {
	packet, err := buildSocketAckPacket(pkt.Namespace, *pkt.ID)
	if err != nil {
		return
	}
	_ = c.Write(messageFrame(packet))
}
