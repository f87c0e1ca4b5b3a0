package socketio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	errConnClosed = errors.New("connection closed")
	errQueueFull  = errors.New("outbound queue full")
)

// conn is one engine.io websocket session. Reads happen on the goroutine
// serving the upgrade; writes are queued and drained by writeLoop so that a
// slow peer never blocks the dispatch loop.
type conn struct {
	ws  *websocket.Conn
	sid string

	connected atomic.Bool
	namespace string

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	pingMu       sync.Mutex
	awaitingPong bool
	pingSentAt   time.Time
	nextPingAt   time.Time
}

func newConn(ws *websocket.Conn, queue int) *conn {
	if queue <= 0 {
		queue = defaultQueueSize
	}
	return &conn{
		ws:         ws,
		sid:        uuid.NewString(),
		namespace:  "/",
		out:        make(chan []byte, queue),
		done:       make(chan struct{}),
		nextPingAt: time.Now().Add(pingInterval),
	}
}

// Write queues a frame. It never blocks: a full queue is reported as an
// error and the caller is expected to close the connection.
func (c *conn) Write(frame []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.out <- frame:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		return errQueueFull
	}
}

func (c *conn) Close() error {
	c.close()
	return nil
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *conn) writeLoop() {
	defer c.close()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.out:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}

func (c *conn) readLoop(onMessage func(string)) {
	defer c.close()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		onMessage(string(data))
	}
}

func (c *conn) pingLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.pingMu.Lock()
			if c.awaitingPong && now.Sub(c.pingSentAt) > pingTimeout {
				c.pingMu.Unlock()
				c.close()
				return
			}
			send := !c.awaitingPong && !now.Before(c.nextPingAt)
			if send {
				c.awaitingPong = true
				c.pingSentAt = now
				c.nextPingAt = now.Add(pingInterval)
			}
			c.pingMu.Unlock()
			if send && c.Write([]byte{byte(enginePing)}) != nil {
				c.close()
				return
			}
		}
	}
}

func (c *conn) markPong() {
	c.pingMu.Lock()
	c.awaitingPong = false
	c.pingMu.Unlock()
}
