package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr-mark-a/messagecaller/internal/dispatch"
	"github.com/mr-mark-a/messagecaller/internal/hub"
	"github.com/mr-mark-a/messagecaller/internal/model"
	"github.com/mr-mark-a/messagecaller/internal/relay"
	"github.com/mr-mark-a/messagecaller/internal/store"
)

type nopOutbox struct{}

func (nopOutbox) Emit(string, string, any) bool { return true }

type nopWriter struct{}

func (nopWriter) Write([]byte) error { return nil }
func (nopWriter) Close() error       { return nil }

type testEnv struct {
	relay *relay.Relay
	loop  *dispatch.Loop
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := hub.New()
	r := relay.New(relay.Deps{Store: store.New(), Sessions: h, Outbox: nopOutbox{}})

	loop := dispatch.New(8)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)

	for _, c := range []struct{ session, number, nick string }{
		{"c1", "1234", "Alice"},
		{"c2", "5678", "Bob"},
	} {
		r.Connect(&hub.Connection{ID: c.session, Writer: nopWriter{}})
		r.Register(c.session, relay.RegisterRequest{Number: c.number, Profile: model.Profile{Nickname: c.nick, Email: c.nick + "@example.com"}})
	}
	r.SendMessage("c1", "5678", "hi")
	return &testEnv{relay: r, loop: loop}
}

// withUser stands in for RequireAuth.
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func get(t *testing.T, r http.Handler, path string, out any) int {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return w.Code
}

func TestUserHandlerGet(t *testing.T) {
	env := newTestEnv(t)
	h := &UserHandler{Relay: env.relay, Loop: env.loop}
	r := gin.New()
	r.GET("/v1/users/:number", h.Get)

	var body map[string]map[string]any
	if code := get(t, r, "/v1/users/1234", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["user"]["nickname"] != "Alice" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, leaked := body["user"]["email"]; leaked {
		t.Fatalf("email must not be exposed: %v", body)
	}

	if code := get(t, r, "/v1/users/9999", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if code := get(t, r, "/v1/users/12", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAccountHandlerProfile(t *testing.T) {
	env := newTestEnv(t)
	h := &AccountHandler{Relay: env.relay, Loop: env.loop}
	r := gin.New()
	r.GET("/me", withUser("5678"), h.Profile)
	r.GET("/anon", h.Profile)

	var body profileResponse
	if code := get(t, r, "/me", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Number != "5678" || body.Nickname != "Bob" || body.Email != "Bob@example.com" || body.CreatedAt == 0 {
		t.Fatalf("unexpected profile: %+v", body)
	}

	if code := get(t, r, "/anon", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestChatHandlerMessages(t *testing.T) {
	env := newTestEnv(t)
	h := &ChatHandler{Relay: env.relay, Loop: env.loop}
	r := gin.New()
	r.GET("/as/:user/chats/:number", func(c *gin.Context) {
		c.Set("userID", c.Param("user"))
	}, h.Messages)

	var body struct {
		With     string          `json:"with"`
		Messages []model.Message `json:"messages"`
	}
	if code := get(t, r, "/as/5678/chats/1234", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.With != "1234" || len(body.Messages) != 1 || body.Messages[0].Text != "hi" {
		t.Fatalf("unexpected history: %+v", body)
	}

	var empty map[string]any
	if code := get(t, r, "/as/5678/chats/0000", &empty); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if msgs, ok := empty["messages"].([]any); !ok || len(msgs) != 0 {
		t.Fatalf("expected an empty list, got %v", empty["messages"])
	}
}

func TestHandlersAfterLoopStopped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	loop := dispatch.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loop.Run(ctx)

	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop")
	}

	h := &UserHandler{Relay: relay.New(relay.Deps{Store: store.New(), Sessions: hub.New(), Outbox: nopOutbox{}}), Loop: loop}
	r := gin.New()
	r.GET("/v1/users/:number", h.Get)
	if code := get(t, r, "/v1/users/1234", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
}
