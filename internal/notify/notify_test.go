package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type recordingSender struct {
	mu   sync.Mutex
	got  []Notification
	fail bool
}

func (s *recordingSender) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	if s.fail {
		return errors.New("boom")
	}
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met")
}

func TestAsync_DeliversInBackground(t *testing.T) {
	sender := &recordingSender{}
	a := NewAsync(sender, 4, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	if !a.Notify(Notification{To: "bob@example.com", Body: "01"}) {
		t.Fatalf("expected notification queued")
	}
	waitFor(t, func() bool { return sender.count() == 1 })
	waitFor(t, func() bool { return a.Stats().Sent == 1 })
}

func TestAsync_DropsWhenFull(t *testing.T) {
	var results []string
	a := NewAsync(&recordingSender{}, 1, zap.NewNop())
	a.OnResult = func(r string) { results = append(results, r) }

	if !a.Notify(Notification{To: "a"}) {
		t.Fatalf("expected first notification queued")
	}
	if a.Notify(Notification{To: "b"}) {
		t.Fatalf("expected second notification dropped")
	}
	st := a.Stats()
	if st.Queued != 1 || st.Dropped != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if len(results) != 2 || results[0] != "queued" || results[1] != "dropped" {
		t.Fatalf("unexpected results: %v", results)
	}
}

func TestAsync_CountsFailures(t *testing.T) {
	sender := &recordingSender{fail: true}
	a := NewAsync(sender, 2, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.Notify(Notification{To: "a"})
	waitFor(t, func() bool { return a.Stats().Failed == 1 })
}

func TestLogSender(t *testing.T) {
	s := LogSender{Log: zaptest.NewLogger(t)}
	if err := s.Send(context.Background(), Notification{To: "a", Body: "b"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
