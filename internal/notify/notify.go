// Package notify delivers offline notifications for new messages. Delivery
// is fire-and-forget: callers enqueue and never wait.
package notify

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

type Notification struct {
	To        string
	From      string
	FromName  string
	Body      string
	CreatedAt int64
}

// Notifier accepts notifications without blocking.
type Notifier interface {
	Notify(n Notification) bool
}

// Sender performs the actual delivery.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log instead of an external channel.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, n Notification) error {
	s.Log.Info("notification",
		zap.String("to", n.To),
		zap.String("from", n.From),
		zap.String("fromName", n.FromName),
		zap.String("body", n.Body),
	)
	return nil
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Notification) bool { return false }

type Stats struct {
	Queued  int64
	Dropped int64
	Sent    int64
	Failed  int64
}

// Async queues notifications for a single background worker. A full queue
// drops the notification.
type Async struct {
	sender Sender
	log    *zap.Logger
	queue  chan Notification

	// OnResult, if set, is called with "queued", "dropped", "sent" or "failed".
	OnResult func(result string)

	queued, dropped, sent, failed atomic.Int64
}

func NewAsync(sender Sender, buffer int, log *zap.Logger) *Async {
	if buffer <= 0 {
		buffer = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Async{
		sender: sender,
		log:    log,
		queue:  make(chan Notification, buffer),
	}
}

func (a *Async) Notify(n Notification) bool {
	select {
	case a.queue <- n:
		a.queued.Add(1)
		a.record("queued")
		return true
	default:
		a.dropped.Add(1)
		a.record("dropped")
		a.log.Warn("notification queue full, dropping", zap.String("to", n.To))
		return false
	}
}

// Run delivers queued notifications until ctx is cancelled.
func (a *Async) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-a.queue:
			if err := a.sender.Send(ctx, n); err != nil {
				a.failed.Add(1)
				a.record("failed")
				a.log.Warn("notification failed", zap.String("to", n.To), zap.Error(err))
				continue
			}
			a.sent.Add(1)
			a.record("sent")
		}
	}
}

func (a *Async) Stats() Stats {
	return Stats{
		Queued:  a.queued.Load(),
		Dropped: a.dropped.Load(),
		Sent:    a.sent.Load(),
		Failed:  a.failed.Load(),
	}
}

func (a *Async) record(result string) {
	if a.OnResult != nil {
		a.OnResult(result)
	}
}
