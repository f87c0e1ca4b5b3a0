package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	connections    prometheus.Gauge
	liveSessions   prometheus.Gauge
	pendingSignIns prometheus.Gauge
	registrations  *prometheus.CounterVec
	signIns        *prometheus.CounterVec
	messages       *prometheus.CounterVec
	callSignals    *prometheus.CounterVec
	errors         *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	eventLatency   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "messagecaller_connections_active",
			Help: "Current number of open socket connections.",
		}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "messagecaller_sessions_live",
			Help: "Connections currently signed in as a number.",
		}),
		pendingSignIns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "messagecaller_signin_requests_pending",
			Help: "Sign-in requests waiting for the current owner to answer.",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagecaller_registrations_total",
			Help: "Register events grouped by outcome.",
		}, []string{"outcome"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagecaller_signin_resolutions_total",
			Help: "Sign-in requests resolved, grouped by result.",
		}, []string{"result"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagecaller_messages_total",
			Help: "Messages appended, grouped by recipient presence.",
		}, []string{"delivery"}),
		callSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagecaller_call_signals_total",
			Help: "Call signaling events grouped by kind and result.",
		}, []string{"kind", "result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagecaller_errors_total",
			Help: "Errors reported to clients grouped by code.",
		}, []string{"code"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagecaller_notifications_total",
			Help: "Offline notifications grouped by result.",
		}, []string{"result"}),
		eventLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "messagecaller_event_latency_seconds",
			Help:    "Time spent handling a client event on the dispatch loop.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"event"}),
	}

	reg.MustRegister(
		m.connections,
		m.liveSessions,
		m.pendingSignIns,
		m.registrations,
		m.signIns,
		m.messages,
		m.callSignals,
		m.errors,
		m.notifications,
		m.eventLatency,
	)
	return m
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *Metrics) SetLiveSessions(n int) {
	if m == nil {
		return
	}
	m.liveSessions.Set(float64(n))
}

func (m *Metrics) SetPendingSignIns(n int) {
	if m == nil {
		return
	}
	m.pendingSignIns.Set(float64(n))
}

func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSignIn(result string) {
	if m == nil {
		return
	}
	m.signIns.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordMessage(delivery string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(delivery).Inc()
}

func (m *Metrics) RecordCallSignal(kind, result string) {
	if m == nil {
		return
	}
	m.callSignals.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.errors.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveEvent(event string, dur time.Duration) {
	if m == nil || event == "" {
		return
	}
	m.eventLatency.WithLabelValues(event).Observe(dur.Seconds())
}
