package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mr-mark-a/messagecaller/internal/arbiter"
	"github.com/mr-mark-a/messagecaller/internal/auth"
	"github.com/mr-mark-a/messagecaller/internal/dispatch"
	"github.com/mr-mark-a/messagecaller/internal/handler"
	"github.com/mr-mark-a/messagecaller/internal/hub"
	"github.com/mr-mark-a/messagecaller/internal/metrics"
	"github.com/mr-mark-a/messagecaller/internal/middleware"
	"github.com/mr-mark-a/messagecaller/internal/notify"
	"github.com/mr-mark-a/messagecaller/internal/relay"
	"github.com/mr-mark-a/messagecaller/internal/socketio"
	"github.com/mr-mark-a/messagecaller/internal/store"
)

type Deps struct {
	Store       *store.Store
	TokenConfig auth.TokenConfig
	// Loop must be running for sockets and REST reads to make progress.
	Loop     *dispatch.Loop
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Notifier notify.Notifier
	// SendQueue bounds buffered outbound frames per connection.
	SendQueue int
	// LookupLimit caps directory lookups per client IP per minute; 0 disables it.
	LookupLimit int
}

func NewRouter(deps Deps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New(reg)
	}
	st := deps.Store
	if st == nil {
		st = store.New()
	}

	sessions := hub.New()
	rel := relay.New(relay.Deps{
		Store:      st,
		Sessions:   sessions,
		Arbiter:    arbiter.New(),
		Outbox:     socketio.NewOutbox(sessions, log),
		Notifier:   deps.Notifier,
		IssueToken: auth.Issuer(deps.TokenConfig),
		Logger:     log.Named("relay"),
		Metrics:    m,
	})
	sio := socketio.NewServer(socketio.Deps{
		Relay:     rel,
		Loop:      deps.Loop,
		Logger:    log,
		Metrics:   m,
		QueueSize: deps.SendQueue,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log.Named("http")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	r.GET("/socket.io/*any", gin.WrapH(sio))

	userHandler := &handler.UserHandler{Relay: rel, Loop: deps.Loop}
	lookup := []gin.HandlerFunc{}
	if deps.LookupLimit > 0 {
		lookup = append(lookup, middleware.RateLimitMiddleware(middleware.NewRateLimiter(deps.LookupLimit, time.Minute)))
	}
	r.GET("/v1/users/:number", append(lookup, userHandler.Get)...)

	// SessionLive reads a single component, so it is safe off the loop.
	protected := r.Group("/v1")
	protected.Use(middleware.RequireAuth(deps.TokenConfig, rel.SessionLive))

	accountHandler := &handler.AccountHandler{Relay: rel, Loop: deps.Loop}
	protected.GET("/account/profile", accountHandler.Profile)

	chatHandler := &handler.ChatHandler{Relay: rel, Loop: deps.Loop}
	protected.GET("/chats/:number/messages", chatHandler.Messages)

	return r
}
