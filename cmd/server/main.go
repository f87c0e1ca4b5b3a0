package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mr-mark-a/messagecaller/internal/auth"
	"github.com/mr-mark-a/messagecaller/internal/config"
	"github.com/mr-mark-a/messagecaller/internal/dispatch"
	"github.com/mr-mark-a/messagecaller/internal/logging"
	"github.com/mr-mark-a/messagecaller/internal/metrics"
	"github.com/mr-mark-a/messagecaller/internal/notify"
	"github.com/mr-mark-a/messagecaller/internal/server"
	"github.com/mr-mark-a/messagecaller/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	flagSet := pflag.NewFlagSet("messagecaller", pflag.ContinueOnError)
	flagSet.IntVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP listen port (env PORT)")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (env LOG_LEVEL)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if err := config.ValidateLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	log, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if cfg.GeneratedSecret {
		log.Warn("MASTER_SECRET not set; using a random secret, tokens will not survive a restart")
	}

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	notifier := notify.NewAsync(notify.LogSender{Log: log.Named("notify")}, cfg.NotifyBuffer, log)
	notifier.OnResult = m.RecordNotification
	go notifier.Run(ctx)

	loop := dispatch.New(cfg.EventBuffer)
	go loop.Run(ctx)

	router := server.NewRouter(server.Deps{
		Store: store.New(),
		TokenConfig: auth.TokenConfig{
			Secret: cfg.MasterSecret,
			Expiry: cfg.TokenExpiry,
			Issuer: "messagecaller",
		},
		Loop:        loop,
		Logger:      log,
		Registry:    reg,
		Metrics:     m,
		Notifier:    notifier,
		SendQueue:   cfg.SendQueue,
		LookupLimit: cfg.LookupLimit,
	})

	if err := server.Run(ctx, cfg, router, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("stopped")
	return nil
}
