package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Wyydra/callbridge/internal/adapter/driven/signaling/memory"
	handler "github.com/Wyydra/callbridge/internal/adapter/driving/http"
	"github.com/Wyydra/callbridge/internal/config"
	"github.com/Wyydra/callbridge/internal/core/service"
	"github.com/Wyydra/callbridge/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	var w io.Writer = os.Stdout
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = zerolog.New(w).With().Timestamp().Caller().Logger()

	var (
		m              *metrics.Metrics
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	transport := memory.NewTransport()
	relay := service.NewNotificationRelay(m)
	dispatcher := service.NewDispatcher(relay, m, cfg.SubscriberQueue)
	invites := service.NewInviteRegistry()

	calls, err := service.NewCallSession(transport, dispatcher, invites, m, cfg.FinishedSessions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create call session")
	}
	transport.SetEventCallback(calls.OnTransportEvent)

	push := service.NewPushService(transport, calls, dispatcher, m)
	h := handler.NewHandler(dispatcher, calls, push, metricsHandler)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: h.NewRouter(),
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	dispatcher.Stop()
	calls.Close()
	log.Info().Msg("Server exited")
}
