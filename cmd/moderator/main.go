package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/whisper/chat-moderation/internal/config"
	"github.com/whisper/chat-moderation/internal/escalation"
	"github.com/whisper/chat-moderation/internal/logging"
	"github.com/whisper/chat-moderation/internal/matcher"
	"github.com/whisper/chat-moderation/internal/messaging"
	"github.com/whisper/chat-moderation/internal/metrics"
	"github.com/whisper/chat-moderation/internal/moderator"
	"github.com/whisper/chat-moderation/internal/offense"
	"github.com/whisper/chat-moderation/internal/sanitize"
)

func main() {
	boot := logging.New("info", "text")
	cfg, err := config.Load(boot)
	if err != nil {
		boot.WithError(err).Fatal("failed to load configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithField("component", "main")
	log.Info("Starting moderation service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Offense store.
	store, err := offense.Open(ctx, cfg.Store, logger)
	if err != nil {
		log.WithError(err).Fatal("failed to open offense store")
	}
	engine := escalation.New(store, logger)

	// Matcher.
	m := matcher.New(matcher.Config{
		LUTPath:       cfg.LUTPath,
		LexiconPath:   cfg.LexiconPath,
		FallbackTerms: cfg.FallbackTerms,
	}, logger)
	if cfg.WatchLUT {
		go func() {
			if err := m.Watch(ctx); err != nil {
				log.WithError(err).Warn("lookup table watcher stopped")
			}
		}()
	}

	// Sanitizer: basic tier now, composite once the word list is read.
	basic := sanitize.NewBasic(cfg.SanitizerMask)
	san := sanitize.NewTiered(basic, cfg.SanitizerMask)
	if cfg.SanitizerWords != "" {
		go san.LoadWordList(cfg.SanitizerWords, logger.WithField("component", "sanitize"))
	}

	svc := moderator.New(m, engine, san, logger, moderator.WithSanitizeNotice(cfg.SanitizeNotice))

	// NATS setup.
	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.URL = cfg.NATSURL
	natsConfig.Name = "moderator"

	natsClient, err := messaging.NewNATSClient(natsConfig, logger)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to NATS")
	}
	if err := svc.Register(ctx, natsClient, m); err != nil {
		log.WithError(err).Fatal("failed to subscribe to moderation subjects")
	}

	// Metrics.
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	stats := m.Stats()
	log.WithFields(logrus.Fields{
		"store":        cfg.Store.Backend,
		"nats_url":     natsConfig.URL,
		"metrics_addr": cfg.MetricsAddr,
		"match_mode":   stats.Mode,
		"lut_path":     cfg.LUTPath,
		"sanitizer":    san.Tier(),
	}).Info("Moderation service running")

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.WithField("signal", sig.String()).Info("shutting down...")

	cancel()
	natsClient.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("metrics server shutdown")
	}
	if err := store.Close(); err != nil {
		log.WithError(err).Warn("offense store close")
	}
}
