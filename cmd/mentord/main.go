// Mentord is the verification daemon. It serves step verification, visual
// feedback, spoken guidance, and procedure storage over HTTP for guided
// session clients.
//
// Configuration comes from a TOML file plus environment overrides; see
// internal/config for the full set of knobs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cyclopsvision/go-mentor/internal/config"
	"github.com/cyclopsvision/go-mentor/internal/log"
	"github.com/cyclopsvision/go-mentor/internal/store"
	"github.com/cyclopsvision/go-mentor/pkg/server"
	"github.com/cyclopsvision/go-mentor/pkg/tts"
	"github.com/cyclopsvision/go-mentor/pkg/vlm"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "mentord.toml", "Path to config TOML")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides config)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Init("info")
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	log.Init(cfg.Logging.Level)
	logger := log.L()

	if *bind != "" {
		cfg.Server.Bind = *bind
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("store open failed", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	vision := vlm.NewClient(
		vlm.WithBaseURL(cfg.VLM.BaseURL),
		vlm.WithAPIKey(cfg.VLM.APIKey),
		vlm.WithVisionModel(cfg.VLM.Model),
		vlm.WithTimeout(cfg.VLMTimeout()),
		vlm.WithLogger(logger),
	)

	var speech tts.Provider
	if cfg.TTS.APIKey != "" {
		sp, err := tts.NewOpenAI(cfg.TTS.APIKey, tts.WithVoice(cfg.TTS.Voice), tts.WithLogger(logger))
		if err != nil {
			logger.Warn("tts disabled", "error", err)
		} else {
			speech = sp
		}
	} else {
		logger.Info("tts disabled, no API key configured")
	}

	srv := server.New(server.Options{
		Store:     st,
		VLM:       vision,
		TTS:       speech,
		RateLimit: cfg.RateLimit(),
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mentord listening", "addr", cfg.Server.Bind, "model", cfg.VLM.Model)
		errCh <- srv.Listen(cfg.Server.Bind)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}
}
