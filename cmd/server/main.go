// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

// Command server runs the OpenChain recommendation API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Frank-whw/OpenChain/internal/api"
	"github.com/Frank-whw/OpenChain/internal/config"
	"github.com/Frank-whw/OpenChain/internal/logging"
	"github.com/Frank-whw/OpenChain/internal/provider"
	"github.com/Frank-whw/OpenChain/internal/recommend"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	log := logging.Logger()

	metricsProvider, err := provider.New(cfg.Provider, log)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build metrics provider")
	}
	defer metricsProvider.Close()

	engine, err := recommend.NewEngine(cfg.Recommend, metricsProvider, log)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build recommendation engine")
	}

	router := api.NewRouter(api.NewHandler(engine, version), cfg.Router)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("version", version).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
