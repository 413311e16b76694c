// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/apisketch/services/sketch"
	"github.com/AleutianAI/apisketch/services/sketch/config"
	"github.com/AleutianAI/apisketch/services/sketch/extract"
	"github.com/AleutianAI/apisketch/services/sketch/synthesis"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	port      int
	engineURL string
	debug     bool
}

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve extraction and synthesis over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 8080, "port to listen on")
	cmd.Flags().StringVar(&opts.engineURL, "engine-url", "", "synthesis engine base URL (overrides config)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "gin debug mode and request logging")
	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *rootOptions, opts *serveOptions) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, rootOpts)
	if err != nil {
		return err
	}
	if opts.engineURL != "" {
		cfg.Synthesis.EngineURL = opts.engineURL
	}

	router, err := newRouter(cfg, opts.debug)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting sketch server", slog.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down sketch server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter wires the extractor, the optional synthesis service and the
// HTTP middleware.
func newRouter(cfg *config.ExtractorConfig, debug bool) (*gin.Engine, error) {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	x, err := extract.NewExtractor(cfg, extract.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}

	var svc *synthesis.Service
	if cfg.Synthesis.EngineURL != "" {
		engine, err := synthesis.NewHTTPEngine(cfg.Synthesis)
		if err != nil {
			return nil, err
		}
		svc, err = synthesis.NewService(engine,
			synthesis.WithTimeout(cfg.Synthesis.Timeout),
			synthesis.WithTypeCacheSize(cfg.Synthesis.TypeCacheSize),
			synthesis.WithLogger(slog.Default()),
		)
		if err != nil {
			return nil, err
		}
		slog.Info("Synthesis engine configured", slog.String("engine_url", cfg.Synthesis.EngineURL))
	} else {
		slog.Warn("No synthesis engine configured, /v1/sketch/synthesize will return 503")
	}

	handlers, err := sketch.NewHandlers(x, svc)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aleutian-sketch"))
	if debug {
		router.Use(gin.Logger())
	}

	sketch.RegisterRoutes(router.Group("/v1"), handlers)
	sketch.RegisterMetrics(router)
	return router, nil
}
