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
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/apisketch/services/sketch/config"
	"github.com/AleutianAI/apisketch/services/sketch/corpus"
	badgerstore "github.com/AleutianAI/apisketch/services/sketch/storage/badger"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool
	trace      bool
}

// boundFlags holds the enumeration flags shared by extract and enumerate.
type boundFlags struct {
	maxSequences int
	maxLength    int
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sketch",
		Short:         "Extract API-usage sketches from Java sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			if opts.trace {
				shutdown, err := installTracer(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				cobra.OnFinalize(shutdown)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file layered over the built-in defaults")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "print OpenTelemetry spans to stderr")

	cmd.AddCommand(newExtractCommand(opts))
	cmd.AddCommand(newEnumerateCommand(opts))
	cmd.AddCommand(newCorpusCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	return cmd
}

// loadConfig loads the config file or the defaults, then applies SKETCH_*
// environment overrides.
func loadConfig(ctx context.Context, opts *rootOptions) (*config.ExtractorConfig, error) {
	var (
		cfg *config.ExtractorConfig
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadExtractorConfigFile(ctx, opts.configPath)
	} else {
		cfg, err = config.DefaultExtractorConfig(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b *boundFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&b.maxSequences, "max-sequences", config.DefaultMaxSequences, "cap on live sequences per IR")
	cmd.Flags().IntVar(&b.maxLength, "max-length", config.DefaultMaxLength, "cap on calls per sequence")
}

// apply copies explicitly set flags into cfg.
func (b *boundFlags) apply(cmd *cobra.Command, cfg *config.ExtractorConfig) {
	if cmd.Flags().Changed("max-sequences") {
		cfg.MaxSequences = b.maxSequences
	}
	if cmd.Flags().Changed("max-length") {
		cfg.MaxLength = b.maxLength
	}
}

// openStore opens the corpus store rooted at path.
func openStore(path string) (*corpus.Store, *badgerstore.DB, error) {
	dbCfg := badgerstore.DefaultConfig()
	if path != "" {
		dbCfg.Path = path
	}
	if dbCfg.Path == "" {
		return nil, nil, fmt.Errorf("no corpus store path and no home directory")
	}
	db, err := badgerstore.OpenDB(dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening corpus store: %w", err)
	}
	store, err := corpus.NewStore(db, slog.Default())
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func closeDB(db *badgerstore.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("Failed to close corpus store", slog.String("error", err.Error()))
	}
}

// installTracer exports spans to w and returns a function that flushes
// them.
func installTracer(w io.Writer) (func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Warn("Failed to flush traces", slog.String("error", err.Error()))
		}
	}, nil
}
