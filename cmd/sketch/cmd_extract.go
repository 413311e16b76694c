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
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/apisketch/services/sketch/extract"
)

type extractOptions struct {
	output      string
	storePath   string
	useStore    bool
	changedOnly bool
	workers     int
	indent      bool
	bounds      boundFlags
}

func newExtractCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract training documents from Java files and directories",
		Long: `Extract walks the given files and directories, builds the API-usage IR of
every class, enumerates its call sequences and writes one JSON array of
documents to the output.

With --store, documents are also kept in a local corpus and files whose
content has not changed since the last run are not parsed again: their
stored documents are written instead, so the output is always complete.
Add --changed-only to write only the documents of new or changed files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output file, s3://bucket/key, or - for stdout")
	cmd.Flags().StringVar(&opts.storePath, "store", "", "corpus store directory (enables incremental extraction)")
	cmd.Flags().BoolVar(&opts.useStore, "incremental", false, "use the default corpus store when --store is not set")
	cmd.Flags().BoolVar(&opts.changedOnly, "changed-only", false, "with a store, omit documents of unchanged files from the output")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel file workers (0 = config or NumCPU)")
	cmd.Flags().BoolVar(&opts.indent, "indent", false, "pretty-print documents")
	opts.bounds.register(cmd)
	return cmd
}

func runExtract(cmd *cobra.Command, rootOpts *rootOptions, opts *extractOptions, args []string) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, rootOpts)
	if err != nil {
		return err
	}
	opts.bounds.apply(cmd, cfg)
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.workers
	}

	xopts := []extract.ExtractorOption{extract.WithLogger(slog.Default())}
	if opts.storePath != "" || opts.useStore {
		store, db, err := openStore(opts.storePath)
		if err != nil {
			return err
		}
		defer closeDB(db)
		xopts = append(xopts, extract.WithStore(store))
		if !opts.changedOnly {
			xopts = append(xopts, extract.WithReplay())
		}
	}

	x, err := extract.NewExtractor(cfg, xopts...)
	if err != nil {
		return err
	}

	out, err := openOutput(ctx, opts.output, cmd.OutOrStdout(), cfg.S3)
	if err != nil {
		return err
	}
	em := extract.NewEmitter(out, emitterOptions(opts.indent, opts.output)...)

	_, runErr := x.Run(ctx, args, em)
	if runErr == nil {
		runErr = em.Close()
	}
	if runErr != nil {
		out.Abort(runErr)
		return runErr
	}
	return out.Close()
}

// cmdContext returns the command's context, or Background when run
// without one.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
