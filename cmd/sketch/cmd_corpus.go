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
	"encoding/json"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/apisketch/services/sketch/corpus"
	"github.com/AleutianAI/apisketch/services/sketch/extract"
)

func newCorpusCommand(rootOpts *rootOptions) *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect and export the local document corpus",
	}
	cmd.PersistentFlags().StringVar(&storePath, "store", "", "corpus store directory (default ~/.aleutian/sketch/corpus)")

	cmd.AddCommand(newCorpusExportCommand(rootOpts, &storePath))
	cmd.AddCommand(newCorpusStatsCommand(&storePath))
	cmd.AddCommand(newCorpusWatchCommand(rootOpts, &storePath))
	return cmd
}

func newCorpusExportCommand(rootOpts *rootOptions, storePath *string) *cobra.Command {
	var (
		output string
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored document as one JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmdContext(cmd)
			cfg, err := loadConfig(ctx, rootOpts)
			if err != nil {
				return err
			}
			store, db, err := openStore(*storePath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			out, err := openOutput(ctx, output, cmd.OutOrStdout(), cfg.S3)
			if err != nil {
				return err
			}
			em := extract.NewEmitter(out, emitterOptions(indent, output)...)

			n, err := store.Export(ctx, em)
			if err == nil {
				err = em.Close()
			}
			if err != nil {
				out.Abort(err)
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			slog.Info("Corpus exported", slog.Int("documents", n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, s3://bucket/key, or - for stdout")
	cmd.Flags().BoolVar(&indent, "indent", false, "pretty-print documents")
	return cmd
}

func newCorpusStatsCommand(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print corpus statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, db, err := openStore(*storePath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			stats, err := store.Stats(cmdContext(cmd))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}

func newCorpusWatchCommand(rootOpts *rootOptions, storePath *string) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Keep the corpus in step with Java sources as they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, rootOpts)
			if err != nil {
				return err
			}
			store, db, err := openStore(*storePath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			x, err := extract.NewExtractor(cfg, extract.WithStore(store), extract.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			w, err := corpus.NewWatcher(x, store, args,
				corpus.WithDebounce(debounce),
				corpus.WithWatchLogger(slog.Default()),
			)
			if err != nil {
				return err
			}
			slog.Info("Watching sources", slog.Any("roots", args))
			return w.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", corpus.DefaultDebounce, "quiet period before a batch is extracted")
	return cmd
}
