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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

func newEnumerateCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		bounds     boundFlags
		loopUnroll int
	)

	cmd := &cobra.Command{
		Use:   "enumerate <ir.json|->",
		Short: "Enumerate the call sequences of one IR",
		Long: `Enumerate reads an IR document ({"nodes": [...]}) and prints its call
sequences as a JSON array. A bound violation is reported as an error and
nothing is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmdContext(cmd), rootOpts)
			if err != nil {
				return err
			}
			bounds.apply(cmd, cfg)
			if cmd.Flags().Changed("loop-unroll") {
				cfg.LoopUnroll = loopUnroll
			}

			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			forest, err := ir.ParseSketch(data)
			if err != nil {
				return err
			}
			seqs, err := ir.Enumerate(forest, cfg.Bounds())
			if err != nil {
				return err
			}

			out, err := ir.EncodeJSON(seqs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return err
		},
	}

	bounds.register(cmd)
	cmd.Flags().IntVar(&loopUnroll, "loop-unroll", 1, "passes through each loop body")
	return cmd
}

// readInput reads a file, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading IR: %w", err)
	}
	return data, nil
}
