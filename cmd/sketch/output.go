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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/apisketch/services/sketch/config"
	"github.com/AleutianAI/apisketch/services/sketch/extract"
	"github.com/AleutianAI/apisketch/services/sketch/storage/s3"
)

// output is a destination for an emitted corpus.
type output interface {
	io.Writer

	// Close commits the output.
	Close() error

	// Abort discards a partial output.
	Abort(cause error)
}

// openOutput opens target, which is "-" for stdout, an s3:// URL, or a
// file path.
func openOutput(ctx context.Context, target string, stdout io.Writer, s3cfg config.S3Config) (output, error) {
	switch {
	case target == "" || target == "-":
		return &bufferedOutput{Writer: bufio.NewWriter(stdout)}, nil
	case s3.IsURL(target):
		bucket, key, err := s3.ParseURL(target)
		if err != nil {
			return nil, err
		}
		client, err := s3.NewClient(s3cfg)
		if err != nil {
			return nil, err
		}
		return s3.NewSink(ctx, client, bucket, key, s3.WithPartSize(s3cfg.PartSize))
	}

	f, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	return &bufferedOutput{Writer: bufio.NewWriter(f), file: f}, nil
}

// bufferedOutput writes to stdout or a local file.
type bufferedOutput struct {
	*bufio.Writer
	file *os.File
}

func (o *bufferedOutput) Close() error {
	err := o.Flush()
	if o.file != nil {
		if cerr := o.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (o *bufferedOutput) Abort(error) {
	if o.file == nil {
		_ = o.Flush()
		return
	}
	_ = o.file.Close()
	_ = os.Remove(o.file.Name())
}

// emitterOptions pretty-prints when asked to, or when writing to a
// terminal.
func emitterOptions(indent bool, target string) []extract.EmitterOption {
	isStdout := target == "" || target == "-"
	if indent || (isStdout && isatty.IsTerminal(os.Stdout.Fd())) {
		return []extract.EmitterOption{extract.WithIndent("  ")}
	}
	return nil
}
