// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package s3 streams extraction output to S3-compatible object storage.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AleutianAI/apisketch/services/sketch/config"
)

// ErrNotS3URL is returned by ParseURL for anything but s3://bucket/key.
var ErrNotS3URL = errors.New("not an s3:// URL")

// ParseURL splits "s3://bucket/path/to/key" into bucket and key.
func ParseURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %q", ErrNotS3URL, raw)
	}
	bucket = u.Host
	key = strings.TrimLeft(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs a bucket and a key", ErrNotS3URL, raw)
	}
	return bucket, key, nil
}

// IsURL reports whether raw names an S3 object.
func IsURL(raw string) bool {
	return strings.HasPrefix(raw, "s3://")
}

// objectPutter is the subset of *minio.Client used by Sink.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader,
		objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// NewClient creates a minio client from configuration.
func NewClient(cfg config.S3Config) (*minio.Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return client, nil
}

// Sink is an io.WriteCloser that streams everything written to it into a
// single S3 object.
//
// Description:
//
//	Writes go through an io.Pipe into a multipart PutObject call of
//	unknown size. minio-go buffers one part at a time, so memory is bounded
//	by the part size (default config.DefaultS3PartSize). The object exists
//	only after Close returns nil. Write errors report upload failures as
//	they happen.
//
// Thread Safety:
//
//	Not safe for concurrent Writes. extract.Emitter serializes its writes.
type Sink struct {
	pw     *io.PipeWriter
	done   chan struct{}
	once   sync.Once
	err    error
	bucket string
	key    string
}

// SinkOption configures a Sink.
type SinkOption func(*minio.PutObjectOptions)

// WithPartSize sets the multipart part size in bytes. Zero keeps the
// default. S3 rejects parts below 5 MiB.
func WithPartSize(n uint64) SinkOption {
	return func(o *minio.PutObjectOptions) {
		if n > 0 {
			o.PartSize = n
		}
	}
}

// NewSink starts an upload to bucket/key.
func NewSink(ctx context.Context, client *minio.Client, bucket, key string, opts ...SinkOption) (*Sink, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client must not be nil")
	}
	return newSink(ctx, client, bucket, key, opts...), nil
}

func newSink(ctx context.Context, putter objectPutter, bucket, key string, opts ...SinkOption) *Sink {
	putOpts := minio.PutObjectOptions{
		ContentType: "application/json",
		PartSize:    config.DefaultS3PartSize,
	}
	for _, opt := range opts {
		opt(&putOpts)
	}

	pr, pw := io.Pipe()
	s := &Sink{pw: pw, done: make(chan struct{}), bucket: bucket, key: key}
	go func() {
		defer close(s.done)
		_, err := putter.PutObject(ctx, bucket, key, pr, -1, putOpts)
		if err != nil {
			s.err = fmt.Errorf("uploading s3://%s/%s: %w", bucket, key, err)
		}
		_ = pr.CloseWithError(s.err)
	}()
	return s
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	if err != nil {
		return n, fmt.Errorf("writing to s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return n, nil
}

// Close finishes the upload and waits for it to complete.
func (s *Sink) Close() error {
	s.once.Do(func() {
		_ = s.pw.Close()
		<-s.done
	})
	return s.err
}

// Abort cancels the upload. The object is not created.
func (s *Sink) Abort(cause error) {
	if cause == nil {
		cause = errors.New("upload aborted")
	}
	s.once.Do(func() {
		_ = s.pw.CloseWithError(cause)
		<-s.done
	})
}
