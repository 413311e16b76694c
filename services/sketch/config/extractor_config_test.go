// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadExtractorConfig_Embedded(t *testing.T) {
	cfg, err := LoadExtractorConfig(context.Background(), defaultExtractorYAML)
	if err != nil {
		t.Fatalf("LoadExtractorConfig failed on embedded YAML: %v", err)
	}

	if cfg.MaxSequences != 10 {
		t.Errorf("expected max_sequences = 10, got %d", cfg.MaxSequences)
	}
	if cfg.MaxLength != 10 {
		t.Errorf("expected max_length = 10, got %d", cfg.MaxLength)
	}
	if cfg.LoopUnroll != 1 {
		t.Errorf("expected loop_unroll = 1, got %d", cfg.LoopUnroll)
	}
	if cfg.DocMode != "summary" {
		t.Errorf("expected doc_mode = summary, got %q", cfg.DocMode)
	}
	if len(cfg.APIPackages) != 3 || cfg.APIPackages[0] != "java." {
		t.Errorf("unexpected api_packages: %v", cfg.APIPackages)
	}
	if cfg.Synthesis.Timeout != 60*time.Second {
		t.Errorf("expected synthesis timeout 60s, got %v", cfg.Synthesis.Timeout)
	}

	b := cfg.Bounds()
	if b.MaxSequences != 10 || b.MaxLength != 10 || b.LoopUnroll != 1 {
		t.Errorf("unexpected bounds: %+v", b)
	}
}

func TestLoadExtractorConfig_Defaults(t *testing.T) {
	cfg, err := LoadExtractorConfig(context.Background(), []byte(`api_packages: ["java."]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxSequences != DefaultMaxSequences || cfg.MaxLength != DefaultMaxLength {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.DocMode != DefaultDocMode {
		t.Errorf("expected default doc_mode, got %q", cfg.DocMode)
	}
	if cfg.Synthesis.TypeCacheSize != DefaultTypeCacheSize {
		t.Errorf("expected default type cache size, got %d", cfg.Synthesis.TypeCacheSize)
	}
}

func TestLoadExtractorConfig_Layering(t *testing.T) {
	override := []byte(`
max_sequences: 64
doc_mode: none
`)
	cfg, err := LoadExtractorConfig(context.Background(), defaultExtractorYAML, override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxSequences != 64 {
		t.Errorf("override not applied: max_sequences = %d", cfg.MaxSequences)
	}
	if cfg.MaxLength != 10 {
		t.Errorf("unset field should keep the base value, got %d", cfg.MaxLength)
	}
	if cfg.DocMode != "none" {
		t.Errorf("doc_mode = %q", cfg.DocMode)
	}
}

func TestLoadExtractorConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad doc mode", "doc_mode: verbose\napi_packages: [\"java.\"]"},
		{"no api packages", "api_packages: []"},
		{"empty api package", "api_packages: [\"\"]"},
		{"negative workers", "workers: -1\napi_packages: [\"java.\"]"},
		{"bad engine url", "api_packages: [\"java.\"]\nsynthesis:\n  engine_url: \"not a url\""},
		{"malformed", "max_sequences: [1, 2"},
		{"zero max sequences", "max_sequences: 0\napi_packages: [\"java.\"]"},
		{"zero max length", "max_length: 0\napi_packages: [\"java.\"]"},
		{"negative loop unroll", "loop_unroll: -1\napi_packages: [\"java.\"]"},
		{"part size below the S3 minimum", "api_packages: [\"java.\"]\ns3:\n  part_size: 1024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadExtractorConfig(context.Background(), []byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadExtractorConfig_ExplicitZeroCapOverridesNothing(t *testing.T) {
	_, err := LoadExtractorConfig(context.Background(), defaultExtractorYAML, []byte("max_sequences: 0\n"))
	if err == nil || !strings.Contains(err.Error(), "max_sequences must be positive") {
		t.Errorf("expected an explicit zero cap to be rejected, got %v", err)
	}
}

func TestLoadExtractorConfig_S3PartSize(t *testing.T) {
	cfg, err := LoadExtractorConfig(context.Background(), []byte(`api_packages: ["java."]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.S3.PartSize != DefaultS3PartSize {
		t.Errorf("expected default part size %d, got %d", DefaultS3PartSize, cfg.S3.PartSize)
	}

	cfg, err = LoadExtractorConfig(context.Background(), defaultExtractorYAML, []byte("s3:\n  part_size: 8388608\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.S3.PartSize != 8<<20 {
		t.Errorf("part_size = %d, want %d", cfg.S3.PartSize, 8<<20)
	}
}

func TestLoadExtractorConfig_Empty(t *testing.T) {
	_, err := LoadExtractorConfig(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected empty data error, got %v", err)
	}
}

func TestLoadExtractorConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketch.yaml")
	if err := os.WriteFile(path, []byte("max_length: 25\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadExtractorConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxLength != 25 || cfg.MaxSequences != 10 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := LoadExtractorConfigFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvMaxSequences, "32")
	t.Setenv(EnvEngineURL, "http://localhost:8084")
	t.Setenv(EnvS3AccessKey, "key")

	cfg, err := DefaultExtractorConfig(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxSequences != 32 {
		t.Errorf("MaxSequences = %d, want 32", cfg.MaxSequences)
	}
	if cfg.Synthesis.EngineURL != "http://localhost:8084" {
		t.Errorf("EngineURL = %q", cfg.Synthesis.EngineURL)
	}
	if cfg.S3.AccessKey != "key" {
		t.Errorf("AccessKey = %q", cfg.S3.AccessKey)
	}
}

func TestApplyEnvOverrides_Invalid(t *testing.T) {
	cfg, err := DefaultExtractorConfig(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvMaxLength, "ten")
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Error("expected an error for a non-integer value")
	}

	t.Setenv(EnvMaxLength, "0")
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Error("expected a validation error for a zero cap")
	}
}
