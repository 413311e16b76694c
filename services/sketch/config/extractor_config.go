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
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

var configTracer = otel.Tracer("aleutian.sketch.config")

// =============================================================================
// Embedded Default Extractor Settings
// =============================================================================

//go:embed extractor.yaml
var defaultExtractorYAML []byte

// MaxYAMLFileSize bounds the size of a configuration document.
const MaxYAMLFileSize = 1 << 20

// =============================================================================
// Extractor Configuration Types
// =============================================================================

// ExtractorConfig defines extraction bounds and runtime settings.
//
// Description:
//
//	Controls the enumeration caps applied to every IR, which calls count
//	as API calls, how documentation is attached, and the resources used
//	by the extraction pipeline and the synthesis boundary.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type ExtractorConfig struct {
	// MaxSequences caps the live sequences while enumerating one IR.
	MaxSequences int `yaml:"max_sequences" validate:"min=1,max=1000000"`

	// MaxLength caps the length of any single sequence.
	MaxLength int `yaml:"max_length" validate:"min=1,max=100000"`

	// LoopUnroll is the number of passes a loop body contributes.
	LoopUnroll int `yaml:"loop_unroll" validate:"min=1,max=16"`

	// DocMode selects the documentation attached to documents.
	DocMode string `yaml:"doc_mode" validate:"oneof=none full summary"`

	// APIPackages are the package prefixes whose calls are recorded.
	APIPackages []string `yaml:"api_packages" validate:"min=1,dive,required"`

	// Workers is the number of parallel file workers. 0 means NumCPU.
	Workers int `yaml:"workers" validate:"min=0,max=1024"`

	// MaxFileSize is the largest source file parsed, in bytes.
	MaxFileSize int `yaml:"max_file_size" validate:"min=1"`

	Synthesis SynthesisConfig `yaml:"synthesis"`

	S3 S3Config `yaml:"s3"`
}

// SynthesisConfig configures the client for the external synthesis engine.
type SynthesisConfig struct {
	// EngineURL is the base URL of the engine. Empty disables synthesis.
	EngineURL string `yaml:"engine_url" validate:"omitempty,url"`

	// Timeout bounds one engine request.
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`

	// TypeCacheSize is the number of resolved type contexts kept.
	TypeCacheSize int `yaml:"type_cache_size" validate:"min=1"`

	// RequestsPerSecond limits outbound engine requests. 0 disables it.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`

	// Burst is the limiter bucket size.
	Burst int `yaml:"burst" validate:"min=0"`
}

// S3Config configures the object-store output sink.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`

	// PartSize is the multipart upload part size in bytes. It bounds the
	// memory held by an upload of unknown length.
	PartSize uint64 `yaml:"part_size" validate:"omitempty,min=5242880,max=5368709120"`
}

// Bounds returns the enumeration bounds described by the config.
func (c *ExtractorConfig) Bounds() ir.Bounds {
	return ir.Bounds{
		MaxSequences: c.MaxSequences,
		MaxLength:    c.MaxLength,
		LoopUnroll:   c.LoopUnroll,
	}
}

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultMaxSequences is the default cap on live sequences.
	DefaultMaxSequences = 10

	// DefaultMaxLength is the default cap on sequence length.
	DefaultMaxLength = 10

	// DefaultDocMode is the default documentation mode.
	DefaultDocMode = "summary"

	// DefaultMaxFileSize is the default largest parsed file.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// DefaultSynthesisTimeout is the default engine request timeout.
	DefaultSynthesisTimeout = 60 * time.Second

	// DefaultTypeCacheSize is the default number of cached type contexts.
	DefaultTypeCacheSize = 256

	// DefaultS3PartSize is the default multipart part size for S3 output.
	DefaultS3PartSize = 16 * 1024 * 1024
)

// Environment variables that override loaded values.
const (
	EnvMaxSequences = "SKETCH_MAX_SEQUENCES"
	EnvMaxLength    = "SKETCH_MAX_LENGTH"
	EnvEngineURL    = "SKETCH_ENGINE_URL"
	EnvS3Endpoint   = "SKETCH_S3_ENDPOINT"
	EnvS3Region     = "SKETCH_S3_REGION"
	EnvS3AccessKey  = "SKETCH_S3_ACCESS_KEY"
	EnvS3SecretKey  = "SKETCH_S3_SECRET_KEY"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultExtractorConfig returns a fresh copy of the embedded defaults.
func DefaultExtractorConfig(ctx context.Context) (*ExtractorConfig, error) {
	return LoadExtractorConfig(ctx, defaultExtractorYAML)
}

// LoadExtractorConfigFile loads a config file, layering it over the
// embedded defaults.
func LoadExtractorConfigFile(ctx context.Context, path string) (*ExtractorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadExtractorConfigFile: reading %s: %w", path, err)
	}
	return LoadExtractorConfig(ctx, defaultExtractorYAML, data)
}

// LoadExtractorConfig loads and validates an ExtractorConfig from YAML bytes.
//
// Description:
//
//	Each document is decoded in order over the previous one, so later
//	documents override earlier ones field by field. Defaults are applied
//	for fields that remain unset and the result is validated.
//
// Inputs:
//
//	ctx - Context for tracing.
//	docs - Raw YAML documents. At least one must be non-empty.
//
// Outputs:
//
//	*ExtractorConfig - The validated configuration.
//	error - Non-nil if parsing or validation fails.
func LoadExtractorConfig(ctx context.Context, docs ...[]byte) (*ExtractorConfig, error) {
	_, span := configTracer.Start(ctx, "config.LoadExtractorConfig")
	defer span.End()

	var cfg ExtractorConfig
	loaded := 0
	for i, data := range docs {
		if len(data) == 0 {
			continue
		}
		if len(data) > MaxYAMLFileSize {
			return nil, fmt.Errorf("LoadExtractorConfig: YAML document %d exceeds maximum size (%d > %d)", i, len(data), MaxYAMLFileSize)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("LoadExtractorConfig: parsing YAML document %d: %w", i, err)
		}
		if err := checkExplicitCaps(data); err != nil {
			return nil, fmt.Errorf("LoadExtractorConfig: YAML document %d: %w", i, err)
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("LoadExtractorConfig: empty YAML data")
	}

	applyDefaults(&cfg)

	if err := validateExtractorConfig(&cfg); err != nil {
		return nil, fmt.Errorf("LoadExtractorConfig: validation: %w", err)
	}

	span.SetAttributes(
		attribute.Int("max_sequences", cfg.MaxSequences),
		attribute.Int("max_length", cfg.MaxLength),
		attribute.Int("loop_unroll", cfg.LoopUnroll),
		attribute.String("doc_mode", cfg.DocMode),
		attribute.Int("api_packages", len(cfg.APIPackages)),
	)

	slog.Debug("extractor config loaded",
		slog.Int("max_sequences", cfg.MaxSequences),
		slog.Int("max_length", cfg.MaxLength),
		slog.String("doc_mode", cfg.DocMode),
	)

	return &cfg, nil
}

// ApplyEnvOverrides overrides config values from SKETCH_* environment
// variables and revalidates.
func ApplyEnvOverrides(cfg *ExtractorConfig) error {
	if cfg == nil {
		return fmt.Errorf("ApplyEnvOverrides: cfg must not be nil")
	}

	if err := envInt(EnvMaxSequences, &cfg.MaxSequences); err != nil {
		return err
	}
	if err := envInt(EnvMaxLength, &cfg.MaxLength); err != nil {
		return err
	}
	envString(EnvEngineURL, &cfg.Synthesis.EngineURL)
	envString(EnvS3Endpoint, &cfg.S3.Endpoint)
	envString(EnvS3Region, &cfg.S3.Region)
	envString(EnvS3AccessKey, &cfg.S3.AccessKey)
	envString(EnvS3SecretKey, &cfg.S3.SecretKey)

	if err := validateExtractorConfig(cfg); err != nil {
		return fmt.Errorf("ApplyEnvOverrides: validation: %w", err)
	}
	return nil
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// explicitCaps distinguishes an absent cap from one set to zero.
type explicitCaps struct {
	MaxSequences *int `yaml:"max_sequences"`
	MaxLength    *int `yaml:"max_length"`
	LoopUnroll   *int `yaml:"loop_unroll"`
}

// checkExplicitCaps rejects caps that a document sets to a non-positive
// value. Absent caps are filled in by applyDefaults.
func checkExplicitCaps(data []byte) error {
	var caps explicitCaps
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return err
	}
	for _, c := range []struct {
		name string
		v    *int
	}{
		{"max_sequences", caps.MaxSequences},
		{"max_length", caps.MaxLength},
		{"loop_unroll", caps.LoopUnroll},
	} {
		if c.v != nil && *c.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", c.name, *c.v)
		}
	}
	return nil
}

func applyDefaults(cfg *ExtractorConfig) {
	if cfg.MaxSequences <= 0 {
		cfg.MaxSequences = DefaultMaxSequences
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.LoopUnroll <= 0 {
		cfg.LoopUnroll = ir.DefaultLoopUnroll
	}
	if cfg.DocMode == "" {
		cfg.DocMode = DefaultDocMode
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Synthesis.Timeout <= 0 {
		cfg.Synthesis.Timeout = DefaultSynthesisTimeout
	}
	if cfg.Synthesis.TypeCacheSize <= 0 {
		cfg.Synthesis.TypeCacheSize = DefaultTypeCacheSize
	}
	if cfg.Synthesis.RequestsPerSecond > 0 && cfg.Synthesis.Burst <= 0 {
		cfg.Synthesis.Burst = 1
	}
	if cfg.S3.PartSize == 0 {
		cfg.S3.PartSize = DefaultS3PartSize
	}
}

// validateExtractorConfig checks struct tags and cross-field rules.
func validateExtractorConfig(cfg *ExtractorConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if err := cfg.Bounds().Validate(); err != nil {
		return err
	}
	return nil
}
