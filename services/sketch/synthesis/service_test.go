// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const validSketch = `{"nodes":[
  {"node":"Call","call":"java.io.FileReader.<init>(java.io.File)"},
  {"node":"Loop","body":[{"node":"Call","call":"java.io.BufferedReader.readLine()"}]}
]}`

const goodCandidate = `
import java.io.*;

public class TestIO1 {
    void read(File file) throws IOException {
        BufferedReader br = new BufferedReader(new FileReader(file));
        while (br.readLine() != null) { }
    }
}
`

func validRequest() Request {
	return Request{
		SourceCode: "public class TestIO1 { void read(File file) { { /* hole */ } } }",
		Sketch:     json.RawMessage(validSketch),
	}
}

func newTestService(t *testing.T, engine Engine, opts ...ServiceOption) *Service {
	t.Helper()
	s, err := NewService(engine, opts...)
	require.NoError(t, err)
	return s
}

func TestNewService_NilEngine(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

func TestSynthesize_ValidCandidates(t *testing.T) {
	var got Request
	engine := EngineFunc(func(_ context.Context, req Request) ([]string, error) {
		got = req
		return []string{goodCandidate}, nil
	})
	s := newTestService(t, engine)

	req := validRequest()
	req.TypeContext = "lib/a.jar: lib/./b.jar::lib/a.jar"
	result, err := s.Synthesize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{goodCandidate}, result.Candidates)
	assert.Equal(t, 0, result.Dropped)
	assert.Equal(t, []string{"lib/a.jar", "lib/b.jar"}, got.Classpath)
}

func TestSynthesize_InvalidInput(t *testing.T) {
	called := false
	engine := EngineFunc(func(context.Context, Request) ([]string, error) {
		called = true
		return nil, nil
	})
	s := newTestService(t, engine)

	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{"empty source", func(r *Request) { r.SourceCode = "  " }, ErrInvalidRequest},
		{"empty sketch", func(r *Request) { r.Sketch = nil }, ErrInvalidRequest},
		{"not json", func(r *Request) { r.Sketch = json.RawMessage(`{`) }, ErrInvalidSketch},
		{"unknown tag", func(r *Request) {
			r.Sketch = json.RawMessage(`{"nodes":[{"node":"Switch"}]}`)
		}, ErrInvalidSketch},
		{"missing nodes", func(r *Request) { r.Sketch = json.RawMessage(`{}`) }, ErrInvalidSketch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := s.Synthesize(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.False(t, called, "engine must not be called for invalid input")
}

func TestSynthesize_ZeroResultsIsNotAnError(t *testing.T) {
	s := newTestService(t, EngineFunc(func(context.Context, Request) ([]string, error) {
		return nil, nil
	}))

	result, err := s.Synthesize(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Candidates)
	assert.NotNil(t, result.Candidates, "candidates encode as [] rather than null")
}

func TestSynthesize_EngineFailure(t *testing.T) {
	cause := errors.New("classpath unresolved")
	s := newTestService(t, EngineFunc(func(context.Context, Request) ([]string, error) {
		return nil, cause
	}))

	_, err := s.Synthesize(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, IsEngineError(err))
	assert.ErrorIs(t, err, cause)
}

func TestSynthesize_EngineErrorPassesThrough(t *testing.T) {
	s := newTestService(t, EngineFunc(func(context.Context, Request) ([]string, error) {
		return nil, &EngineError{StatusCode: 503, Message: "busy"}
	}))

	_, err := s.Synthesize(context.Background(), validRequest())
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 503, ee.StatusCode)
}

func TestSynthesize_DropsInvalidCandidates(t *testing.T) {
	candidates := []string{
		goodCandidate,
		"public class Broken { void f( { }",
		"class A {}\nclass B {}",
		"",
		"public interface Callback { void done(); }",
	}
	s := newTestService(t, EngineFunc(func(context.Context, Request) ([]string, error) {
		return candidates, nil
	}))

	result, err := s.Synthesize(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{goodCandidate, candidates[4]}, result.Candidates)
	assert.Equal(t, 3, result.Dropped)
}

func TestCheckCandidate(t *testing.T) {
	s := newTestService(t, EngineFunc(func(context.Context, Request) ([]string, error) { return nil, nil }))
	ctx := context.Background()

	assert.NoError(t, s.CheckCandidate(ctx, goodCandidate))
	assert.ErrorIs(t, s.CheckCandidate(ctx, "class A { void f() { int x = ; } }"), ErrCandidateSyntax)
	assert.ErrorIs(t, s.CheckCandidate(ctx, "class A {} enum B { X }"), ErrCandidateShape)
	assert.ErrorIs(t, s.CheckCandidate(ctx, "// nothing here"), ErrCandidateShape)
}

func TestSynthesize_Timeout(t *testing.T) {
	s := newTestService(t, EngineFunc(func(ctx context.Context, _ Request) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), WithTimeout(20*time.Millisecond))

	_, err := s.Synthesize(context.Background(), validRequest())
	assert.True(t, IsEngineError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolveTypeContext_Cached(t *testing.T) {
	var calls atomic.Int32
	s := newTestService(t, EngineFunc(func(context.Context, Request) ([]string, error) {
		calls.Add(1)
		return nil, nil
	}), WithTypeCacheSize(1))

	a := s.resolveTypeContext("x.jar:y.jar")
	b := s.resolveTypeContext("x.jar:y.jar")
	assert.Equal(t, a, b)
	assert.Equal(t, 1, s.types.Len())

	s.resolveTypeContext("z.jar")
	assert.Equal(t, 1, s.types.Len(), "capacity is respected")
	assert.Nil(t, s.resolveTypeContext(""))
}

func TestSynthesize_Span(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	s := newTestService(t, EngineFunc(func(context.Context, Request) ([]string, error) {
		return []string{goodCandidate}, nil
	}))
	_, err := s.Synthesize(context.Background(), validRequest())
	require.NoError(t, err)

	var found bool
	for _, span := range exporter.GetSpans() {
		if span.Name == "synthesis.Service.Synthesize" {
			found = true
			for _, kv := range span.Attributes {
				if kv.Key == "outcome" {
					assert.Equal(t, "ok", kv.Value.AsString())
				}
			}
		}
	}
	assert.True(t, found, "expected a synthesis span")
}
