// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/apisketch/services/sketch/config"
	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

const lineSourceJava = `package demo;

import java.io.BufferedReader;
import java.io.FileReader;
import java.io.IOException;

public class LineSource {
    private BufferedReader br;

    /** Opens the source. */
    public LineSource(String path) throws IOException {
        FileReader fr = new FileReader(path);
        br = new BufferedReader(fr);
    }

    /** Reads one line. */
    public String first() throws IOException {
        return br.readLine();
    }

    /** Reads and closes. Never throws twice. */
    public void drain() throws IOException {
        br.readLine();
        br.ready();
        br.close();
    }
}
`

const branchyJava = `
class Branchy {
    public void f(StringBuilder sb, int k) {
        if (k > 0) { sb.append(1); } else { sb.reverse(); }
        if (k > 1) { sb.append(2); } else { sb.reverse(); }
        if (k > 2) { sb.append(3); } else { sb.reverse(); }
        if (k > 3) { sb.append(4); } else { sb.reverse(); }
    }
}
`

func testConfig(t *testing.T) *config.ExtractorConfig {
	t.Helper()
	cfg, err := config.DefaultExtractorConfig(context.Background())
	require.NoError(t, err)
	return cfg
}

func newTestExtractor(t *testing.T, cfg *config.ExtractorConfig, opts ...ExtractorOption) *Extractor {
	t.Helper()
	x, err := NewExtractor(cfg, opts...)
	require.NoError(t, err)
	return x
}

func TestNewExtractor_Invalid(t *testing.T) {
	_, err := NewExtractor(nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.MaxLength = 0
	_, err = NewExtractor(cfg)
	assert.ErrorIs(t, err, ir.ErrInvalidBounds)

	cfg = testConfig(t)
	cfg.DocMode = "verbose"
	_, err = NewExtractor(cfg)
	assert.Error(t, err)
}

func TestExtractSource_ConstructorMethodPairs(t *testing.T) {
	x := newTestExtractor(t, testConfig(t))

	docs, stats, err := x.ExtractSource(context.Background(), "demo/LineSource.java", []byte(lineSourceJava))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 2, stats.Documents)

	require.Len(t, docs[0].Sequences, 1)
	assert.Equal(t, 3, docs[0].Sequences[0].Len())
	assert.Equal(t, "Reads one line.", *docs[0].Documentation)

	require.Len(t, docs[1].Sequences, 1)
	assert.Equal(t, 5, docs[1].Sequences[0].Len())
	assert.Equal(t, "Reads and closes.", *docs[1].Documentation)
	assert.Equal(t, []string{
		"java.io.FileReader.<init>(java.lang.String)",
		"java.io.BufferedReader.<init>(java.io.FileReader)",
		"java.io.BufferedReader.readLine()",
		"java.io.BufferedReader.ready()",
		"java.io.BufferedReader.close()",
	}, docs[1].Sequences[0].Calls())
}

func TestExtractSource_Golden(t *testing.T) {
	x := newTestExtractor(t, testConfig(t))

	docs, _, err := x.ExtractSource(context.Background(), "demo/LineSource.java", []byte(lineSourceJava))
	require.NoError(t, err)

	var buf bytes.Buffer
	em := NewEmitter(&buf)
	for _, d := range docs {
		require.NoError(t, em.Emit(d))
	}
	require.NoError(t, em.Close())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "line_source", buf.Bytes())
}

func TestExtractSource_MinimumContent(t *testing.T) {
	x := newTestExtractor(t, testConfig(t))

	src := `
class Tiny {
    public void f(StringBuilder sb) { sb.reverse(); }
}
`
	docs, stats, err := x.ExtractSource(context.Background(), "Tiny.java", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 1, stats.Filtered)
}

func TestExtractSource_BranchesSurviveAsSet(t *testing.T) {
	x := newTestExtractor(t, testConfig(t))

	src := `
class Choice {
    public void f(StringBuilder sb, boolean b) {
        if (b) { sb.reverse(); }
    }
}
`
	docs, _, err := x.ExtractSource(context.Background(), "Choice.java", []byte(src))
	require.NoError(t, err)
	require.Len(t, docs, 1, "two distinct short sequences are admitted")
	require.Len(t, docs[0].Sequences, 2)
	assert.Equal(t, 0, docs[0].Sequences[0].Len())
	assert.Equal(t, []string{"java.lang.StringBuilder.reverse()"}, docs[0].Sequences[1].Calls())
}

func TestExtractSource_BoundViolations(t *testing.T) {
	t.Run("count", func(t *testing.T) {
		x := newTestExtractor(t, testConfig(t))
		docs, stats, err := x.ExtractSource(context.Background(), "Branchy.java", []byte(branchyJava))
		require.NoError(t, err)
		assert.Empty(t, docs)
		assert.Equal(t, 1, stats.BoundCount)
	})

	t.Run("length", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.MaxLength = 2
		x := newTestExtractor(t, cfg)
		docs, stats, err := x.ExtractSource(context.Background(), "LineSource.java", []byte(lineSourceJava))
		require.NoError(t, err)
		assert.Empty(t, docs)
		assert.Equal(t, 2, stats.BoundLength)
	})

	t.Run("raised cap admits", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.MaxSequences = 16
		x := newTestExtractor(t, cfg)
		docs, _, err := x.ExtractSource(context.Background(), "Branchy.java", []byte(branchyJava))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Len(t, docs[0].Sequences, 16)
	})
}

func TestEachDocument_StreamsAndStops(t *testing.T) {
	x := newTestExtractor(t, testConfig(t))

	var seen []string
	stats, err := x.EachDocument(context.Background(), "demo/LineSource.java", []byte(lineSourceJava), func(doc Document) error {
		seen = append(seen, doc.IR.Nodes.Key())
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.Equal(t, 2, stats.Documents)

	errStop := errors.New("stop")
	calls := 0
	stats, err = x.EachDocument(context.Background(), "demo/LineSource.java", []byte(lineSourceJava), func(Document) error {
		calls++
		return errStop
	})
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, 1, calls, "extraction stops at the first callback error")
	assert.Equal(t, 0, stats.Documents)
}

func TestExtractSource_InvalidContent(t *testing.T) {
	x := newTestExtractor(t, testConfig(t))
	_, _, err := x.ExtractSource(context.Background(), "Bad.java", []byte{0xff, 0xfe, 0x00})
	assert.Error(t, err)
}

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	sources map[string]string
	docs    []Document
}

func newMemStore() *memStore {
	return &memStore{sources: make(map[string]string)}
}

func (s *memStore) SourceUnchanged(_ context.Context, path, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources[path] == hash, nil
}

func (s *memStore) ForgetSource(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.docs[:0]
	for _, d := range s.docs {
		if d.SourceFile != path {
			kept = append(kept, d)
		}
	}
	s.docs = kept
	return nil
}

func (s *memStore) Put(_ context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

func (s *memStore) MarkSource(_ context.Context, path, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[path] = hash
	return nil
}

func (s *memStore) SourceDocuments(_ context.Context, path string, fn func(Document) error) (int, error) {
	s.mu.Lock()
	var docs []Document
	for _, d := range s.docs {
		if d.SourceFile == path {
			docs = append(docs, d)
		}
	}
	s.mu.Unlock()
	for i, d := range docs {
		if err := fn(d); err != nil {
			return i, err
		}
	}
	return len(docs), nil
}

func writeSources(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "demo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo", "LineSource.java"), []byte(lineSourceJava), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Bad.java"), []byte{0xff, 0xfe}, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not java"), 0o600))
	return dir
}

func TestCollectSources(t *testing.T) {
	dir := writeSources(t)
	single := filepath.Join(dir, "demo", "LineSource.java")

	files, err := CollectSources([]string{dir, single})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "Bad.java"), single}, files)

	_, err = CollectSources([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestRun_IncrementalWithStore(t *testing.T) {
	dir := writeSources(t)
	store := newMemStore()
	x := newTestExtractor(t, testConfig(t), WithStore(store), WithWorkers(2))

	var buf bytes.Buffer
	em := NewEmitter(&buf)
	stats, err := x.Run(context.Background(), []string{dir}, em)
	require.NoError(t, err)
	require.NoError(t, em.Close())

	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Documents)
	assert.Len(t, store.docs, 2)

	var docs []Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, filepath.Join(dir, "demo", "LineSource.java"), docs[0].SourceFile)

	// A second run skips the unchanged file and retries the failed one.
	buf.Reset()
	em = NewEmitter(&buf)
	stats, err = x.Run(context.Background(), []string{dir}, em)
	require.NoError(t, err)
	require.NoError(t, em.Close())

	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Documents)
	assert.Equal(t, "[]\n", buf.String())
}

func TestRun_ReplayUnchanged(t *testing.T) {
	dir := writeSources(t)
	store := newMemStore()
	x := newTestExtractor(t, testConfig(t), WithStore(store), WithReplay())

	var first bytes.Buffer
	em := NewEmitter(&first)
	_, err := x.Run(context.Background(), []string{dir}, em)
	require.NoError(t, err)
	require.NoError(t, em.Close())

	var second bytes.Buffer
	em = NewEmitter(&second)
	stats, err := x.Run(context.Background(), []string{dir}, em)
	require.NoError(t, err)
	require.NoError(t, em.Close())

	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 2, stats.Documents)
	assert.Len(t, store.docs, 2, "replay must not store documents again")

	var want, got []Document
	require.NoError(t, json.Unmarshal(first.Bytes(), &want))
	require.NoError(t, json.Unmarshal(second.Bytes(), &got))
	assert.ElementsMatch(t, want, got)
}

func TestRun_ReplaySinkFailureAborts(t *testing.T) {
	dir := writeSources(t)
	store := newMemStore()
	x := newTestExtractor(t, testConfig(t), WithStore(store), WithReplay())

	em := NewEmitter(&bytes.Buffer{})
	_, err := x.Run(context.Background(), []string{dir}, em)
	require.NoError(t, err)

	_, err = x.Run(context.Background(), []string{dir}, NewEmitter(&failingWriter{limit: 0}))
	assert.ErrorIs(t, err, errDiskFull)
}

func TestRun_SinkFailureAborts(t *testing.T) {
	dir := writeSources(t)
	x := newTestExtractor(t, testConfig(t))

	_, err := x.Run(context.Background(), []string{dir}, NewEmitter(&failingWriter{limit: 0}))
	assert.ErrorIs(t, err, errDiskFull)
}

func TestRun_Canceled(t *testing.T) {
	dir := writeSources(t)
	x := newTestExtractor(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := x.Run(ctx, []string{dir}, NewEmitter(&bytes.Buffer{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_NilEmitter(t *testing.T) {
	x := newTestExtractor(t, testConfig(t))
	_, err := x.Run(context.Background(), nil, nil)
	assert.Error(t, err)
}
