// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sketch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/apisketch/services/sketch/config"
	"github.com/AleutianAI/apisketch/services/sketch/extract"
	"github.com/AleutianAI/apisketch/services/sketch/synthesis"
)

const readerJava = `package demo;

import java.io.BufferedReader;
import java.io.FileReader;
import java.io.IOException;

public class Reader {
    private BufferedReader br;

    public Reader(String path) throws IOException {
        br = new BufferedReader(new FileReader(path));
    }

    /** Reads a line if one is ready. */
    public void poll() throws IOException {
        if (br.ready()) {
            br.readLine();
        } else {
            br.close();
        }
    }
}
`

const testSketch = `{"nodes":[{"node":"Call","call":"java.io.BufferedReader.readLine()"}]}`

func setupTestRouter(t *testing.T, engine synthesis.Engine) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.DefaultExtractorConfig(context.Background())
	require.NoError(t, err)
	cfg.MaxFileSize = 4096
	x, err := extract.NewExtractor(cfg)
	require.NoError(t, err)

	var svc *synthesis.Service
	if engine != nil {
		svc, err = synthesis.NewService(engine)
		require.NoError(t, err)
	}
	handlers, err := NewHandlers(x, svc)
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router.Group("/v1"), handlers)
	RegisterMetrics(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewHandlers_NilExtractor(t *testing.T) {
	_, err := NewHandlers(nil, nil)
	assert.Error(t, err)
}

func TestHandleExtract_Success(t *testing.T) {
	router := setupTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/sketch/extract", ExtractRequest{
		SourceFile: "demo/Reader.java",
		SourceCode: readerJava,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var resp ExtractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 1)
	doc := resp.Documents[0]
	assert.Equal(t, "demo/Reader.java", doc.SourceFile)
	require.NotNil(t, doc.Documentation)
	assert.Equal(t, "Reads a line if one is ready.", *doc.Documentation)
	assert.Len(t, doc.Sequences, 2)
	assert.Equal(t, 1, resp.Stats.Documents)
}

func TestHandleExtract_NoDocuments(t *testing.T) {
	router := setupTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/sketch/extract", ExtractRequest{
		SourceCode: "class Empty { int x; }",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"documents":[]`)
}

func TestHandleExtract_Errors(t *testing.T) {
	router := setupTestRouter(t, nil)

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"malformed json", `{"source_code":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing source", ExtractRequest{SourceFile: "A.java"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"too large", ExtractRequest{SourceCode: "class A {" + strings.Repeat(" ", 5000) + "}"}, http.StatusRequestEntityTooLarge, "SOURCE_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/v1/sketch/extract", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Code)
		})
	}
}

func TestHandleSynthesize(t *testing.T) {
	tests := []struct {
		name     string
		engine   synthesis.EngineFunc
		sketch   string
		wantCode int
		wantBody string
	}{
		{
			name: "candidates",
			engine: func(context.Context, synthesis.Request) ([]string, error) {
				return []string{"class A { void f() {} }"}, nil
			},
			sketch:   testSketch,
			wantCode: http.StatusOK,
			wantBody: `{"candidates":["class A { void f() {} }"],"dropped":0}`,
		},
		{
			name: "zero results",
			engine: func(context.Context, synthesis.Request) ([]string, error) {
				return nil, nil
			},
			sketch:   testSketch,
			wantCode: http.StatusOK,
			wantBody: `{"candidates":[],"dropped":0}`,
		},
		{
			name: "invalid sketch",
			engine: func(context.Context, synthesis.Request) ([]string, error) {
				t.Error("engine must not be called")
				return nil, nil
			},
			sketch:   `{"nodes":[{"node":"Goto"}]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "engine failure",
			engine: func(context.Context, synthesis.Request) ([]string, error) {
				return nil, &synthesis.EngineError{StatusCode: 500, Message: "boom"}
			},
			sketch:   testSketch,
			wantCode: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(t, tt.engine)
			body := `{"source_code":"class A {}","sketch":` + tt.sketch + `}`
			w := doJSON(t, router, http.MethodPost, "/v1/sketch/synthesize", body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestHandleSynthesize_MissingSource(t *testing.T) {
	router := setupTestRouter(t, synthesis.EngineFunc(func(context.Context, synthesis.Request) ([]string, error) {
		return nil, nil
	}))
	w := doJSON(t, router, http.MethodPost, "/v1/sketch/synthesize", `{"sketch":`+testSketch+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestHandleSynthesize_Disabled(t *testing.T) {
	router := setupTestRouter(t, nil)
	w := doJSON(t, router, http.MethodPost, "/v1/sketch/synthesize", `{"source_code":"class A {}","sketch":`+testSketch+`}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/sketch/health", nil)
	req.Header.Set(requestIDHeader, "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","synthesis":false}`, w.Body.String())
}

func TestHandleSchema(t *testing.T) {
	router := setupTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/sketch/schema", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/schema+json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var schema map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	assert.Contains(t, schema, "$schema")
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(t, nil)
	doJSON(t, router, http.MethodPost, "/v1/sketch/extract", ExtractRequest{SourceCode: readerJava})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sketch_")
}
