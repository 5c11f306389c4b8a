// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textExtractor treats uploads as plain text so tests need no real PDFs.
func textExtractor(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(string(b), "corrupt") {
		return "", errors.New("bad pdf")
	}
	return string(b), nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Options{
		UploadDir: t.TempDir(),
		RateLimit: 1000,
		RateBurst: 1000,
		Extract:   textExtractor,
	})
	require.NoError(t, err)
	return s
}

func uploadRequest(t *testing.T, field, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func chatRequestBody(t *testing.T, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresUploadDir(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 0, resp.Documents)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestUploadThenChat(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, uploadRequest(t, "file", "notes.pdf", "The derivative measures instantaneous rate of change."))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var up uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, "notes.pdf", up.Filename)
	assert.Equal(t, 1, up.Chunks)
	_, err := os.Stat(filepath.Join(s.opts.UploadDir, "notes.pdf"))
	require.NoError(t, err)

	rec = serve(s, chatRequestBody(t, map[string]any{
		"message":    "What does the derivative measure?",
		"session_id": "1718000000000",
		"use_ai":     true,
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "document_only", resp["mode"])
	assert.Contains(t, resp["answer"], "**notes.pdf**")
	assert.Contains(t, resp["answer"], "instantaneous rate of change")
}

func TestChat_NoDocuments(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s, chatRequestBody(t, map[string]any{"message": "What is a derivative?"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, NoPassagesText, resp["answer"])
}

func TestChat_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing message", map[string]any{"session_id": "x"}},
		{"blank message", map[string]any{"message": "   "}},
		{"too long", map[string]any{"message": strings.Repeat("a", MaxMessageLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, chatRequestBody(t, tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Detail)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, serve(s, req).Code)
}

func TestUpload_Rejections(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, uploadRequest(t, "document", "notes.pdf", "x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, uploadRequest(t, "file", "notes.docx", "x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, uploadRequest(t, "file", "broken.pdf", "corrupt bytes"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, err := os.Stat(filepath.Join(s.opts.UploadDir, "broken.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpload_TooLarge(t *testing.T) {
	s, err := New(Options{
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 16,
		RateLimit:      1000,
		RateBurst:      1000,
		Extract:        textExtractor,
	})
	require.NoError(t, err)

	rec := serve(s, uploadRequest(t, "file", "big.pdf", strings.Repeat("x", 1024)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload_StripsDirectories(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, uploadRequest(t, "file", "../../escape.pdf", "content"))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := os.Stat(filepath.Join(s.opts.UploadDir, "escape.pdf"))
	assert.NoError(t, err)
}

func TestLoadUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("alpha content"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.PDF"), []byte("beta content"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.pdf"), []byte("corrupt"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	s, err := New(Options{UploadDir: dir, Extract: textExtractor})
	require.NoError(t, err)

	n, err := s.LoadUploads()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a.pdf", "b.PDF"}, s.Index().Names())
}

func TestRateLimitOnAPI(t *testing.T) {
	s, err := New(Options{UploadDir: t.TempDir(), RateLimit: 0.001, RateBurst: 1, Extract: textExtractor})
	require.NoError(t, err)

	first := serve(s, chatRequestBody(t, map[string]any{"message": "one"}))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(s, chatRequestBody(t, map[string]any{"message": "two"}))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// Health is outside the rate-limited group.
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestWatchUploads(t *testing.T) {
	s := newTestServer(t)
	w, err := s.WatchUploads(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(s.opts.UploadDir, "dropped.pdf")
	require.NoError(t, os.WriteFile(path, []byte("mitochondria produce energy"), 0600))
	require.Eventually(t, func() bool {
		return len(s.Index().Search("mitochondria", 1)) == 1
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return s.Index().Len() == 0
	}, 5*time.Second, 20*time.Millisecond)

	// Temp files and other types are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(s.opts.UploadDir, "notes.txt"), []byte("mitochondria"), 0600))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, s.Index().Len())
}

func TestReindex(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.opts.UploadDir, "a.pdf"), []byte("photosynthesis"), 0600))

	s.reindex("a.pdf")
	assert.Equal(t, []string{"a.pdf"}, s.Index().Names())

	s.reindex("missing.pdf")
	require.NoError(t, os.Remove(filepath.Join(s.opts.UploadDir, "a.pdf")))
	s.reindex("a.pdf")
	assert.Zero(t, s.Index().Len())
}
