// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/util"
)

// Endpoint paths relative to the base URL.
const (
	ChatPath   = "/api/chat"
	UploadPath = "/api/upload"
	HealthPath = "/health"
)

// DefaultSessionID is sent when a request carries no session ID. The
// conversation controller always starts a session before sending, so only
// direct callers of Chat ever fall back to it.
const DefaultSessionID = "web-user-1"

// maxErrorDetailRunes bounds the error detail kept from a response body.
const maxErrorDetailRunes = 200

// MaxResponseSize bounds how much of a response body is read.
const MaxResponseSize = 10 * 1024 * 1024

// UploadFieldName is the multipart field carrying the file.
const UploadFieldName = "file"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrRequestFailed is the umbrella error for any failed backend call.
	// Transport errors and *StatusError both match it with errors.Is.
	ErrRequestFailed = errors.New("request failed")

	// ErrMalformedResponse indicates the backend answered 2xx with a body
	// that is not a chat response.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path   string
	Status int
	Detail string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Path, e.Status)
}

// Is reports whether target is ErrRequestFailed.
func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UseAI     bool   `json:"use_ai"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Answer string     `json:"answer"`
	Mode   model.Mode `json:"mode,omitempty"`
}

// errorBody matches {"detail": "..."} and {"error": "..."} error payloads.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the tutor backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a whole-request timeout. Zero keeps the transport
// default, which waits as long as the server does.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		userAgent:  "tutor",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("gateway")
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends one chat turn.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	data, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Answer *string    `json:"answer"`
		Mode   model.Mode `json:"mode"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Answer == nil {
		return nil, fmt.Errorf("%w: missing answer", ErrMalformedResponse)
	}
	return &ChatResponse{Answer: *resp.Answer, Mode: resp.Mode}, nil
}

// Upload sends a document as a multipart form. The response body is not
// interpreted beyond its status.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadFieldName, name)
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, &buf)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = c.do(httpReq)
	return err
}

// UploadFile uploads the file at path under its base name.
func (c *Client) UploadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return c.Upload(ctx, filepath.Base(path), f)
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	_, err = c.do(httpReq)
	return err
}

// do executes the request and returns the body of a 2xx response. Bodies
// are never logged; they may contain the user's documents.
func (c *Client) do(req *http.Request) ([]byte, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("path", req.URL.Path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("response",
		zap.String("path", req.URL.Path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	body, err := readResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Path:   req.URL.Path,
			Status: resp.StatusCode,
			Detail: errorDetail(body),
		}
	}
	return body, nil
}

// readResponse reads at most MaxResponseSize bytes of the body.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

func errorDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Detail != "" {
			return eb.Detail
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return util.TruncateRunes(strings.TrimSpace(string(body)), maxErrorDetailRunes)
}
