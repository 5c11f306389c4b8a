// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/util"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = "127.0.0.1:8000"

	// MaxMessageLength bounds the chat message, in bytes.
	MaxMessageLength = 100000

	// MaxChatBodySize bounds the chat request body.
	MaxChatBodySize = 1 * 1024 * 1024

	// DefaultMaxUploadSize bounds one uploaded file.
	DefaultMaxUploadSize = 20 * 1024 * 1024

	// Version is the server version reported by /health.
	Version = "0.1.0"
)

// ============================================================================
// WIRE TYPES
// ============================================================================

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
	UseAI     *bool  `json:"use_ai"`
}

type chatResponse struct {
	Answer string     `json:"answer"`
	Mode   model.Mode `json:"mode"`
}

type uploadResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Documents int    `json:"documents"`
	UptimeSec int64  `json:"uptime_seconds"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// ============================================================================
// SERVER
// ============================================================================

// Extractor turns an uploaded file into plain text.
type Extractor func(r io.Reader) (string, error)

// Options configures a Server.
type Options struct {
	Addr           string
	UploadDir      string
	MaxUploadBytes int64
	RateLimit      float64
	RateBurst      int
	TopK           int
	Logger         *zap.Logger
	// Extract defaults to ExtractPDFText.
	Extract Extractor
}

// Server is the local development backend.
type Server struct {
	opts    Options
	logger  *zap.Logger
	engine  *gin.Engine
	index   *Index
	limiter *RateLimiter
	started time.Time

	httpServer *http.Server
}

// New creates a server and its upload directory. Call LoadUploads to index
// documents stored by an earlier run.
func New(opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadSize
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Extract == nil {
		opts.Extract = ExtractPDFText
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.UploadDir == "" {
		return nil, errors.New("server: upload directory is required")
	}
	if err := os.MkdirAll(opts.UploadDir, 0700); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	s := &Server{
		opts:    opts,
		logger:  opts.Logger.Named("server"),
		index:   NewIndex(),
		limiter: NewRateLimiter(opts.RateLimit, opts.RateBurst),
		started: time.Now(),
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// setupRoutes configures middleware and routes.
func (s *Server) setupRoutes() {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.MaxMultipartMemory = 8 << 20
	engine.Use(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	)

	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api")
	api.Use(RateLimitMiddleware(s.limiter, s.logger))
	api.POST("/chat", s.handleChat)
	api.POST("/upload", s.handleUpload)

	s.engine = engine
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Index returns the document index.
func (s *Server) Index() *Index {
	return s.index
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// LoadUploads indexes every PDF already in the upload directory. Files that
// fail to extract are logged and skipped.
func (s *Server) LoadUploads() (int, error) {
	entries, err := os.ReadDir(s.opts.UploadDir)
	if err != nil {
		return 0, fmt.Errorf("read upload directory: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		path := filepath.Join(s.opts.UploadDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable upload", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		text, err := s.opts.Extract(bytes.NewReader(data))
		if err != nil {
			s.logger.Warn("skipping upload without text", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		s.index.Add(e.Name(), text)
		loaded++
	}
	s.logger.Info("uploads indexed", zap.Int("documents", loaded))
	return loaded, nil
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Documents: s.index.Len(),
		UptimeSec: int64(time.Since(s.started).Seconds()),
	})
}

// handleChat answers from the uploaded documents. The answer is always
// document-only; a request for AI answers is reported back as the fallback.
func (s *Server) handleChat(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxChatBodySize)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Detail: "Request body too large"})
			return
		}
		s.logger.Debug("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Request must be JSON with a non-empty message"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Message must not be empty"})
		return
	}
	if len(req.Message) > MaxMessageLength {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: fmt.Sprintf("Message exceeds maximum length of %d", MaxMessageLength)})
		return
	}

	passages := s.index.Search(req.Message, s.opts.TopK)
	s.logger.Debug("chat answered",
		zap.String("session_id", req.SessionID),
		zap.Int("passages", len(passages)),
		zap.String("query", util.TruncateRunes(req.Message, 50)))

	c.JSON(http.StatusOK, chatResponse{
		Answer: ComposeAnswer(passages),
		Mode:   model.ModeDocumentOnly,
	})
}

// handleUpload stores a PDF under its base name and indexes its text.
func (s *Server) handleUpload(c *gin.Context) {
	// Multipart framing adds a little on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+64*1024)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Detail: "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Expected a multipart form with a 'file' field"})
		return
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, ".") {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Invalid file name"})
		return
	}
	if !isPDF(name) {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Only PDF files are supported"})
		return
	}
	if header.Size > s.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Detail: "File too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		s.logger.Error("opening upload", zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Could not read upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("reading upload", zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Could not read upload"})
		return
	}

	text, err := s.opts.Extract(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("extracting upload", zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: fmt.Sprintf("Could not read %s as a PDF", name)})
		return
	}

	if err := util.AtomicWriteFile(filepath.Join(s.opts.UploadDir, name), data, 0600); err != nil {
		s.logger.Error("storing upload", zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Could not store upload"})
		return
	}

	chunks := s.index.Add(name, text)
	s.logger.Info("document indexed", zap.String("file", name), zap.Int("chunks", chunks), zap.Int("bytes", len(data)))
	c.JSON(http.StatusOK, uploadResponse{Status: "ok", Filename: name, Chunks: chunks})
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until Shutdown is called. It returns nil after a
// clean shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server starting", zap.String("addr", s.opts.Addr), zap.String("version", Version))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}
