// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/morganforge/tutor/internal/gateway"
	"github.com/morganforge/tutor/internal/library"
	"github.com/morganforge/tutor/internal/model"
	"github.com/morganforge/tutor/internal/session"
	"github.com/morganforge/tutor/internal/toast"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNothingToSend is returned when the input is blank and no document
	// is attached.
	ErrNothingToSend = errors.New("nothing to send")

	// ErrBusy is returned while a reply is pending.
	ErrBusy = errors.New("waiting for a reply")

	// ErrUploadInProgress is returned while an upload is pending.
	ErrUploadInProgress = errors.New("upload already in progress")
)

// =============================================================================
// TEXT
// =============================================================================

// QuotaWarningText is shown when the backend falls back to document results
// although AI answers were requested.
const QuotaWarningText = "AI quota exceeded. Showing document results instead."

// EchoForAttachment is the user turn shown when only a document is sent.
func EchoForAttachment(name string) string {
	return fmt.Sprintf("Analyze this document: %s", name)
}

// RequestForAttachment is the message sent when only a document is sent.
func RequestForAttachment(name string) string {
	return fmt.Sprintf("Please analyze and summarize the document: %s", name)
}

// UploadedText is the toast shown after a successful upload.
func UploadedText(name string) string {
	return fmt.Sprintf("%s uploaded! Ask a question about it.", name)
}

// UploadFailedText is the toast shown after a failed upload.
func UploadFailedText(name string) string {
	return fmt.Sprintf("Failed to upload %s. Please try again.", name)
}

// SelectedText is the toast shown when a library document is attached.
func SelectedText(name string) string {
	return fmt.Sprintf("%s selected. Ask a question about it!", name)
}

// SummarizePrompt is the structured summary request for a document.
func SummarizePrompt(name string) string {
	return fmt.Sprintf("Please provide a detailed summary of the document '%s'. \n\nInclude:\n1. Key Concepts\n2. Detailed Summary\n3. Key Takeaways", name)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Gateway is the subset of the backend client the controller needs.
type Gateway interface {
	Chat(ctx context.Context, req gateway.ChatRequest) (*gateway.ChatResponse, error)
	UploadFile(ctx context.Context, path string) error
}

// Controller holds the active conversation state.
type Controller struct {
	sessions *session.Store
	library  *library.Library
	toasts   *toast.Manager
	gateway  Gateway
	logger   *zap.Logger

	input     string
	pending   *model.Attachment
	loading   bool
	uploading bool
	useAI     bool
	mode      model.Mode
}

// New creates a controller. AI answers are requested by default.
func New(sessions *session.Store, lib *library.Library, toasts *toast.Manager, gw Gateway, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		sessions: sessions,
		library:  lib,
		toasts:   toasts,
		gateway:  gw,
		logger:   logger.Named("conversation"),
		useAI:    true,
		mode:     model.ModeAI,
	}
}

// Sessions returns the session store.
func (c *Controller) Sessions() *session.Store { return c.sessions }

// Library returns the document library.
func (c *Controller) Library() *library.Library { return c.library }

// Toasts returns the toast manager.
func (c *Controller) Toasts() *toast.Manager { return c.toasts }

// Gateway returns the backend client.
func (c *Controller) Gateway() Gateway { return c.gateway }

// Messages returns the active message list.
func (c *Controller) Messages() []model.Message { return c.sessions.Messages() }

// Input returns the current input text.
func (c *Controller) Input() string { return c.input }

// SetInput replaces the input text.
func (c *Controller) SetInput(text string) { c.input = text }

// PendingAttachment returns the attached document, or nil.
func (c *Controller) PendingAttachment() *model.Attachment {
	if c.pending == nil {
		return nil
	}
	a := *c.pending
	return &a
}

// IsLoading reports whether a reply is pending.
func (c *Controller) IsLoading() bool { return c.loading }

// IsUploading reports whether an upload is pending.
func (c *Controller) IsUploading() bool { return c.uploading }

// UseAI reports whether AI answers are requested.
func (c *Controller) UseAI() bool { return c.useAI }

// SetUseAI sets whether AI answers are requested.
func (c *Controller) SetUseAI(on bool) { c.useAI = on }

// ToggleAI flips the AI setting and returns the new value.
func (c *Controller) ToggleAI() bool {
	c.useAI = !c.useAI
	return c.useAI
}

// ResponseMode returns the mode the backend last reported.
func (c *Controller) ResponseMode() model.Mode { return c.mode }

// =============================================================================
// SESSIONS
// =============================================================================

// NewChat starts a fresh session and makes it active.
func (c *Controller) NewChat() model.Session {
	return c.sessions.CreateNewChat()
}

// SelectSession makes a stored session active.
func (c *Controller) SelectSession(id string) error {
	return c.sessions.Select(id)
}

// DeleteSession removes a stored session.
func (c *Controller) DeleteSession(id string) error {
	return c.sessions.Delete(id)
}

// =============================================================================
// SUBMIT
// =============================================================================

// BeginSubmit takes the input and attachment, echoes the user turn, and
// returns the request to send. The input and attachment are cleared whatever
// the outcome of the request. A session is created on the fly when none is
// active.
func (c *Controller) BeginSubmit() (gateway.ChatRequest, error) {
	if c.loading {
		return gateway.ChatRequest{}, ErrBusy
	}
	hasText := strings.TrimSpace(c.input) != ""
	if !hasText && c.pending == nil {
		return gateway.ChatRequest{}, ErrNothingToSend
	}

	text := c.input
	attachment := c.pending
	c.input = ""
	c.pending = nil

	echo, message, titleSource := text, text, text
	if !hasText {
		echo = EchoForAttachment(attachment.Name)
		message = RequestForAttachment(attachment.Name)
		titleSource = attachment.Name
	}

	c.sessions.AppendMessage(model.NewUserMessage(echo, attachment))
	c.loading = true

	if !c.sessions.HasActive() {
		sess := c.sessions.StartFromCurrent(titleSource)
		c.logger.Debug("session started by submit", zap.String("id", sess.ID))
	}

	return gateway.ChatRequest{
		Message:   message,
		SessionID: c.sessions.CurrentID(),
		UseAI:     c.useAI,
	}, nil
}

// CompleteSubmit applies the backend's reply. The reply goes to whichever
// conversation is active now. A failure appends the generic error reply.
func (c *Controller) CompleteSubmit(resp *gateway.ChatResponse, err error) model.Message {
	c.loading = false

	if err != nil {
		c.logger.Warn("chat request failed", zap.Error(err))
		reply := model.NewAssistantMessage(model.ErrorReplyText)
		c.sessions.AppendMessage(reply)
		return reply
	}

	switch {
	case resp.Mode == "":
	case !resp.Mode.Valid():
		c.logger.Debug("ignoring unknown response mode", zap.String("mode", string(resp.Mode)))
	default:
		c.mode = resp.Mode
		if resp.Mode == model.ModeDocumentOnly && c.useAI {
			c.toasts.Error(QuotaWarningText)
		}
	}

	reply := model.NewAssistantMessage(resp.Answer)
	c.sessions.AppendMessage(reply)
	return reply
}

// Submit sends the input and waits for the reply. The returned error is the
// guard error, or the backend failure that produced the error reply.
func (c *Controller) Submit(ctx context.Context) (model.Message, error) {
	req, err := c.BeginSubmit()
	if err != nil {
		return model.Message{}, err
	}
	resp, err := c.gateway.Chat(ctx, req)
	return c.CompleteSubmit(resp, err), err
}

// =============================================================================
// UPLOAD
// =============================================================================

// BeginUpload marks an upload of path as pending and returns the file name
// that will be registered.
func (c *Controller) BeginUpload(path string) (string, error) {
	if c.uploading {
		return "", ErrUploadInProgress
	}
	c.uploading = true
	return filepath.Base(path), nil
}

// CompleteUpload applies the upload result. Success registers the document
// and attaches it; failure only raises a toast.
func (c *Controller) CompleteUpload(name string, err error) error {
	c.uploading = false

	if err != nil {
		c.logger.Warn("upload failed", zap.String("name", name), zap.Error(err))
		c.toasts.Error(UploadFailedText(name))
		return err
	}

	if _, addErr := c.library.Add(name); addErr != nil {
		c.logger.Error("registering upload", zap.String("name", name), zap.Error(addErr))
	}
	c.pending = model.NewAttachment(name)
	c.toasts.Success(UploadedText(name))
	return nil
}

// Upload sends the file at path and waits for the result.
func (c *Controller) Upload(ctx context.Context, path string) error {
	name, err := c.BeginUpload(path)
	if err != nil {
		return err
	}
	return c.CompleteUpload(name, c.gateway.UploadFile(ctx, path))
}

// =============================================================================
// LIBRARY
// =============================================================================

// SelectDocument attaches a previously uploaded document.
func (c *Controller) SelectDocument(id string) (model.UploadedPDF, error) {
	doc, err := c.library.Get(id)
	if err != nil {
		return model.UploadedPDF{}, err
	}
	c.pending = model.NewAttachment(doc.Name)
	c.toasts.Success(SelectedText(doc.Name))
	return doc, nil
}

// RemovePendingAttachment detaches the pending document.
func (c *Controller) RemovePendingAttachment() {
	c.pending = nil
}

// DeleteDocument removes a document from the library. A pending attachment
// of the same name stays attached.
func (c *Controller) DeleteDocument(id string) error {
	return c.library.Remove(id)
}

// Summarize fills the input with the summary prompt for a document without
// sending it.
func (c *Controller) Summarize(id string) error {
	doc, err := c.library.Get(id)
	if err != nil {
		return err
	}
	c.input = SummarizePrompt(doc.Name)
	return nil
}
