// Package webchat serves the browser chat: a JSON endpoint per turn, a reset
// endpoint and a WebSocket that carries the same turns.
package webchat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/dialogue"
	"github.com/ziadkadry99/pneumabot/internal/errs"
	"github.com/ziadkadry99/pneumabot/internal/session"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

// Conversation is the part of the dialogue engine the chat needs.
type Conversation interface {
	HandleTurn(ctx context.Context, sessionID, text string) (dialogue.Reply, error)
	Reset(ctx context.Context, sessionID string) error
}

// Handler serves the web chat endpoints.
type Handler struct {
	conv     Conversation
	validate *validator.Validate
	md       goldmark.Markdown
	log      zerolog.Logger
}

// New creates a chat handler over conv.
func New(conv Conversation, log zerolog.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Handler{
		conv:     conv,
		validate: v,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		log: log,
	}
}

// RegisterRoutes mounts the chat endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.handleChat)
	r.Post("/api/reset", h.handleReset)
	r.Get("/api/chat/ws", h.handleWebSocket)
}

type chatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
	Message   string `json:"message" validate:"required,max=2000"`
}

type resetRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
}

type chatResponse struct {
	SessionID     string               `json:"session_id"`
	Reply         string               `json:"reply"`
	ReplyHTML     string               `json:"reply_html"`
	Stage         session.Stage        `json:"stage"`
	Specification spec.Specification   `json:"specification"`
	Confidence    float64              `json:"confidence"`
	Candidates    []catalog.ProductRef `json:"candidates"`
	OrderID       string               `json:"order_id,omitempty"`
	Error         string               `json:"error,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.turn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.log.Error().Err(err).Str("session", resp.SessionID).Msg("chat turn failed")
		writeError(w, errs.Wrap(err, errs.KindInternal, "webchat.chat"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.conv.Reset(r.Context(), req.SessionID); err != nil {
		writeError(w, errs.Wrap(err, errs.KindInternal, "webchat.reset"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": req.SessionID, "status": "reset"})
}

// turn runs one message, assigning a session id when the client has none.
func (h *Handler) turn(ctx context.Context, sessionID, message string) (chatResponse, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	reply, err := h.conv.HandleTurn(ctx, sessionID, message)
	if err != nil {
		return chatResponse{SessionID: sessionID}, err
	}
	candidates := reply.Candidates
	if candidates == nil {
		candidates = []catalog.ProductRef{}
	}
	return chatResponse{
		SessionID:     sessionID,
		Reply:         reply.Text,
		ReplyHTML:     h.render(reply.Text),
		Stage:         reply.Stage,
		Specification: reply.Specification,
		Confidence:    reply.Confidence,
		Candidates:    candidates,
		OrderID:       reply.OrderID,
		Error:         reply.Error,
	}, nil
}

// render converts a reply to HTML. Raw HTML in the text is escaped.
func (h *Handler) render(text string) string {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(text), &buf); err != nil {
		h.log.Warn().Err(err).Msg("markdown render failed")
		return ""
	}
	return buf.String()
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Errorf(errs.KindInvalid, "webchat.decode", "invalid JSON: %v", err)
	}
	return h.check(dst)
}

func (h *Handler) check(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return errs.Errorf(errs.KindInvalid, "webchat.validate", "%s failed on %s", fields[0].Field(), fields[0].Tag())
	}
	return errs.Wrap(err, errs.KindInvalid, "webchat.validate")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	writeJSON(w, errs.HTTPStatus(kind), map[string]string{"error": err.Error(), "kind": kind.String()})
}
