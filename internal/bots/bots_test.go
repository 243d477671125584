package bots

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/pneumabot/internal/dialogue"
	"github.com/ziadkadry99/pneumabot/internal/session"
)

// mockHandler implements MessageHandler for testing.
type mockHandler struct {
	lastMsg  IncomingMessage
	response *OutgoingMessage
	err      error
}

func (m *mockHandler) HandleMessage(_ context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	m.lastMsg = msg
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &OutgoingMessage{UserID: msg.UserID, Text: "mock response", Stage: "discovery"}, nil
}

type mockConversation struct {
	sessionID string
	text      string
	err       error
}

func (m *mockConversation) HandleTurn(_ context.Context, sessionID, text string) (dialogue.Reply, error) {
	m.sessionID, m.text = sessionID, text
	if m.err != nil {
		return dialogue.Reply{}, m.err
	}
	return dialogue.Reply{Text: "Kaç adet istersiniz?", Stage: session.StageOrderCreation}, nil
}

// --- Processor tests ---

func TestProcessorUsesPlatformUserSession(t *testing.T) {
	conv := &mockConversation{}
	p := NewProcessor(conv)
	resp, err := p.HandleMessage(context.Background(), IncomingMessage{
		Platform: PlatformWhatsApp,
		UserID:   "905551112233",
		Text:     "DNC100200",
	})
	if err != nil {
		t.Fatal(err)
	}
	if conv.sessionID != "whatsapp:905551112233" {
		t.Errorf("session = %q", conv.sessionID)
	}
	if resp.Text != "Kaç adet istersiniz?" || resp.Stage != "order_creation" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestProcessorEmptyMessage(t *testing.T) {
	conv := &mockConversation{}
	resp, err := NewProcessor(conv).HandleMessage(context.Background(), IncomingMessage{
		Platform: PlatformWhatsApp, UserID: "1", Text: "  ",
	})
	if err != nil || resp != nil {
		t.Errorf("empty message: resp %+v, err %v", resp, err)
	}
	if conv.text != "" {
		t.Error("engine called for an empty message")
	}
}

func TestProcessorErrors(t *testing.T) {
	if _, err := NewProcessor(nil).HandleMessage(context.Background(), IncomingMessage{UserID: "1", Text: "x"}); err == nil ||
		!strings.Contains(err.Error(), "not configured") {
		t.Errorf("nil engine: %v", err)
	}
	if _, err := NewProcessor(&mockConversation{}).HandleMessage(context.Background(), IncomingMessage{Text: "x"}); err == nil {
		t.Error("expected error for a message without sender")
	}
	conv := &mockConversation{err: fmt.Errorf("store offline")}
	if _, err := NewProcessor(conv).HandleMessage(context.Background(), IncomingMessage{UserID: "1", Text: "x"}); err == nil ||
		!strings.Contains(err.Error(), "store offline") {
		t.Errorf("engine failure: %v", err)
	}
}

// --- Gateway tests ---

func TestGatewayProcess(t *testing.T) {
	mock := &mockHandler{response: &OutgoingMessage{UserID: "1", Text: "hello from mock"}}
	gw := NewGateway(mock)

	resp, err := gw.Process(context.Background(), IncomingMessage{Platform: PlatformWhatsApp, UserID: "1", Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "hello from mock" {
		t.Errorf("expected 'hello from mock', got %q", resp.Text)
	}
	if mock.lastMsg.Text != "hello" {
		t.Errorf("handler did not receive message, got text: %q", mock.lastMsg.Text)
	}
}

func TestGatewayProcessError(t *testing.T) {
	gw := NewGateway(&mockHandler{err: fmt.Errorf("handler failure")})
	_, err := gw.Process(context.Background(), IncomingMessage{UserID: "1", Text: "hello"})
	if err == nil || !strings.Contains(err.Error(), "handler failure") {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- WhatsApp bridge tests ---

func TestCleanSender(t *testing.T) {
	tests := map[string]string{
		"whatsapp:+905551112233": "905551112233",
		"905551112233@c.us":      "905551112233",
		"+905551112233":          "905551112233",
		" 905551112233 ":         "905551112233",
	}
	for in, want := range tests {
		if got := CleanSender(in); got != want {
			t.Errorf("CleanSender(%q) = %q, want %q", in, got, want)
		}
	}
}

func bridgeRequestTo(h *WhatsAppHandler, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/whatsapp/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	w := httptest.NewRecorder()
	h.HandleProcess(w, req)
	return w
}

func TestWhatsAppProcess(t *testing.T) {
	mock := &mockHandler{}
	h := NewWhatsAppHandler(NewGateway(mock), "", zerolog.Nop())

	w := bridgeRequestTo(h, `{"from":"905551112233@c.us","body":" 100 çap silindir "}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Reply *string `json:"reply"`
		Stage string  `json:"stage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reply == nil || *resp.Reply != "mock response" || resp.Stage != "discovery" {
		t.Errorf("resp = %+v", resp)
	}
	if mock.lastMsg.UserID != "905551112233" || mock.lastMsg.Text != "100 çap silindir" {
		t.Errorf("handler got %+v", mock.lastMsg)
	}
}

func TestWhatsAppEmptyBodyHasNullReply(t *testing.T) {
	h := NewWhatsAppHandler(NewGateway(NewProcessor(&mockConversation{})), "", zerolog.Nop())
	w := bridgeRequestTo(h, `{"from":"1@c.us","body":""}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"reply":null}` {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestWhatsAppSecret(t *testing.T) {
	h := NewWhatsAppHandler(NewGateway(&mockHandler{}), "s3cret", zerolog.Nop())
	body := `{"from":"1@c.us","body":"merhaba"}`

	if w := bridgeRequestTo(h, body, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no secret: status %d", w.Code)
	}
	if w := bridgeRequestTo(h, body, "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: status %d", w.Code)
	}
	if w := bridgeRequestTo(h, body, "s3cret"); w.Code != http.StatusOK {
		t.Errorf("right secret: status %d", w.Code)
	}
}

func TestWhatsAppBadRequests(t *testing.T) {
	h := NewWhatsAppHandler(NewGateway(&mockHandler{}), "", zerolog.Nop())
	for _, body := range []string{`not json`, `{"body":"merhaba"}`} {
		if w := bridgeRequestTo(h, body, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", body, w.Code)
		}
	}
}

func TestWhatsAppHandlerFailure(t *testing.T) {
	h := NewWhatsAppHandler(NewGateway(&mockHandler{err: fmt.Errorf("boom")}), "", zerolog.Nop())
	w := bridgeRequestTo(h, `{"from":"1@c.us","body":"merhaba"}`, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hata") {
		t.Errorf("body = %s", w.Body.String())
	}
}
