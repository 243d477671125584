package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/pneumabot/internal/dialogue"
	"github.com/ziadkadry99/pneumabot/internal/session"
)

type fakeConversation struct {
	mu       sync.Mutex
	sessions []string
	texts    []string
	resets   []string
	err      error
}

func (f *fakeConversation) HandleTurn(_ context.Context, sessionID, text string) (dialogue.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	f.texts = append(f.texts, text)
	if f.err != nil {
		return dialogue.Reply{}, f.err
	}
	return dialogue.Reply{
		Text:       "**100 mm çap** için 2 strok seçeneği var.",
		Stage:      session.StageSpecGathering,
		Confidence: 0.6,
	}, nil
}

func (f *fakeConversation) Reset(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sessionID)
	return f.err
}

func setupRouter(conv Conversation) chi.Router {
	r := chi.NewRouter()
	New(conv, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatAssignsSessionAndRendersHTML(t *testing.T) {
	conv := &fakeConversation{}
	w := post(t, setupRouter(conv), "/api/chat", `{"message":"100 çap silindir"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.SessionID == "" || conv.sessions[0] != resp.SessionID {
		t.Errorf("session id %q, engine saw %q", resp.SessionID, conv.sessions[0])
	}
	if resp.Stage != session.StageSpecGathering {
		t.Errorf("stage = %s", resp.Stage)
	}
	if !strings.Contains(resp.ReplyHTML, "<strong>100 mm çap</strong>") {
		t.Errorf("reply_html = %q", resp.ReplyHTML)
	}
	if resp.Candidates == nil {
		t.Error("candidates should encode as an empty list")
	}
}

func TestChatKeepsGivenSession(t *testing.T) {
	conv := &fakeConversation{}
	w := post(t, setupRouter(conv), "/api/chat", `{"session_id":"abc","message":"merhaba"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if conv.sessions[0] != "abc" {
		t.Errorf("session = %q", conv.sessions[0])
	}
}

func TestChatValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{"session_id":"abc"}`},
		{"empty message", `{"message":""}`},
		{"too long", `{"message":"` + strings.Repeat("a", 2001) + `"}`},
		{"unknown field", `{"message":"x","extra":1}`},
		{"not json", `message=x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConversation{}
			w := post(t, setupRouter(conv), "/api/chat", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if len(conv.texts) != 0 {
				t.Error("engine called for an invalid request")
			}
		})
	}
}

func TestChatEngineFailure(t *testing.T) {
	conv := &fakeConversation{err: errors.New("store offline")}
	w := post(t, setupRouter(conv), "/api/chat", `{"message":"merhaba"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestReset(t *testing.T) {
	conv := &fakeConversation{}
	r := setupRouter(conv)

	if w := post(t, r, "/api/reset", `{"session_id":"abc"}`); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(conv.resets) != 1 || conv.resets[0] != "abc" {
		t.Errorf("resets = %v", conv.resets)
	}
	if w := post(t, r, "/api/reset", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("reset without session: status = %d", w.Code)
	}
}

func dial(t *testing.T, conv Conversation) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(setupRouter(conv))
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsFrame struct {
	Type      string        `json:"type"`
	SessionID string        `json:"session_id"`
	Content   string        `json:"content"`
	Stage     session.Stage `json:"stage"`
}

func TestWebSocketKeepsSessionAcrossFrames(t *testing.T) {
	conv := &fakeConversation{}
	conn := dial(t, conv)

	var first, second wsFrame
	if err := conn.WriteJSON(wsRequest{Type: "message", Content: "100 çap"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first.Type != "response" || first.SessionID == "" || first.Stage != session.StageSpecGathering {
		t.Fatalf("first frame = %+v", first)
	}

	if err := conn.WriteJSON(wsRequest{Type: "message", Content: "200 strok"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatal(err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session changed: %q then %q", first.SessionID, second.SessionID)
	}
}

func TestWebSocketRejectsBadFrames(t *testing.T) {
	conv := &fakeConversation{}
	conn := dial(t, conv)

	for _, frame := range []string{`not json`, `{"type":"ask","content":"x"}`, `{"type":"message","content":""}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatal(err)
		}
		var resp wsFrame
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Type != "error" {
			t.Errorf("frame %s: type = %q, want error", frame, resp.Type)
		}
	}
	if len(conv.texts) != 0 {
		t.Errorf("engine called for bad frames: %v", conv.texts)
	}
}
