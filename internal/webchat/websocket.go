package webchat

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is an incoming WebSocket frame.
type wsRequest struct {
	Type      string `json:"type" validate:"required,eq=message"`
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
	Content   string `json:"content" validate:"required,max=2000"`
}

// wsResponse is an outgoing frame: type "response" carries a turn, type
// "error" carries Content only.
type wsResponse struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Content   string `json:"content,omitempty"`
	*chatResponse
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The connection keeps its session across frames that omit one.
	var current string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			h.send(conn, wsResponse{Type: "error", SessionID: current, Content: "invalid message format"})
			continue
		}
		if err := h.check(&req); err != nil {
			h.send(conn, wsResponse{Type: "error", SessionID: req.SessionID, Content: err.Error()})
			continue
		}
		if req.SessionID == "" {
			req.SessionID = current
		}

		resp, err := h.turn(r.Context(), req.SessionID, req.Content)
		if err != nil {
			h.log.Error().Err(err).Str("session", resp.SessionID).Msg("websocket turn failed")
			h.send(conn, wsResponse{Type: "error", SessionID: resp.SessionID, Content: "processing failed"})
			continue
		}
		current = resp.SessionID
		h.send(conn, wsResponse{Type: "response", SessionID: resp.SessionID, Content: resp.Reply, chatResponse: &resp})
	}
}

func (h *Handler) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		h.log.Warn().Err(err).Msg("websocket write failed")
	}
}
