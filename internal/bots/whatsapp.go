package bots

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SecretHeader carries the shared secret of the bridge process.
const SecretHeader = "X-Bridge-Secret"

const failureReply = "Özür dilerim, bir hata oluştu. Tekrar deneyin."

// WhatsAppHandler serves the endpoint a WhatsApp Web bridge posts customer
// messages to. The bridge delivers the reply itself.
type WhatsAppHandler struct {
	gateway  *Gateway
	secret   string
	validate *validator.Validate
	log      zerolog.Logger
}

// NewWhatsAppHandler creates the bridge handler. An empty secret disables the
// shared-secret check.
func NewWhatsAppHandler(gateway *Gateway, secret string, log zerolog.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		gateway:  gateway,
		secret:   secret,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

type bridgeRequest struct {
	From string `json:"from" validate:"required,max=128"`
	Body string `json:"body" validate:"max=4000"`
}

// bridgeResponse has a null reply when there is nothing to send.
type bridgeResponse struct {
	Reply *string `json:"reply"`
	Stage string  `json:"stage,omitempty"`
}

// HandleProcess handles POST /whatsapp/process.
func (h *WhatsAppHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			http.Error(w, "invalid bridge secret", http.StatusUnauthorized)
			return
		}
	}

	var req bridgeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			http.Error(w, strings.ToLower(fields[0].Field())+" is invalid", http.StatusBadRequest)
			return
		}
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	msg := IncomingMessage{
		Platform: PlatformWhatsApp,
		UserID:   CleanSender(req.From),
		Text:     strings.TrimSpace(req.Body),
	}
	resp, err := h.gateway.Process(r.Context(), msg)
	if err != nil {
		h.log.Error().Err(err).Str("sender", msg.UserID).Msg("bridge message failed")
		text := failureReply
		writeJSON(w, http.StatusInternalServerError, bridgeResponse{Reply: &text})
		return
	}
	if resp == nil {
		writeJSON(w, http.StatusOK, bridgeResponse{})
		return
	}
	writeJSON(w, http.StatusOK, bridgeResponse{Reply: &resp.Text, Stage: resp.Stage})
}

// CleanSender strips the transport decorations from a WhatsApp sender id:
// "whatsapp:+905551112233" and "905551112233@c.us" both become
// "905551112233".
func CleanSender(from string) string {
	s := strings.TrimSpace(from)
	s = strings.TrimPrefix(s, "whatsapp:")
	s = strings.TrimSuffix(s, "@c.us")
	return strings.TrimPrefix(s, "+")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
