package bots

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the bridge endpoints on the given router.
func RegisterRoutes(r chi.Router, whatsapp *WhatsAppHandler) {
	r.Post("/whatsapp/process", whatsapp.HandleProcess)
}
