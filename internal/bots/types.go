package bots

// Platform identifies the messaging platform.
type Platform string

const PlatformWhatsApp Platform = "whatsapp"

// IncomingMessage is a customer message received from any platform.
type IncomingMessage struct {
	Platform Platform
	UserID   string
	UserName string
	Text     string
}

// SessionID is the dialogue session a message belongs to: one per platform
// user.
func (m IncomingMessage) SessionID() string {
	return string(m.Platform) + ":" + m.UserID
}

// OutgoingMessage is the reply to send back.
type OutgoingMessage struct {
	UserID string
	Text   string
	Stage  string
}
