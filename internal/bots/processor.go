package bots

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/dialogue"
)

// Conversation is the part of the dialogue engine the processor needs.
type Conversation interface {
	HandleTurn(ctx context.Context, sessionID, text string) (dialogue.Reply, error)
}

// Processor connects bot messages to the dialogue engine.
type Processor struct {
	conv Conversation
}

// NewProcessor creates a message processor.
func NewProcessor(conv Conversation) *Processor {
	return &Processor{conv: conv}
}

// HandleMessage runs one dialogue turn for the sender of msg. Messages
// without text get no reply.
func (p *Processor) HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return nil, nil
	}
	if msg.UserID == "" {
		return nil, fmt.Errorf("message from %s has no sender", msg.Platform)
	}
	if p.conv == nil {
		return nil, fmt.Errorf("dialogue engine not configured")
	}

	reply, err := p.conv.HandleTurn(ctx, msg.SessionID(), msg.Text)
	if err != nil {
		return nil, fmt.Errorf("handling message from %s: %w", msg.SessionID(), err)
	}
	return &OutgoingMessage{
		UserID: msg.UserID,
		Text:   reply.Text,
		Stage:  string(reply.Stage),
	}, nil
}
