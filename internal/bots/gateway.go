package bots

import "context"

// MessageHandler turns an incoming message into a reply.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error)
}

// Gateway routes messages from any platform adapter to one handler.
type Gateway struct {
	handler MessageHandler
}

// NewGateway creates a Gateway with the given message handler.
func NewGateway(handler MessageHandler) *Gateway {
	return &Gateway{handler: handler}
}

// Process routes an incoming message through the handler.
func (g *Gateway) Process(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	return g.handler.HandleMessage(ctx, msg)
}
