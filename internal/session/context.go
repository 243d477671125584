// Package session holds per-conversation state and serializes the turns of
// each conversation.
package session

import (
	"time"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

// Stage is where a conversation stands in the ordering dialogue.
type Stage string

const (
	StageDiscovery         Stage = "discovery"
	StageSpecGathering     Stage = "spec_gathering"
	StageProductSelection  Stage = "product_selection"
	StageOrderCreation     Stage = "order_creation"
	StageOrderConfirmation Stage = "order_confirmation"
	StageCompleted         Stage = "completed"
	StageGeneral           Stage = "general"
)

// Turn is one customer utterance.
type Turn struct {
	Utterance string    `json:"utterance"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingOrder is the product and quantity being ordered. Quantity is 0
// until captured.
type PendingOrder struct {
	Product  catalog.ProductRef `json:"product"`
	Quantity int                `json:"quantity"`
}

// Context is the state of one conversation.
type Context struct {
	ID                  string               `json:"id"`
	Spec                spec.Specification   `json:"spec"`
	Stage               Stage                `json:"stage"`
	History             []Turn               `json:"history,omitempty"`
	Tone                spec.Tone            `json:"tone"`
	PendingOrder        *PendingOrder        `json:"pending_order,omitempty"`
	Shortlist           []catalog.ProductRef `json:"shortlist,omitempty"`
	LastSystemUtterance string               `json:"last_system_utterance,omitempty"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// New returns a fresh conversation.
func New(id string, now time.Time) *Context {
	return &Context{
		ID:        id,
		Stage:     StageDiscovery,
		Tone:      spec.ToneProfessional,
		UpdatedAt: now,
	}
}

// Reset forgets the specification, pending order and shortlist and returns
// to discovery. History and tone survive.
func (c *Context) Reset() {
	c.Spec.Clear()
	c.PendingOrder = nil
	c.Shortlist = nil
	c.Stage = StageDiscovery
}

// Clone returns a deep copy.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	out := *c
	out.Spec = c.Spec.Clone()
	if c.History != nil {
		out.History = append([]Turn(nil), c.History...)
	}
	if c.PendingOrder != nil {
		po := *c.PendingOrder
		out.PendingOrder = &po
	}
	if c.Shortlist != nil {
		out.Shortlist = append([]catalog.ProductRef(nil), c.Shortlist...)
	}
	return &out
}

// AppendTurn records an utterance, keeping at most limit turns.
func (c *Context) AppendTurn(utterance string, at time.Time, limit int) {
	c.History = append(c.History, Turn{Utterance: utterance, Timestamp: at})
	if limit > 0 && len(c.History) > limit {
		c.History = append([]Turn(nil), c.History[len(c.History)-limit:]...)
	}
}

// Utterances returns the last n utterances, oldest first.
func (c *Context) Utterances(n int) []string {
	h := c.History
	if n > 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]string, len(h))
	for i, t := range h {
		out[i] = t.Utterance
	}
	return out
}

// Expired reports whether the conversation has been idle longer than idle.
func (c *Context) Expired(now time.Time, idle time.Duration) bool {
	return idle > 0 && now.Sub(c.UpdatedAt) > idle
}
