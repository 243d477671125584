// Package oracle is the language-understanding boundary. The oracle reads a
// customer utterance and returns a typed classification; everything it says
// is advisory and is reconciled with deterministic extraction downstream.
package oracle

import (
	"context"

	"github.com/ziadkadry99/pneumabot/internal/spec"
)

// Intent is the coarse purpose of an utterance.
type Intent string

const (
	IntentSpecQuery         Intent = "spec_query"
	IntentProductSearch     Intent = "product_search"
	IntentProductCodeSearch Intent = "product_code_search"
	IntentOrder             Intent = "order_intent"
	IntentPriceInquiry      Intent = "price_inquiry"
	IntentCompanyInfo       Intent = "company_info"
	IntentGeneralQuestion   Intent = "general_question"
	IntentGreeting          Intent = "greeting"
	IntentComplaint         Intent = "complaint"
)

var knownIntents = map[Intent]bool{
	IntentSpecQuery:         true,
	IntentProductSearch:     true,
	IntentProductCodeSearch: true,
	IntentOrder:             true,
	IntentPriceInquiry:      true,
	IntentCompanyInfo:       true,
	IntentGeneralQuestion:   true,
	IntentGreeting:          true,
	IntentComplaint:         true,
}

// Known reports whether i is one of the recognised intents.
func (i Intent) Known() bool { return knownIntents[i] }

// Action is the oracle's routing hint.
type Action string

const (
	ActionNone          Action = ""
	ActionSearchDirect  Action = "search_direct"
	ActionRequestParams Action = "request_params"
	ActionClarify       Action = "clarify_intent"
)

// Request is the input of ClassifySpecification.
type Request struct {
	Utterance     string
	History       []string // most recent last, at most three
	Current       spec.Specification
	PreviousReply string
}

// Classification is what the oracle understood from one utterance.
type Classification struct {
	Intent             Intent
	SubIntent          string
	Action             Action
	Confidence         float64
	Delta              spec.Specification // only fields the oracle filled
	SuggestedReply     string
	CorrectedUtterance string
}

// ReplyRequest is the input of GenerateReply.
type ReplyRequest struct {
	Utterance string
	Spec      spec.Specification
	Tone      spec.Tone
	History   []string
}

// Oracle understands customer utterances. Implementations must honour ctx
// cancellation and must not retry on their own.
type Oracle interface {
	ClassifySpecification(ctx context.Context, req Request) (*Classification, error)
	ClassifyIntent(ctx context.Context, utterance string, history []string) (Intent, error)
	ExtractQuantity(ctx context.Context, utterance string) (*int, error)
	GenerateReply(ctx context.Context, req ReplyRequest) (string, error)
}
