// Package dialogue runs a customer turn through the ordering stages:
// discovery, specification gathering, product selection, order creation and
// confirmation.
//
// Each turn works on a private copy of the session. The copy is stored only
// when the turn completes, so a catalogue outage in the middle of a turn
// leaves the conversation exactly where it was.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/config"
	"github.com/ziadkadry99/pneumabot/internal/errs"
	"github.com/ziadkadry99/pneumabot/internal/extract"
	"github.com/ziadkadry99/pneumabot/internal/inquiry"
	"github.com/ziadkadry99/pneumabot/internal/oracle"
	"github.com/ziadkadry99/pneumabot/internal/order"
	"github.com/ziadkadry99/pneumabot/internal/session"
	"github.com/ziadkadry99/pneumabot/internal/spec"
	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// Reply is what a turn exposes to the channel.
type Reply struct {
	Text          string               `json:"text"`
	Stage         session.Stage        `json:"stage"`
	Specification spec.Specification   `json:"specification"`
	Confidence    float64              `json:"confidence"`
	Candidates    []catalog.ProductRef `json:"candidates,omitempty"`
	OrderID       string               `json:"order_id,omitempty"`
	Tone          spec.Tone            `json:"tone"`
	// Error names the kind of a refused input, such as stock_exceeded.
	Error string `json:"error,omitempty"`
}

var (
	cancelWords = []string{
		"vazgectim", "vazgec", "bosver", "olmadi", "iptal", "birak",
		"gerek yok", "sonra bakariz", "cancel",
	}
	greetingWords = map[string]bool{
		"merhaba": true, "merhabalar": true, "selam": true, "selamlar": true, "mrb": true, "slm": true,
		"gunaydin": true, "iyi": true, "gunler": true, "aksamlar": true, "kolay": true, "gelsin": true,
		"hello": true, "hi": true, "hey": true, "selamun": true, "aleykum": true,
		"abi": true, "abla": true, "hocam": true, "kardesim": true, "dostum": true, "reis": true, "canim": true,
	}
	generalIntents = map[oracle.Intent]bool{
		oracle.IntentGeneralQuestion: true,
		oracle.IntentCompanyInfo:     true,
		oracle.IntentComplaint:       true,
	}
	priceWords = []string{"fiyat", "kac para", "ucret", "price"}
	bareNumber = regexp.MustCompile(`^(\d+)(?:\s*mm)?$`)
)

// Deps are the collaborators of an Engine. Oracle may be nil.
type Deps struct {
	Sessions  *session.Manager
	Extractor *extract.Extractor
	Catalog   catalog.Port
	Inquiry   *inquiry.Engine
	Orders    *order.Flow
	Oracle    oracle.Oracle
	Policy    config.Policy
	Log       zerolog.Logger
}

// Engine is the stage machine.
type Engine struct {
	sessions  *session.Manager
	extractor *extract.Extractor
	catalog   catalog.Port
	inquiry   *inquiry.Engine
	orders    *order.Flow
	oracle    oracle.Oracle
	policy    config.Policy
	log       zerolog.Logger
	now       func() time.Time
}

// New creates an engine.
func New(d Deps) *Engine {
	return &Engine{
		sessions:  d.Sessions,
		extractor: d.Extractor,
		catalog:   d.Catalog,
		inquiry:   d.Inquiry,
		orders:    d.Orders,
		oracle:    d.Oracle,
		policy:    d.Policy,
		log:       d.Log,
		now:       time.Now,
	}
}

// turnError marks a failure inside the stage logic, as opposed to a failure
// of the session store.
type turnError struct{ err error }

func (e *turnError) Error() string { return e.err.Error() }
func (e *turnError) Unwrap() error { return e.err }

// HandleTurn processes one customer message for sessionID. Failures inside
// the turn produce a polite reply and leave the session unchanged; only
// session-store and context errors are returned.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, text string) (Reply, error) {
	var reply Reply
	err := e.sessions.Do(ctx, sessionID, func(c *session.Context) error {
		r, err := e.turn(ctx, c, text)
		if err != nil {
			return &turnError{err: err}
		}
		reply = r
		return nil
	})

	var te *turnError
	if !errors.As(err, &te) {
		return reply, err
	}

	kind := errs.KindOf(te.err)
	e.log.Warn().Err(te.err).Str("session", sessionID).Str("kind", kind.String()).Msg("turn failed, session unchanged")
	cur, ok, gerr := e.sessions.Get(ctx, sessionID)
	if gerr != nil {
		return Reply{}, gerr
	}
	if !ok {
		cur = session.New(sessionID, e.now())
	}
	text = textFailure
	if kind == errs.KindCatalogUnavailable {
		text = textUnavailable
	}
	return Reply{
		Text:          text,
		Stage:         cur.Stage,
		Specification: cur.Spec.Clone(),
		Tone:          cur.Tone,
		Error:         kind.String(),
	}, nil
}

// Reset clears a session entirely.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// State returns a copy of a session, or nil when it does not exist.
func (e *Engine) State(ctx context.Context, sessionID string) (*session.Context, error) {
	c, ok, err := e.sessions.Get(ctx, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return c, nil
}

func (e *Engine) turn(ctx context.Context, c *session.Context, raw string) (Reply, error) {
	text := textnorm.Normalize(raw)
	if text == "" {
		return e.reply(c, textEmpty), nil
	}
	tokens := textnorm.Tokenize(text)
	c.Tone = c.Tone.Sticky(spec.DetectTone(text))

	r, err := e.route(ctx, c, text, tokens)
	if err != nil {
		return Reply{}, err
	}

	c.AppendTurn(text, e.now(), e.policy.HistoryLimit)
	c.LastSystemUtterance = r.Text
	e.log.Debug().Str("session", c.ID).Str("stage", string(r.Stage)).
		Str("spec", c.Spec.String()).Float64("confidence", r.Confidence).Msg("turn")
	return r, nil
}

func (e *Engine) route(ctx context.Context, c *session.Context, text, tokens string) (Reply, error) {
	if textnorm.HasWord(tokens, cancelWords...) {
		c.Reset()
		return e.reply(c, textCancelled(c.Tone)), nil
	}

	switch c.Stage {
	case session.StageOrderConfirmation:
		out, err := e.orders.Confirm(ctx, c, text)
		if err != nil {
			return Reply{}, err
		}
		r := e.outcome(c, out)
		if out.OrderID != "" {
			r.Stage = session.StageCompleted
		}
		return r, nil
	case session.StageOrderCreation:
		if !isNewRequest(text, tokens) {
			out, err := e.orders.CaptureQuantity(ctx, c, text)
			if err != nil {
				return Reply{}, err
			}
			return e.outcome(c, out), nil
		}
		c.PendingOrder = nil
		c.Stage = session.StageDiscovery
	case session.StageProductSelection:
		if !isNewRequest(text, tokens) {
			return e.selectProduct(ctx, c, tokens)
		}
		c.Shortlist = nil
		c.Stage = session.StageDiscovery
	}

	if c.Stage == session.StageDiscovery && isGreeting(tokens) {
		return e.reply(c, textGreeting(c.Tone)), nil
	}
	return e.discover(ctx, c, text, tokens)
}

func isGreeting(tokens string) bool {
	words := strings.Fields(tokens)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !greetingWords[w] {
			return false
		}
	}
	return true
}

// isNewRequest reports whether a message sent while a shortlist is open or
// a quantity is awaited starts a different search rather than answering.
func isNewRequest(text, tokens string) bool {
	if bareNumber.MatchString(tokens) {
		return false
	}
	if spec.Classify(text) != spec.CategoryUnknown {
		return true
	}
	d := extract.Deterministic(text)
	return d.HasDimensions()
}

// selectProduct resolves a pick from the shortlist by 1-based index or code.
func (e *Engine) selectProduct(ctx context.Context, c *session.Context, tokens string) (Reply, error) {
	words := strings.Fields(tokens)
	var picked *catalog.ProductRef
	if len(words) > 0 {
		if n, err := strconv.Atoi(words[0]); err == nil && n >= 1 && n <= len(c.Shortlist) {
			picked = &c.Shortlist[n-1]
		}
	}
	if picked == nil {
	search:
		for _, w := range words {
			for i := range c.Shortlist {
				if strings.EqualFold(c.Shortlist[i].Code, w) {
					picked = &c.Shortlist[i]
					break search
				}
			}
		}
	}
	if picked == nil {
		r := e.reply(c, textSelectRange(len(c.Shortlist)))
		r.Error = errs.KindAmbiguousSelection.String()
		return r, nil
	}
	return e.offer(ctx, c, *picked)
}

// offer re-reads the stock of p and either starts an order or explains that
// it is sold out.
func (e *Engine) offer(ctx context.Context, c *session.Context, p catalog.ProductRef) (Reply, error) {
	stock, err := e.catalog.CurrentStock(ctx, p.ID)
	if err != nil {
		return Reply{}, err
	}
	p.Stock = stock
	if !p.InStock() {
		c.Shortlist = nil
		c.PendingOrder = nil
		c.Stage = session.StageGeneral
		return e.reply(c, textOutOfStock(p, c.Tone)), nil
	}
	out, err := e.orders.Start(ctx, c, p)
	if err != nil {
		return Reply{}, err
	}
	return e.outcome(c, out), nil
}

func (e *Engine) discover(ctx context.Context, c *session.Context, text, tokens string) (Reply, error) {
	res := e.extractor.Extract(ctx, extract.Input{
		Utterance:     text,
		History:       c.Utterances(3),
		Current:       c.Spec.Clone(),
		PreviousReply: c.LastSystemUtterance,
	})
	e.answerOpenDimension(c, &res, tokens)
	category := spec.Classify(text)

	withConfidence := func(r Reply, err error) (Reply, error) {
		r.Confidence = res.Confidence
		return r, err
	}

	if code := res.Delta.ProductCode; code != nil {
		p, err := e.catalog.ByCode(ctx, *code)
		if err != nil {
			return Reply{}, err
		}
		switch {
		case p != nil:
			c.Spec.Merge(res.Delta)
			return withConfidence(e.offer(ctx, c, *p))
		case res.Intent == oracle.IntentProductCodeSearch || res.Delta.SourceOf(spec.FieldProductCode) == spec.SourceOracle:
			c.Stage = session.StageGeneral
			return withConfidence(e.reply(c, textCodeNotFound(*code, c.Tone)), nil)
		}
		// A code guessed by the rules alone may just be a word like "M5".
		res.Delta.ProductCode = nil
		res.Delta.SetSource(spec.FieldProductCode, spec.SourceNone)
	}

	if res.Action == oracle.ActionSearchDirect || (res.Action == oracle.ActionNone && category == spec.CategoryAccessory) {
		c.Reset()
		query := text
		if res.CorrectedUtterance != "" {
			query = res.CorrectedUtterance
		}
		return withConfidence(e.keywordSearch(ctx, c, query))
	}

	if asksPrice(res, tokens) && !res.HasFacts() && !c.Spec.HasDimensions() {
		c.Stage = session.StageDiscovery
		return withConfidence(e.reply(c, textPriceNeedsSpec(c.Tone)), nil)
	}

	if res.Action == oracle.ActionClarify ||
		(res.Confidence < e.policy.ConfidenceThreshold && category == spec.CategoryUnknown && !res.HasFacts()) {
		msg := res.SuggestedReply
		if msg == "" {
			msg = textClarify
		}
		return withConfidence(e.reply(c, msg), nil)
	}

	c.Spec.Merge(res.Delta)

	switch {
	case c.Spec.Complete():
		return withConfidence(e.match(ctx, c))
	case c.Spec.HasDimensions():
		c.Stage = session.StageSpecGathering
		return withConfidence(e.ask(ctx, c))
	case category == spec.CategoryCylinder || res.Action == oracle.ActionRequestParams:
		c.Stage = session.StageSpecGathering
		return withConfidence(e.ask(ctx, c))
	case category == spec.CategoryValve:
		c.Stage = session.StageSpecGathering
		return withConfidence(e.reply(c, textValve), nil)
	case generalIntents[res.Intent] && e.oracle != nil:
		return withConfidence(e.generate(ctx, c, text))
	case len(textnorm.SearchTerms(text)) > 0:
		return withConfidence(e.keywordSearch(ctx, c, text))
	default:
		c.Stage = session.StageDiscovery
		return withConfidence(e.reply(c, textHelp(c.Tone)), nil)
	}
}

// asksPrice reports a price question, from the oracle's intent or the words.
func asksPrice(res extract.Result, tokens string) bool {
	return res.Intent == oracle.IntentPriceInquiry || textnorm.HasWord(tokens, priceWords...)
}

// answerOpenDimension reads a bare number ("200", "200 mm") as the answer to
// the dimension the conversation is waiting for.
func (e *Engine) answerOpenDimension(c *session.Context, res *extract.Result, tokens string) {
	if res.Delta.Diameter != nil || res.Delta.Stroke != nil {
		return
	}
	m := bareNumber.FindStringSubmatch(tokens)
	if m == nil {
		return
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return
	}
	switch {
	case c.Stage == session.StageSpecGathering && c.Spec.Complete() && n <= e.policy.MaxStrokeMM:
		// The customer picks one of the strokes offered after a miss.
		c.Spec.Stroke = nil
		c.Spec.SetSource(spec.FieldStroke, spec.SourceNone)
		res.Delta.Stroke = spec.Int(n)
		res.Delta.SetSource(spec.FieldStroke, spec.SourceFallback)
	case c.Spec.Diameter != nil && c.Spec.Stroke == nil && n <= e.policy.MaxStrokeMM:
		res.Delta.Stroke = spec.Int(n)
		res.Delta.SetSource(spec.FieldStroke, spec.SourceFallback)
	case c.Spec.Stroke != nil && c.Spec.Diameter == nil && n <= e.policy.MaxDiameterMM:
		res.Delta.Diameter = spec.Int(n)
		res.Delta.SetSource(spec.FieldDiameter, spec.SourceFallback)
	default:
		return
	}
	// A bare number is not a quantity here.
	if res.Delta.SourceOf(spec.FieldQuantity) == spec.SourceFallback {
		res.Delta.Quantity = nil
		res.Delta.SetSource(spec.FieldQuantity, spec.SourceNone)
	}
}

// match resolves a complete specification against the catalogue.
func (e *Engine) match(ctx context.Context, c *session.Context) (Reply, error) {
	d, s := *c.Spec.Diameter, *c.Spec.Stroke
	hits, err := e.catalog.ExactMatch(ctx, d, s, c.Spec.FeatureList())
	if err != nil {
		return Reply{}, err
	}

	switch len(hits) {
	case 0:
		opts, err := e.catalog.StrokeOptionsFor(ctx, d)
		if err != nil {
			return Reply{}, err
		}
		// The stroke stays; a bare number in reply replaces it.
		c.Stage = session.StageSpecGathering
		return e.reply(c, textNoExactMatch(c.Spec, opts.Ranked(e.policy.InquiryTopK))), nil
	case 1:
		return e.offer(ctx, c, hits[0])
	default:
		header := fmt.Sprintf("**%d mm çap / %d mm strok** için %d ürün bulundu:", d, s, len(hits))
		return e.shortlist(c, header, hits), nil
	}
}

func (e *Engine) ask(ctx context.Context, c *session.Context) (Reply, error) {
	q, err := e.inquiry.Ask(ctx, c.Spec, c.Tone)
	if err != nil {
		return Reply{}, err
	}
	r := e.reply(c, q.Text)
	for _, o := range q.Options {
		r.Candidates = append(r.Candidates, o.Products...)
	}
	return r, nil
}

// keywordSearch looks products up by name and routes on the number of hits.
func (e *Engine) keywordSearch(ctx context.Context, c *session.Context, query string) (Reply, error) {
	hits, err := e.catalog.KeywordSearch(ctx, query)
	if err != nil {
		return Reply{}, err
	}
	switch len(hits) {
	case 0:
		c.Stage = session.StageGeneral
		return e.reply(c, sorry(c.Tone)+lowerFirst(textNotFound)), nil
	case 1:
		return e.offer(ctx, c, hits[0])
	default:
		header := fmt.Sprintf("“%s” için %d ürün bulundu:", strings.TrimSpace(query), len(hits))
		return e.shortlist(c, header, hits), nil
	}
}

func (e *Engine) shortlist(c *session.Context, header string, hits []catalog.ProductRef) Reply {
	limit := e.policy.ShortlistLimit
	if limit <= 0 || limit > len(hits) {
		limit = len(hits)
	}
	c.Shortlist = append([]catalog.ProductRef(nil), hits[:limit]...)
	c.PendingOrder = nil
	c.Stage = session.StageProductSelection
	return e.reply(c, textShortlist(header, c.Shortlist, len(hits)-limit))
}

// generate asks the oracle for a free-form answer to a non-product question.
func (e *Engine) generate(ctx context.Context, c *session.Context, text string) (Reply, error) {
	gctx, cancel := context.WithTimeout(ctx, e.policy.OracleTimeout)
	defer cancel()
	answer, err := e.oracle.GenerateReply(gctx, oracle.ReplyRequest{
		Utterance: text,
		Spec:      c.Spec.Clone(),
		Tone:      c.Tone,
		History:   c.Utterances(3),
	})
	if err != nil || strings.TrimSpace(answer) == "" {
		e.log.Warn().Err(err).Msg("reply generation failed")
		c.Stage = session.StageDiscovery
		return e.reply(c, textHelp(c.Tone)), nil
	}
	c.Stage = session.StageGeneral
	return e.reply(c, strings.TrimSpace(answer)), nil
}

func (e *Engine) outcome(c *session.Context, out order.Outcome) Reply {
	r := e.reply(c, out.Text)
	r.OrderID = out.OrderID
	if out.Rejection != nil {
		r.Error = out.Rejection.Kind().String()
	}
	return r
}

// reply snapshots the session state into a Reply.
func (e *Engine) reply(c *session.Context, text string) Reply {
	r := Reply{
		Text:          text,
		Stage:         c.Stage,
		Specification: c.Spec.Clone(),
		Confidence:    1,
		Tone:          c.Tone,
	}
	switch {
	case len(c.Shortlist) > 0:
		r.Candidates = append([]catalog.ProductRef(nil), c.Shortlist...)
	case c.PendingOrder != nil:
		r.Candidates = []catalog.ProductRef{c.PendingOrder.Product}
	}
	return r
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = []rune(strings.ToLower(string(r[0])))[0]
	return string(r)
}
