package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/errs"
	"github.com/ziadkadry99/pneumabot/internal/llm"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

const classifyPrompt = `Sen pnömatik ürünler satan bir B2B satış asistanısın. Müşterinin mesajından ürün özelliklerini ve niyetini çıkar.

Çıkaracağın alanlar:
- diameter: silindir çapı (mm, sayı)
- stroke: strok (mm, sayı)
- quantity: adet
- features: özellikler (magnetic, cushioned, double_acting, single_acting, stainless, pneumatic)
- brand, product_code, connection_size

Sadece mesajda açıkça geçen değerleri doldur, diğerlerini null bırak. Önceki bağlamdaki değerleri tekrar yazma.

action alanı:
- "search_direct": müşteri aksesuar, yedek parça veya isimle ürün arıyor (bobin, sensör, rakor...)
- "request_params": silindir istiyor ama ölçü vermemiş
- "clarify_intent": mesaj anlaşılmıyor, soru sorulmalı
- "": diğer durumlar

Yalnızca şu JSON nesnesini döndür:
{
  "intent": "spec_query|product_search|product_code_search|order_intent|price_inquiry|company_info|general_question|greeting|complaint",
  "sub_intent": "",
  "action": "",
  "confidence": 0.0,
  "extracted_specs": {"diameter": null, "stroke": null, "quantity": null, "features": [], "brand": null, "product_code": null, "connection_size": null},
  "suggested_response": "",
  "corrected_query": ""
}

Türkçe terimler: çap, strok, adet, tane, parça, manyetik, amortisörlü, çift etkili, paslanmaz.`

const intentPrompt = `Kullanıcının niyetini sınıflandır. Sadece kategori ismini döndür, açıklama yapma:
spec_query, product_search, product_code_search, order_intent, price_inquiry, company_info, general_question, greeting, complaint`

const quantityPrompt = `Müşterinin sipariş etmek istediği adedi çıkar. Yalnızca {"quantity": sayı veya null} döndür.`

const replyPrompt = `Sen profesyonel bir B2B pnömatik ürün satış danışmanısın. Kısa, doğru ve yardımsever yanıt ver.
Stok, fiyat veya teslimat hakkında bilgi uydurma. Türkçe yanıt ver.`

// LLMOracle implements Oracle on top of a chat completion provider.
type LLMOracle struct {
	provider llm.Provider
	model    string
}

// NewLLMOracle creates an oracle backed by provider. An empty model uses the
// provider default.
func NewLLMOracle(provider llm.Provider, model string) *LLMOracle {
	return &LLMOracle{provider: provider, model: model}
}

func (o *LLMOracle) complete(ctx context.Context, op string, req llm.CompletionRequest) (string, error) {
	req.Model = o.model
	resp, err := o.provider.Complete(ctx, req)
	if err != nil {
		return "", errs.Wrap(err, errs.KindOracleUnavailable, op)
	}
	return resp.Content, nil
}

// ClassifySpecification asks the model for a JSON classification of the
// utterance in the context of the conversation so far.
func (o *LLMOracle) ClassifySpecification(ctx context.Context, req Request) (*Classification, error) {
	ctxJSON, _ := json.Marshal(struct {
		Current       spec.Specification `json:"current_specification"`
		History       []string           `json:"recent_messages,omitempty"`
		PreviousReply string             `json:"previous_reply,omitempty"`
	}{req.Current, lastN(req.History, 3), req.PreviousReply})

	content, err := o.complete(ctx, "oracle.classify_specification", llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: classifyPrompt},
			{Role: llm.RoleAssistant, Content: "Konuşma bağlamı: " + string(ctxJSON)},
			{Role: llm.RoleUser, Content: "Kullanıcı mesajı: " + req.Utterance},
		},
		MaxTokens:   600,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	c, err := parseClassification(content)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindOracleUnavailable, "oracle.classify_specification")
	}
	return c, nil
}

// ClassifyIntent returns the intent category of the utterance, or "" when
// the model answers with something unrecognised.
func (o *LLMOracle) ClassifyIntent(ctx context.Context, utterance string, history []string) (Intent, error) {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: intentPrompt}}
	if h := lastN(history, 3); len(h) > 0 {
		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: "Geçmiş konuşma: " + strings.Join(h, "\n")})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: utterance})

	content, err := o.complete(ctx, "oracle.classify_intent", llm.CompletionRequest{
		Messages:    msgs,
		MaxTokens:   20,
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}
	return normalizeIntent(content), nil
}

// ExtractQuantity asks the model for the ordered quantity.
func (o *LLMOracle) ExtractQuantity(ctx context.Context, utterance string) (*int, error) {
	content, err := o.complete(ctx, "oracle.extract_quantity", llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: quantityPrompt},
			{Role: llm.RoleUser, Content: utterance},
		},
		MaxTokens:   30,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}
	q, err := parseQuantity(content)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindOracleUnavailable, "oracle.extract_quantity")
	}
	return q, nil
}

// GenerateReply writes a free-form answer for questions outside the
// structured flow.
func (o *LLMOracle) GenerateReply(ctx context.Context, req ReplyRequest) (string, error) {
	system := replyPrompt
	if req.Tone == spec.ToneFriendly {
		system += "\nMüşteri samimi konuşuyor, sen de samimi ama saygılı ol."
	}
	user := fmt.Sprintf("Müşteri mesajı: %s\nBilinen ihtiyaç: %s", req.Utterance, req.Spec.String())
	if h := lastN(req.History, 3); len(h) > 0 {
		user += "\nSon mesajlar: " + strings.Join(h, " | ")
	}

	content, err := o.complete(ctx, "oracle.generate_reply", llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		MaxTokens:   400,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errs.New(errs.KindOracleUnavailable, "oracle.generate_reply", "empty reply")
	}
	return content, nil
}

func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
