// Package order takes a selected product through quantity capture, stock
// validation and confirmation to a persisted order.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/config"
	"github.com/ziadkadry99/pneumabot/internal/errs"
	"github.com/ziadkadry99/pneumabot/internal/extract"
	"github.com/ziadkadry99/pneumabot/internal/oracle"
	"github.com/ziadkadry99/pneumabot/internal/session"
	"github.com/ziadkadry99/pneumabot/internal/spec"
	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

var affirmatives = map[string]bool{
	"evet": true, "e": true, "yes": true, "tamam": true, "onayla": true,
	"onayliyorum": true, "kaydet": true, "ok": true, "okey": true,
}

// Outcome is the result of one order step. Rejection is set when the
// customer's input was refused (unclear quantity, too many units); it is
// part of the conversation, not a failure of the turn.
type Outcome struct {
	Text      string
	OrderID   string
	Rejection *errs.Error
}

// Flow runs the ordering stages.
type Flow struct {
	catalog  catalog.Port
	oracle   oracle.Oracle
	recorder Recorder
	policy   config.Policy
	log      zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a flow. o may be nil, in which case quantities are read by
// pattern only.
func New(c catalog.Port, o oracle.Oracle, r Recorder, policy config.Policy, log zerolog.Logger) *Flow {
	return &Flow{
		catalog:  c,
		oracle:   o,
		recorder: r,
		policy:   policy,
		log:      log,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Start puts p on the session as the product being ordered and moves to
// order_creation. A quantity already in the specification is applied
// straight away.
func (f *Flow) Start(ctx context.Context, c *session.Context, p catalog.ProductRef) (Outcome, error) {
	c.PendingOrder = &session.PendingOrder{Product: p}
	c.Shortlist = nil
	c.Stage = session.StageOrderCreation
	if c.Spec.Quantity != nil {
		return f.ApplyQuantity(ctx, c, *c.Spec.Quantity)
	}
	return Outcome{Text: fmt.Sprintf("%s**%s** (%s) stokta mevcut, %s adet var. Kaç adet istersiniz?",
		opener(c.Tone), p.DisplayName, p.Code, formatQty(p.Stock))}, nil
}

// CaptureQuantity reads a quantity from text and applies it.
func (f *Flow) CaptureQuantity(ctx context.Context, c *session.Context, text string) (Outcome, error) {
	q, ok := f.quantity(ctx, text)
	if !ok {
		err := errs.New(errs.KindAmbiguousSelection, "order.capture_quantity", "no quantity in reply")
		return Outcome{Text: "Kaç adet istediğinizi sayı olarak yazar mısınız? Örneğin: *5 adet*.", Rejection: err}, nil
	}
	return f.ApplyQuantity(ctx, c, q)
}

func (f *Flow) quantity(ctx context.Context, text string) (int, bool) {
	if f.oracle != nil {
		octx, cancel := context.WithTimeout(ctx, f.policy.OracleTimeout)
		q, err := f.oracle.ExtractQuantity(octx, text)
		cancel()
		if err != nil {
			f.log.Warn().Err(err).Msg("oracle quantity extraction failed, using rules")
		} else if q != nil {
			return *q, true
		}
	}
	return extract.Quantity(text)
}

// ApplyQuantity validates q against live stock. Valid quantities move the
// session to order_confirmation with a summary; invalid ones leave the stage
// unchanged.
func (f *Flow) ApplyQuantity(ctx context.Context, c *session.Context, q int) (Outcome, error) {
	po := c.PendingOrder
	if po == nil {
		c.Reset()
		return Outcome{Text: "Hangi ürünü sipariş etmek istediğinizi yazar mısınız?"}, nil
	}
	if q <= 0 {
		err := errs.Errorf(errs.KindAmbiguousSelection, "order.apply_quantity", "quantity %d", q)
		return Outcome{Text: "Adet en az 1 olmalı. Kaç adet istersiniz?", Rejection: err}, nil
	}

	stock, err := f.catalog.CurrentStock(ctx, po.Product.ID)
	if err != nil {
		return Outcome{}, err
	}
	po.Product.Stock = stock

	if stock < 1 {
		c.Reset()
		c.Stage = session.StageGeneral
		return Outcome{Text: fmt.Sprintf("%s**%s** şu anda stokta kalmadı. Satış temsilcimiz tedarik süresi hakkında bilgi verebilir.",
			sorry(c.Tone), po.Product.DisplayName)}, nil
	}
	if float64(q) > stock {
		err := errs.Errorf(errs.KindStockExceeded, "order.apply_quantity", "requested %d, available %s", q, formatQty(stock))
		return Outcome{
			Text:      fmt.Sprintf("%sStokta sadece %s adet mevcut. En fazla %s adet sipariş verebilirsiniz.", sorry(c.Tone), formatQty(stock), formatQty(stock)),
			Rejection: err,
		}, nil
	}

	po.Quantity = q
	c.Spec.Quantity = spec.Int(q)
	c.Spec.SetSource(spec.FieldQuantity, spec.SourceOracle)
	c.Stage = session.StageOrderConfirmation
	return Outcome{Text: f.summary(po)}, nil
}

func (f *Flow) summary(po *session.PendingOrder) string {
	p := po.Product
	var b strings.Builder
	b.WriteString("**Sipariş özeti**\n")
	fmt.Fprintf(&b, "- Ürün: %s\n", p.DisplayName)
	fmt.Fprintf(&b, "- Kod: %s\n", p.Code)
	fmt.Fprintf(&b, "- Adet: %d\n", po.Quantity)
	if p.UnitPrice > 0 {
		fmt.Fprintf(&b, "- Birim fiyat: %s TL\n", formatMoney(p.UnitPrice))
		fmt.Fprintf(&b, "- Toplam: %s TL\n", formatMoney(p.UnitPrice*float64(po.Quantity)))
	} else {
		b.WriteString("- Fiyat: satış temsilcimiz tarafından bildirilecek\n")
	}
	if SameDayDispatch(f.now(), f.policy.Location(), f.policy.DispatchCutoffHour) {
		b.WriteString("- Sevkiyat: bugün kargoya verilir\n")
	} else {
		b.WriteString("- Sevkiyat: yarın kargoya verilir\n")
	}
	b.WriteString("Onaylıyor musunuz? (evet / hayır)")
	return b.String()
}

// Confirm records the order when text is affirmative and cancels it
// otherwise. Either way the session returns to discovery.
func (f *Flow) Confirm(ctx context.Context, c *session.Context, text string) (Outcome, error) {
	po := c.PendingOrder
	if po == nil || po.Quantity <= 0 || !IsAffirmative(text) {
		c.Reset()
		return Outcome{Text: "Siparişi iptal ettim. Başka bir ürün için yardımcı olabilir miyim?"}, nil
	}

	snapshot, err := json.Marshal(c)
	if err != nil {
		return Outcome{}, errs.Wrap(err, errs.KindInternal, "order.confirm")
	}
	id := f.newID()
	reply := fmt.Sprintf("%sSiparişiniz alındı. Sipariş numaranız: **%s**. Satış ekibimiz en kısa sürede sizinle iletişime geçecek.",
		thanks(c.Tone), shortID(id))

	err = f.recorder.Record(ctx, Record{
		ID:         id,
		CustomerID: c.ID,
		ProductID:  po.Product.ID,
		Quantity:   po.Quantity,
		UnitPrice:  po.Product.UnitPrice,
		TotalPrice: po.Product.UnitPrice * float64(po.Quantity),
		Snapshot:   snapshot,
		Status:     StatusConfirmed,
		UserQuery:  text,
		Reply:      reply,
		CreatedAt:  f.now(),
	})
	if err != nil {
		return Outcome{}, errs.Wrap(err, errs.KindInternal, "order.confirm")
	}
	f.log.Info().Str("order_id", id).Str("session", c.ID).Str("code", po.Product.Code).Int("quantity", po.Quantity).Msg("order confirmed")

	c.Reset()
	return Outcome{Text: reply, OrderID: id}, nil
}

// IsAffirmative reports whether the first word of text accepts an order.
func IsAffirmative(text string) bool {
	words := strings.Fields(textnorm.Tokenize(text))
	return len(words) > 0 && affirmatives[words[0]]
}

// SameDayDispatch reports whether an order placed at now leaves today:
// local hour before cutoffHour.
func SameDayDispatch(now time.Time, loc *time.Location, cutoffHour int) bool {
	return now.In(loc).Hour() < cutoffHour
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

func formatMoney(v float64) string {
	return message.NewPrinter(language.Turkish).Sprint(number.Decimal(v, number.Scale(2)))
}

func formatQty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return message.NewPrinter(language.Turkish).Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

func opener(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Süper abi! "
	}
	return ""
}

func sorry(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Kusura bakma abi, "
	}
	return "Üzgünüz, "
}

func thanks(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Eyvallah abi! "
	}
	return "Teşekkür ederiz! "
}
