package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/catalog/catalogtest"
	"github.com/ziadkadry99/pneumabot/internal/config"
	"github.com/ziadkadry99/pneumabot/internal/db"
	"github.com/ziadkadry99/pneumabot/internal/errs"
	"github.com/ziadkadry99/pneumabot/internal/oracle"
	"github.com/ziadkadry99/pneumabot/internal/session"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

type fakeOracle struct {
	quantity *int
	err      error
}

func (f *fakeOracle) ClassifySpecification(context.Context, oracle.Request) (*oracle.Classification, error) {
	return nil, errors.New("not used")
}
func (f *fakeOracle) ClassifyIntent(context.Context, string, []string) (oracle.Intent, error) {
	return "", errors.New("not used")
}
func (f *fakeOracle) ExtractQuantity(context.Context, string) (*int, error) {
	return f.quantity, f.err
}
func (f *fakeOracle) GenerateReply(context.Context, oracle.ReplyRequest) (string, error) {
	return "", errors.New("not used")
}

type memRecorder struct {
	records []Record
	err     error
}

func (m *memRecorder) Record(_ context.Context, r Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

var cylinder = catalog.ProductRef{ID: 7, Code: "A1", DisplayName: "ANS 100*200 SIL", Stock: 10, UnitPrice: 1200}

// 10:00 in Istanbul.
var morning = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

func newFlow(t *testing.T, o oracle.Oracle, rec Recorder, products ...catalog.ProductRef) (*Flow, *catalogtest.MemorySource) {
	t.Helper()
	if len(products) == 0 {
		products = []catalog.ProductRef{cylinder}
	}
	svc, src := catalogtest.NewService(products...)
	f := New(svc, o, rec, config.DefaultPolicy(), zerolog.Nop())
	f.now = func() time.Time { return morning }
	f.newID = func() string { return "0f8fad5b-d9cb-469f-a165-70867728950e" }
	return f, src
}

func pending(p catalog.ProductRef) *session.Context {
	c := session.New("web:1", morning)
	c.Stage = session.StageOrderCreation
	c.PendingOrder = &session.PendingOrder{Product: p}
	return c
}

func TestStartAsksForQuantity(t *testing.T) {
	f, _ := newFlow(t, nil, &memRecorder{})
	c := session.New("web:1", morning)
	c.Shortlist = []catalog.ProductRef{cylinder}

	out, err := f.Start(context.Background(), c, cylinder)
	if err != nil {
		t.Fatal(err)
	}
	if c.Stage != session.StageOrderCreation || c.PendingOrder == nil || c.Shortlist != nil {
		t.Errorf("session = %+v", c)
	}
	if !strings.Contains(out.Text, "10 adet var") || !strings.Contains(out.Text, "Kaç adet") {
		t.Errorf("text = %s", out.Text)
	}
}

func TestStartCapturesKnownQuantity(t *testing.T) {
	f, _ := newFlow(t, nil, &memRecorder{})
	c := session.New("web:1", morning)
	c.Spec.Quantity = spec.Int(3)

	out, err := f.Start(context.Background(), c, cylinder)
	if err != nil {
		t.Fatal(err)
	}
	if c.Stage != session.StageOrderConfirmation || c.PendingOrder.Quantity != 3 {
		t.Errorf("stage = %s, pending = %+v", c.Stage, c.PendingOrder)
	}
	if !strings.Contains(out.Text, "Sipariş özeti") {
		t.Errorf("text = %s", out.Text)
	}
}

func TestCaptureQuantitySummary(t *testing.T) {
	f, _ := newFlow(t, nil, &memRecorder{})
	c := pending(cylinder)

	out, err := f.CaptureQuantity(context.Background(), c, "5 adet lütfen")
	if err != nil {
		t.Fatal(err)
	}
	if out.Rejection != nil {
		t.Fatalf("unexpected rejection: %v", out.Rejection)
	}
	if c.Stage != session.StageOrderConfirmation || c.PendingOrder.Quantity != 5 || *c.Spec.Quantity != 5 {
		t.Errorf("session = %+v", c)
	}
	for _, want := range []string{"ANS 100*200 SIL", "Kod: A1", "Adet: 5", "1.200,00 TL", "6.000,00 TL", "bugün kargoya"} {
		if !strings.Contains(out.Text, want) {
			t.Errorf("summary missing %q:\n%s", want, out.Text)
		}
	}
}

func TestCaptureQuantityExceedsStock(t *testing.T) {
	f, _ := newFlow(t, nil, &memRecorder{})
	c := pending(cylinder)

	out, err := f.CaptureQuantity(context.Background(), c, "15")
	if err != nil {
		t.Fatal(err)
	}
	if out.Rejection == nil || out.Rejection.Kind() != errs.KindStockExceeded {
		t.Fatalf("rejection = %v, want stock_exceeded", out.Rejection)
	}
	if !strings.Contains(out.Text, "Stokta sadece 10 adet mevcut") {
		t.Errorf("text = %s", out.Text)
	}
	if c.Stage != session.StageOrderCreation || c.PendingOrder.Quantity != 0 {
		t.Errorf("stage = %s, pending = %+v", c.Stage, c.PendingOrder)
	}
}

func TestCaptureQuantityUsesLiveStock(t *testing.T) {
	f, src := newFlow(t, nil, &memRecorder{})
	src.SetStock("A1", 4)
	c := pending(cylinder)

	out, _ := f.CaptureQuantity(context.Background(), c, "6 tane")
	if out.Rejection == nil || !strings.Contains(out.Text, "sadece 4 adet") {
		t.Errorf("stale stock used: %s", out.Text)
	}
	if c.PendingOrder.Product.Stock != 4 {
		t.Errorf("pending stock not refreshed: %v", c.PendingOrder.Product.Stock)
	}
}

func TestCaptureQuantitySoldOut(t *testing.T) {
	f, src := newFlow(t, nil, &memRecorder{})
	src.SetStock("A1", 0)
	c := pending(cylinder)

	out, err := f.CaptureQuantity(context.Background(), c, "2")
	if err != nil {
		t.Fatal(err)
	}
	if c.Stage != session.StageGeneral || c.PendingOrder != nil {
		t.Errorf("session = %+v", c)
	}
	if !strings.Contains(out.Text, "stokta kalmadı") {
		t.Errorf("text = %s", out.Text)
	}
}

func TestCaptureQuantityUnclear(t *testing.T) {
	f, _ := newFlow(t, nil, &memRecorder{})
	c := pending(cylinder)

	out, err := f.CaptureQuantity(context.Background(), c, "bilmiyorum")
	if err != nil {
		t.Fatal(err)
	}
	if out.Rejection == nil || out.Rejection.Kind() != errs.KindAmbiguousSelection {
		t.Errorf("rejection = %v", out.Rejection)
	}
	if c.Stage != session.StageOrderCreation {
		t.Errorf("stage = %s", c.Stage)
	}
}

func TestCaptureQuantityRejectsZero(t *testing.T) {
	f, _ := newFlow(t, &fakeOracle{quantity: spec.Int(0)}, &memRecorder{})
	out, _ := f.CaptureQuantity(context.Background(), pending(cylinder), "sıfır")
	if out.Rejection == nil || out.Rejection.Kind() != errs.KindAmbiguousSelection {
		t.Errorf("rejection = %v", out.Rejection)
	}
}

func TestCaptureQuantityRejectsNegative(t *testing.T) {
	f, _ := newFlow(t, nil, &memRecorder{})
	for _, in := range []string{"-3", "-3 adet", "eksi 3"} {
		c := pending(cylinder)
		out, err := f.CaptureQuantity(context.Background(), c, in)
		if err != nil {
			t.Fatalf("CaptureQuantity(%q): %v", in, err)
		}
		if out.Rejection == nil || out.Rejection.Kind() != errs.KindAmbiguousSelection {
			t.Errorf("CaptureQuantity(%q) rejection = %v", in, out.Rejection)
		}
		if c.Stage != session.StageOrderCreation || c.PendingOrder.Quantity != 0 {
			t.Errorf("CaptureQuantity(%q) moved on: stage %s, quantity %d", in, c.Stage, c.PendingOrder.Quantity)
		}
	}
}

func TestCaptureQuantityPrefersOracle(t *testing.T) {
	f, _ := newFlow(t, &fakeOracle{quantity: spec.Int(2)}, &memRecorder{})
	c := pending(cylinder)
	if _, err := f.CaptureQuantity(context.Background(), c, "iki tane, 100 çaplı olan"); err != nil {
		t.Fatal(err)
	}
	if c.PendingOrder.Quantity != 2 {
		t.Errorf("quantity = %d, want the oracle's 2", c.PendingOrder.Quantity)
	}

	f, _ = newFlow(t, &fakeOracle{err: errors.New("timeout")}, &memRecorder{})
	c = pending(cylinder)
	if _, err := f.CaptureQuantity(context.Background(), c, "3 adet"); err != nil {
		t.Fatal(err)
	}
	if c.PendingOrder.Quantity != 3 {
		t.Errorf("quantity = %d, want the rule-based 3", c.PendingOrder.Quantity)
	}
}

func TestCaptureQuantityCatalogDown(t *testing.T) {
	f, src := newFlow(t, nil, &memRecorder{})
	src.SetErr(errors.New("connection reset"))
	_, err := f.CaptureQuantity(context.Background(), pending(cylinder), "2")
	if !errs.Is(err, errs.KindCatalogUnavailable) {
		t.Errorf("err = %v", err)
	}
}

func TestSummaryWithoutPrice(t *testing.T) {
	free := cylinder
	free.UnitPrice = 0
	f, _ := newFlow(t, nil, &memRecorder{}, free)
	f.now = func() time.Time { return morning.Add(8 * time.Hour) }

	out, _ := f.CaptureQuantity(context.Background(), pending(free), "1")
	if !strings.Contains(out.Text, "satış temsilcimiz tarafından bildirilecek") {
		t.Errorf("text = %s", out.Text)
	}
	if !strings.Contains(out.Text, "yarın kargoya") {
		t.Errorf("18:00 local should dispatch tomorrow:\n%s", out.Text)
	}
}

func TestSameDayDispatch(t *testing.T) {
	ist := time.FixedZone("+03", 3*3600)
	tests := []struct {
		utc  time.Time
		want bool
	}{
		{time.Date(2025, 3, 10, 12, 59, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC), false},
		{time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		if got := SameDayDispatch(tt.utc, ist, 16); got != tt.want {
			t.Errorf("SameDayDispatch(%s) = %v, want %v", tt.utc, got, tt.want)
		}
	}
}

func TestIsAffirmative(t *testing.T) {
	yes := []string{"evet", "Evet, kaydet", "E", "tamam", "onaylıyorum", "OK"}
	no := []string{"hayır", "", "vazgeçtim", "evetmiş"}
	for _, s := range yes {
		if !IsAffirmative(s) {
			t.Errorf("IsAffirmative(%q) = false", s)
		}
	}
	for _, s := range no {
		if IsAffirmative(s) {
			t.Errorf("IsAffirmative(%q) = true", s)
		}
	}
}

func confirmable() *session.Context {
	c := pending(cylinder)
	c.PendingOrder.Quantity = 4
	c.Spec.Diameter = spec.Int(100)
	c.Stage = session.StageOrderConfirmation
	return c
}

func TestConfirmRecordsOrder(t *testing.T) {
	rec := &memRecorder{}
	f, _ := newFlow(t, nil, rec)
	c := confirmable()

	out, err := f.Confirm(context.Background(), c, "evet")
	if err != nil {
		t.Fatal(err)
	}
	if out.OrderID != "0f8fad5b-d9cb-469f-a165-70867728950e" || !strings.Contains(out.Text, "0F8FAD5B") {
		t.Errorf("outcome = %+v", out)
	}
	if len(rec.records) != 1 {
		t.Fatalf("recorded %d orders", len(rec.records))
	}
	r := rec.records[0]
	if r.CustomerID != "web:1" || r.ProductID != 7 || r.Quantity != 4 || r.TotalPrice != 4800 || r.Status != StatusConfirmed {
		t.Errorf("record = %+v", r)
	}
	var snap session.Context
	if err := json.Unmarshal(r.Snapshot, &snap); err != nil || snap.PendingOrder == nil || snap.PendingOrder.Quantity != 4 {
		t.Errorf("snapshot = %s (%v)", r.Snapshot, err)
	}
	if c.Stage != session.StageDiscovery || c.PendingOrder != nil || !c.Spec.IsEmpty() {
		t.Errorf("session not reset: %+v", c)
	}
}

func TestConfirmDeclined(t *testing.T) {
	rec := &memRecorder{}
	f, _ := newFlow(t, nil, rec)
	c := confirmable()

	out, err := f.Confirm(context.Background(), c, "hayır, vazgeçtim")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.records) != 0 || out.OrderID != "" {
		t.Error("declined order was recorded")
	}
	if c.Stage != session.StageDiscovery {
		t.Errorf("stage = %s", c.Stage)
	}
}

func TestConfirmRecorderFailureKeepsSession(t *testing.T) {
	f, _ := newFlow(t, nil, &memRecorder{err: errors.New("disk I/O error")})
	c := confirmable()

	_, err := f.Confirm(context.Background(), c, "evet")
	if !errs.Is(err, errs.KindInternal) {
		t.Errorf("err = %v", err)
	}
	if c.Stage != session.StageOrderConfirmation || c.PendingOrder == nil {
		t.Error("session must be untouched when the order could not be saved")
	}
}

func TestSQLiteRecorder(t *testing.T) {
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if _, err := d.Exec(`INSERT INTO products (id, code, name, name_folded) VALUES (7, 'A1', 'ANS 100*200 SIL', 'ans 100*200 sil')`); err != nil {
		t.Fatal(err)
	}

	r := NewSQLiteRecorder(d)
	err = r.Record(context.Background(), Record{
		ID: "o-1", CustomerID: "web:1", ProductID: 7, Quantity: 2, UnitPrice: 10, TotalPrice: 20,
		Snapshot: []byte(`{"id":"web:1"}`), Status: StatusConfirmed, UserQuery: "evet", Reply: "ok", CreatedAt: morning,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	var customer, status string
	var total float64
	if err := d.QueryRow(`SELECT customer_id, order_status, total_price FROM conversation_orders WHERE id = 'o-1'`).Scan(&customer, &status, &total); err != nil {
		t.Fatal(err)
	}
	if customer != "web:1" || status != StatusConfirmed || total != 20 {
		t.Errorf("row = %s %s %v", customer, status, total)
	}

	if err := r.Record(context.Background(), Record{ID: "o-2", CustomerID: "x", ProductID: 999, Quantity: 1, CreatedAt: morning}); err == nil {
		t.Error("unknown product should violate the foreign key")
	}
}
