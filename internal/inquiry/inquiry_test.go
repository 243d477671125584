package inquiry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/catalog/catalogtest"
	"github.com/ziadkadry99/pneumabot/internal/errs"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

var stock = []catalog.ProductRef{
	{Code: "S1", DisplayName: "ANS 100*100 SIL", Stock: 40},
	{Code: "S2", DisplayName: "ANS 100*150 SIL", Stock: 2},
	{Code: "S3", DisplayName: "ANS 100*200 SIL", Stock: 5},
	{Code: "S4", DisplayName: "ANS 100*200 SIL MANYETIK", Stock: 3},
	{Code: "S5", DisplayName: "ANS 100*250 SIL", Stock: 1},
	{Code: "S6", DisplayName: "ANS 100*300 SIL", Stock: 4},
	{Code: "S7", DisplayName: "ANS 100*400 SIL", Stock: 6},
	{Code: "S8", DisplayName: "ANS 100*500 SIL", Stock: 0},
	{Code: "S9", DisplayName: "ANS 63*200 SIL", Stock: 7},
}

func TestAskStrokeForKnownDiameter(t *testing.T) {
	svc, _ := catalogtest.NewService(stock...)
	e := New(svc, 3)

	q, err := e.Ask(context.Background(), spec.Specification{Diameter: spec.Int(100)}, spec.ToneProfessional)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if q.Missing != MissingStroke {
		t.Errorf("Missing = %s, want stroke", q.Missing)
	}
	// 100*100 is square and 100*500 is out of stock.
	if q.OptionCount != 5 {
		t.Errorf("OptionCount = %d, want 5", q.OptionCount)
	}
	if q.TotalStock != 21 {
		t.Errorf("TotalStock = %v, want 21", q.TotalStock)
	}
	if got := q.Options.Values(); len(got) != 3 || got[0] != 200 || got[1] != 400 || got[2] != 300 {
		t.Errorf("top options = %v, want [200 400 300]", got)
	}
	for _, want := range []string{"**100 mm çap**", "5 farklı strok", "toplam 21 adet", "- 200 mm (8 adet)", "2 seçenek daha", "Hangi strok"} {
		if !strings.Contains(q.Text, want) {
			t.Errorf("question missing %q:\n%s", want, q.Text)
		}
	}
}

func TestAskDiameterForKnownStroke(t *testing.T) {
	svc, _ := catalogtest.NewService(stock...)
	q, err := New(svc, 0).Ask(context.Background(), spec.Specification{Stroke: spec.Int(200)}, spec.ToneFriendly)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if q.Missing != MissingDiameter {
		t.Errorf("Missing = %s", q.Missing)
	}
	if got := q.Options.Values(); len(got) != 2 || got[0] != 100 || got[1] != 63 {
		t.Errorf("options = %v, want [100 63]", got)
	}
	if !strings.HasPrefix(q.Text, "Tabii abi!") {
		t.Errorf("friendly tone not applied: %s", q.Text)
	}
}

func TestAskNoStockForDiameter(t *testing.T) {
	svc, _ := catalogtest.NewService(stock...)
	q, err := New(svc, 5).Ask(context.Background(), spec.Specification{Diameter: spec.Int(32)}, spec.ToneProfessional)
	if err != nil {
		t.Fatal(err)
	}
	if len(q.Options) != 0 || q.TotalStock != 0 {
		t.Errorf("fabricated options: %+v", q)
	}
	if !strings.Contains(q.Text, "stokta ürün görünmüyor") {
		t.Errorf("text = %s", q.Text)
	}
}

func TestAskWithNothingKnown(t *testing.T) {
	svc, _ := catalogtest.NewService(stock...)
	q, err := New(svc, 5).Ask(context.Background(), spec.Specification{}, spec.ToneProfessional)
	if err != nil {
		t.Fatal(err)
	}
	if q.Missing != MissingDiameter || len(q.Options) != 0 {
		t.Errorf("q = %+v", q)
	}
	if !strings.Contains(q.Text, "çap") {
		t.Errorf("text = %s", q.Text)
	}
}

func TestAskWithBothKnown(t *testing.T) {
	svc, _ := catalogtest.NewService(stock...)
	q, err := New(svc, 5).Ask(context.Background(), spec.Specification{Diameter: spec.Int(100), Stroke: spec.Int(200)}, spec.ToneProfessional)
	if err != nil || q.Missing != MissingNone || q.Text != "" {
		t.Errorf("Ask = %+v, %v", q, err)
	}
}

func TestAskCatalogFailure(t *testing.T) {
	svc, src := catalogtest.NewService(stock...)
	src.SetErr(errors.New("connection refused"))
	_, err := New(svc, 5).Ask(context.Background(), spec.Specification{Diameter: spec.Int(100)}, spec.ToneProfessional)
	if !errs.Is(err, errs.KindCatalogUnavailable) {
		t.Errorf("err = %v, want catalog_unavailable", err)
	}
}
