package catalog

import (
	"math"
	"testing"
)

func TestDimensionsMatch(t *testing.T) {
	tests := []struct {
		name     string
		diameter int
		stroke   int
		want     bool
	}{
		{"ANS 100*200 SIL", 100, 200, true},
		{"ANS 100x200 SIL", 100, 200, true},
		{"ANS 100 × 200", 100, 200, true},
		{"SILINDIR 100 200", 100, 200, true},
		{"100-50-200-XYZ", 100, 200, false},
		{"ANS 1000*200 SIL", 100, 200, false},
		{"ANS 100*2000 SIL", 100, 200, false},
		{"ANS 100*100 SIL", 100, 100, true},
		{"ANS 100 SIL", 100, 100, false},
		{"DNC 32*100 PPV 1/8", 32, 100, true},
	}
	for _, tt := range tests {
		if got := dimensionsMatch(tt.name, tt.diameter, tt.stroke); got != tt.want {
			t.Errorf("dimensionsMatch(%q, %d, %d) = %v, want %v", tt.name, tt.diameter, tt.stroke, got, tt.want)
		}
	}
}

func TestCollectOptionsSkipsSquareProducts(t *testing.T) {
	products := []ProductRef{
		{Code: "X1", DisplayName: "ANS 50*50 SIL", Stock: 9},
		{Code: "X2", DisplayName: "ANS 50/125 SIL", Stock: 1},
		{Code: "X3", DisplayName: "ANS 50*125 SIL", Stock: 2},
		{Code: "X4", DisplayName: "ANS 150*300 SIL", Stock: 7},
	}
	opts := collectOptions(products, strokeRe(50), 50)
	if len(opts) != 1 {
		t.Fatalf("got %+v, want one option", opts)
	}
	if opts[0].Value != 125 || opts[0].TotalStock != 3 || len(opts[0].Products) != 2 {
		t.Errorf("option = %+v", opts[0])
	}
}

func TestOptionsRanked(t *testing.T) {
	opts := Options{
		{Value: 100, TotalStock: 2},
		{Value: 150, TotalStock: 8},
		{Value: 200, TotalStock: 8},
		{Value: 250, TotalStock: 1},
	}
	got := opts.Ranked(3).Values()
	want := []int{150, 200, 100}
	if len(got) != len(want) {
		t.Fatalf("Ranked(3) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Ranked(3) = %v, want %v", got, want)
			break
		}
	}
	if opts[0].Value != 100 {
		t.Error("Ranked must not reorder the receiver")
	}
	if n := len(opts.Ranked(0)); n != 4 {
		t.Errorf("Ranked(0) returned %d options, want all 4", n)
	}
}

func TestFeatureScore(t *testing.T) {
	if got := featureScore("ANS 100*200", nil); got != 0.8 {
		t.Errorf("no features: %v", got)
	}
	if got := featureScore("ANS 100*200 MANYETIK", []string{"magnetic", "stainless"}); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("half features: %v", got)
	}
}

func TestInStock(t *testing.T) {
	if (ProductRef{Stock: 0.5}).InStock() {
		t.Error("half a unit is not in stock")
	}
	if !(ProductRef{Stock: 1}).InStock() {
		t.Error("one unit is in stock")
	}
}
