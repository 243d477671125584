package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/config"
	"github.com/ziadkadry99/pneumabot/internal/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = config.ProviderNone
	cfg.Embedding.Provider = config.EmbeddingLocal
	cfg.Catalog.SQLitePath = filepath.Join(dir, "pneumabot.db")
	cfg.Catalog.IndexDir = filepath.Join(dir, "index")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func seed(t *testing.T, a *app) {
	t.Helper()
	_, err := a.writer.Upsert(context.Background(), []catalog.Row{
		{Code: "A1", Name: "ANS 100*200 SIL MANYETIK", Brand: "ANS", Stock: 5, UnitPrice: 1250},
		{Code: "C1", Name: "ANS 50*100 SIL", Brand: "ANS", Stock: 3},
		{Code: "B1", Name: "VALF BOBİNİ 24V", Brand: "EMC", Stock: 8},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestRebuildIndexPersists(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := openStore(ctx, cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer a.Close()
	seed(t, a)

	n, err := a.rebuildIndex(ctx)
	if err != nil {
		t.Fatalf("rebuildIndex: %v", err)
	}
	if n != 3 {
		t.Errorf("indexed = %d, want 3", n)
	}
	entries, err := os.ReadDir(cfg.Catalog.IndexDir)
	if err != nil || len(entries) == 0 {
		t.Fatalf("index dir empty: %v", err)
	}
}

func TestRebuildIndexWithoutEmbeddings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedding.Provider = config.EmbeddingNone

	a, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer a.Close()

	if _, err := a.rebuildIndex(context.Background()); err != errNoEmbeddings {
		t.Errorf("err = %v, want errNoEmbeddings", err)
	}
}

func TestOpenAppTakesAnOrder(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	seed(t, store)
	store.Close()

	a, err := openApp(ctx, cfg)
	if err != nil {
		t.Fatalf("openApp: %v", err)
	}
	defer a.Close()

	if err := a.ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	steps := []struct {
		text  string
		stage session.Stage
	}{
		{"100 çap 200 strok silindir", session.StageOrderCreation},
		{"3 adet", session.StageOrderConfirmation},
		{"evet", session.StageCompleted},
	}
	var orderID string
	for _, s := range steps {
		reply, err := a.engine.HandleTurn(ctx, "cli:test", s.text)
		if err != nil {
			t.Fatalf("HandleTurn(%q): %v", s.text, err)
		}
		if reply.Stage != s.stage {
			t.Fatalf("HandleTurn(%q) stage = %s, want %s (%s)", s.text, reply.Stage, s.stage, reply.Text)
		}
		orderID = reply.OrderID
	}
	if orderID == "" {
		t.Error("confirmed order has no id")
	}

	var count int
	if err := a.sqlite.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversation_orders").Scan(&count); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Errorf("orders = %d, want 1", count)
	}
}
