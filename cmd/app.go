package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/config"
	"github.com/ziadkadry99/pneumabot/internal/db"
	"github.com/ziadkadry99/pneumabot/internal/dialogue"
	"github.com/ziadkadry99/pneumabot/internal/embeddings"
	"github.com/ziadkadry99/pneumabot/internal/extract"
	"github.com/ziadkadry99/pneumabot/internal/inquiry"
	"github.com/ziadkadry99/pneumabot/internal/llm"
	"github.com/ziadkadry99/pneumabot/internal/logger"
	"github.com/ziadkadry99/pneumabot/internal/oracle"
	"github.com/ziadkadry99/pneumabot/internal/order"
	"github.com/ziadkadry99/pneumabot/internal/session"
	"github.com/ziadkadry99/pneumabot/internal/vectordb"
)

// semanticFloor is the minimum similarity for a semantic fallback hit.
const semanticFloor = 0.2

// app holds the wired components shared by the commands.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	sqlite *db.DB
	pool   *pgxpool.Pool

	source   catalog.Source
	writer   catalog.Writer
	recorder order.Recorder
	index    *vectordb.ProductIndex
	catalog  *catalog.Service
	engine   *dialogue.Engine
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pneumabot init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openStore opens the configured catalogue backend without the dialogue
// components. The import and index commands need nothing more.
func openStore(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, log: logger.With("app")}

	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		pool, err := db.OpenPostgres(ctx, db.PGConfig{URL: cfg.Catalog.PostgresURL, MaxConns: cfg.Catalog.MaxConns})
		if err != nil {
			return nil, err
		}
		a.pool = pool
		src := catalog.NewPostgresSource(pool)
		a.source, a.writer = src, src
		a.recorder = order.NewPostgresRecorder(pool)
	default:
		d, err := db.Open(cfg.Catalog.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.sqlite = d
		src := catalog.NewSQLiteSource(d)
		a.source, a.writer = src, src
		a.recorder = order.NewSQLiteRecorder(d)
	}
	return a, nil
}

// openIndex creates the semantic product index and, with load, restores the
// persisted copy if there is one. It returns nil when embeddings are
// disabled.
func (a *app) openIndex(ctx context.Context, load bool) (*vectordb.ProductIndex, error) {
	embedder, err := embeddings.New(string(a.cfg.Embedding.Provider), a.cfg.Embedding.Model)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	if embedder == nil {
		return nil, nil
	}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	x := vectordb.NewProductIndex(store, semanticFloor)
	a.index = x
	if !load {
		return x, nil
	}
	loaded, err := x.LoadIfExists(ctx, a.cfg.Catalog.IndexDir)
	if err != nil {
		a.log.Warn().Err(err).Str("dir", a.cfg.Catalog.IndexDir).Msg("could not load semantic index, starting empty")
	} else if !loaded {
		a.log.Info().Str("dir", a.cfg.Catalog.IndexDir).Msg("no semantic index yet, run `pneumabot index` to build one")
	}
	return x, nil
}

// newOracle returns nil when the provider is none, leaving the rules alone
// in charge of understanding.
func newOracle(cfg *config.Config) (oracle.Oracle, error) {
	if cfg.LLM.Provider == config.ProviderNone {
		return nil, nil
	}
	p, err := llm.NewProvider(string(cfg.LLM.Provider), cfg.LLM.Model, cfg.LLM.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.LLM.RequestsPerMinute > 0 {
		p = llm.NewRateLimitedProvider(p, cfg.LLM.RequestsPerMinute)
	}
	return oracle.NewLLMOracle(p, cfg.LLM.Model), nil
}

// openApp wires the whole assistant: store, semantic index, oracle and the
// dialogue engine on top.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	x, err := a.openIndex(ctx, true)
	if err != nil {
		a.Close()
		return nil, err
	}
	var semantic catalog.SemanticIndex
	if x != nil {
		semantic = x
	}
	a.catalog = catalog.NewService(a.source, semantic, logger.With("catalog"))

	orc, err := newOracle(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var store session.Store = session.NewMemoryStore()
	if a.sqlite != nil {
		store = session.NewSQLiteStore(a.sqlite)
	}

	p := cfg.Policy
	a.engine = dialogue.New(dialogue.Deps{
		Sessions:  session.NewManager(store, p.SessionIdleTimeout),
		Extractor: extract.New(orc, p, logger.With("extract")),
		Catalog:   a.catalog,
		Inquiry:   inquiry.New(a.catalog, p.InquiryTopK),
		Orders:    order.New(a.catalog, orc, a.recorder, p, logger.With("order")),
		Oracle:    orc,
		Policy:    p,
		Log:       logger.With("dialogue"),
	})

	a.log.Info().
		Str("backend", string(cfg.Catalog.Backend)).
		Str("llm", string(cfg.LLM.Provider)).
		Bool("semantic", x != nil).
		Msg("assistant ready")
	return a, nil
}

// ping checks the catalogue backend for readiness probes.
func (a *app) ping(ctx context.Context) error {
	if a.pool != nil {
		return a.pool.Ping(ctx)
	}
	if a.sqlite != nil {
		return a.sqlite.PingContext(ctx)
	}
	return errors.New("no catalog backend")
}

// Close releases the database handles.
func (a *app) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.sqlite != nil {
		return a.sqlite.Close()
	}
	return nil
}
