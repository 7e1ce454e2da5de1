// Package server exposes the assistant over HTTP with echo.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parsa-hm/lectern/config"
	"github.com/parsa-hm/lectern/internal/generator"
	"github.com/parsa-hm/lectern/internal/ingest"
	"github.com/parsa-hm/lectern/internal/rag"
	"github.com/parsa-hm/lectern/internal/telemetry"
	"github.com/parsa-hm/lectern/internal/tools"
	"github.com/parsa-hm/lectern/internal/vectorstore"
	"github.com/parsa-hm/lectern/provider/anthropic"
	"github.com/parsa-hm/lectern/provider/openai"
	"github.com/parsa-hm/lectern/session"
	"github.com/parsa-hm/lectern/session/inmemory"
	"github.com/parsa-hm/lectern/session/postgres"
	"github.com/parsa-hm/lectern/session/redis"
)

// Run wires the full service from config, loads the corpus, and serves HTTP
// until the listener fails.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	system, err := BuildSystem(cfg)
	if err != nil {
		return err
	}

	if cfg.Corpus.Folder != "" {
		courses, chunks, err := system.AddCourseFolder(context.Background(), cfg.Corpus.Folder)
		if err != nil {
			return fmt.Errorf("failed to load corpus: %w", err)
		}
		baseLogger.Printf("corpus loaded: %d courses, %d chunks", courses, chunks)
	}

	api := e.Group("/api")
	qh := &QueryHandler{Assistant: system}
	qh.Register(api)

	return e.Start(cfg.Server.Address)
}

// BuildSystem assembles the RAG system from config: providers, vector
// store, tools, generator and session store.
func BuildSystem(cfg *config.Config) (*rag.System, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("llm.api_key not configured (ANTHROPIC_API_KEY)")
	}
	if cfg.Embedding.APIKey == "" {
		return nil, fmt.Errorf("embedding.api_key not configured (OPENAI_API_KEY)")
	}

	llm, err := anthropic.NewFromAPIKey(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}
	embedder := openai.NewClient(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Timeout)

	store, err := vectorstore.New(embedder, cfg.Corpus.SearchLimit)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewContentSearchTool(store))
	registry.Register(tools.NewCourseOutlineTool(store))

	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.NewTelemetry(prometheus.DefaultRegisterer)
	}

	genLogger := log.New(log.Writer(), "[GEN] ", log.LstdFlags)
	gen := generator.New(llm, cfg.LLM.MaxToolRounds, genLogger, tele)

	sessions, err := buildSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	processor := ingest.NewProcessor(cfg.Corpus.ChunkSize, cfg.Corpus.ChunkOverlap)
	ragLogger := log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	return rag.New(gen, registry, store, sessions, processor, ragLogger, tele), nil
}

func buildSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "", "inmemory":
		return inmemory.NewStore(cfg.Session.MaxHistory), nil
	case "redis":
		r := cfg.Storage.Redis
		return redis.NewStore(r.Addr, r.Password, r.DB, cfg.Session.MaxHistory, cfg.Session.TTL), nil
	case "postgres":
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(context.Background(), dsn, cfg.Session.MaxHistory)
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Session.Backend)
	}
}
