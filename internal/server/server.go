package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/collectivemind/assistant/config"
	"github.com/collectivemind/assistant/internal/agent/core"
	"github.com/collectivemind/assistant/internal/agent/registry"
	"github.com/collectivemind/assistant/internal/agent/telemetry"
	"github.com/collectivemind/assistant/internal/gateway"
	"github.com/collectivemind/assistant/internal/ingest"
	"github.com/collectivemind/assistant/internal/runtime"
	"github.com/collectivemind/assistant/internal/search"
	"github.com/collectivemind/assistant/internal/store"
	openai "github.com/collectivemind/assistant/provider/openai"
)

// Run wires all dependencies once at process start and serves the API.
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
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	dsn, err := cfg.Databases.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Databases.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Databases.Redis.Addr(),
			Password: cfg.Databases.Redis.Password,
			DB:       cfg.Databases.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Databases.Redis.Addr(), err)
		}
	}

	llm, err := openai.NewClient(cfg.LLM)
	if err != nil {
		return err
	}

	engine, err := search.NewBleveEngine()
	if err != nil {
		return err
	}
	indexLogger := log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	if err := ingest.Reindex(ctx, st, engine, llm, indexLogger); err != nil {
		return fmt.Errorf("initial index load: %w", err)
	}

	var cache *search.EmbedCache
	if rdb != nil {
		cache = search.NewEmbedCache(rdb, cfg.Search.EmbeddingCacheTTL, nil)
	}
	searchSvc := search.NewService(engine, llm, cache, cfg.Search, nil)

	tele := telemetry.New(cfg.Telemetry, nil)
	reg := registry.NewRegistry(registry.DefaultAgents())
	gw := gateway.NewDefaultGateway(st, llm, nil)
	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	orch := core.NewOrchestrator(cfg, orchLogger, tele, reg, gw, searchSvc, llm)

	auth := &AuthHandler{Store: st, Secret: []byte(cfg.Server.JWTSecret)}
	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	ah := &AssistantHandler{Orch: orch, Search: searchSvc, Telemetry: tele}
	ah.Register(api.Group("/assistant"), runtime.EchoAuthMiddleware(auth.Secret))

	ix := &Indexer{
		Store:    st,
		Engine:   engine,
		Provider: llm,
		Rdb:      rdb,
		Cron:     cfg.Search.ReindexCron,
		Logger:   indexLogger,
		Stop:     make(chan struct{}),
	}
	ix.Start()

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10080"
	}
	return e.Start(addr)
}
