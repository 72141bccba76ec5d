package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/api/handlers"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/api/middleware"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/config"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/document"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/history"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/identity"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/queue"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/resilience"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/search"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/suggest"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))
	r.Use(identity.Middleware)

	rl := middleware.NewRateLimiter(rt.cfg.Search.RateLimit, rt.cfg.Search.RateWindow)
	r.Use(rl.Limit)

	// Services
	monitor := resilience.NewMonitor(rt.cfg.Search.SlowThreshold)
	fallback := resilience.NewManager(rt.cfg.Search.Timeout, monitor)

	docSvc := document.NewService(rt.db, rt.cfg.Search.ChunkSize)
	histSvc := history.NewService(rt.db)
	// Without Redis the suggestion cache degrades to process-local.
	var suggestCache suggest.Cache
	if rt.redis != nil {
		suggestCache = suggest.NewRedisCache(rt.redis, rt.cfg.Search.SuggestionTTL)
	} else {
		suggestCache = suggest.NewMemoryCache(0, rt.cfg.Search.SuggestionTTL)
	}
	suggestEngine := suggest.NewEngine(docSvc, histSvc, suggestCache)
	contextBuilder := search.NewContextBuilder(docSvc)
	queueClient := queue.NewClient(rt.cfg.Redis)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis, fallback, monitor)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	searchH := handlers.NewSearchHandler(docSvc, histSvc, suggestEngine, fallback, contextBuilder)
	docH := handlers.NewDocumentHandler(docSvc, queueClient, suggestEngine)
	suggestH := handlers.NewSuggestionHandler(suggestEngine)
	histH := handlers.NewHistoryHandler(histSvc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.Health)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", docH.Ingest)
			r.Post("/upload", docH.Upload)
			r.Get("/", docH.List)
			r.Post("/reindex", docH.Reindex)
			r.Get("/{id}", docH.Get)
			r.Patch("/{id}", docH.Update)
			r.Delete("/{id}", docH.Delete)
			r.Post("/{id}/usage", docH.Usage)
		})

		r.Route("/search", func(r chi.Router) {
			r.Post("/", searchH.Search)
			r.Post("/advanced", searchH.Advanced)
			r.Post("/context", searchH.Context)
		})

		r.Get("/suggestions", suggestH.Get)

		r.Route("/history", func(r chi.Router) {
			r.Post("/click", histH.Click)
			r.Post("/feedback", histH.Feedback)
			r.Get("/recent", histH.Recent)
			r.Get("/analytics", histH.Analytics)
		})
	})

	return r
}
