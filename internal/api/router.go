package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"mediascribe/internal/api/handlers"
	"mediascribe/internal/api/middleware"
	"mediascribe/internal/queue"
)

type Router struct {
	mux        *chi.Mux
	db         *pgxpool.Pool
	redis      *redis.Client
	pipeline   handlers.Pipeline
	queue      *queue.Client
	feedSource string
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, p handlers.Pipeline, qc *queue.Client, feedSource string) *Router {
	return &Router{
		mux:        chi.NewRouter(),
		db:         db,
		redis:      rdb,
		pipeline:   p,
		queue:      qc,
		feedSource: feedSource,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(10, 20)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/", health.Info)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	transcriptionH := handlers.NewTranscriptionHandler(rt.pipeline)
	r.Post("/audio_transcription", transcriptionH.Transcribe)

	feedH := handlers.NewFeedHandler(rt.queue, rt.feedSource)
	r.Post("/feed/refresh", feedH.Refresh)

	return r
}
