package handler

import (
	"net/http"

	"Futures/internal/domain/models/transport"
	"Futures/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	Resolver       *session.Resolver
	Limiter        *RateLimiter
	AllowedOrigins []string
	// optional
	Metrics        interface{ Middleware(http.Handler) http.Handler }
	MetricsHandler http.Handler
}

type Handlers struct {
	Account    *AccountHandler
	Trade      *TradeHandler
	Tournament *TournamentHandler
	Market     *MarketHandler
}

func NewRouter(opts RouterOptions, h Handlers) chi.Router {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Telegram-User-Id", "X-User-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, transport.HealthResponse{Status: "ok"})
	})
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = session.NewResolver(0)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(Identity(resolver))
		if opts.Limiter != nil {
			api.Use(opts.Limiter.Middleware)
		}

		api.Mount("/account", h.Account.Routes())
		api.Mount("/trade", h.Trade.Routes())
		api.Mount("/tournaments", h.Tournament.Routes())
		api.Mount("/market", h.Market.Routes())
	})

	return r
}
