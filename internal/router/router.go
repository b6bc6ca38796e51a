package router

import (
	"net/http"

	"terrabid-api/internal/handler"
	"terrabid-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler           *handler.Handler
	AuctionHandler    *handler.AuctionHandler
	TerritoryHandler  *handler.TerritoryHandler
	WalletHandler     *handler.WalletHandler
	SettlementHandler *handler.SettlementHandler
	CronAuth          func(http.Handler) http.Handler
	AdminAuth         func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Cron-Key", "X-Admin-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.AuctionHandler != nil {
			r.Route("/auctions", func(r chi.Router) {
				r.Get("/{auction_id}", cfg.AuctionHandler.GetAuction)
				r.Get("/{auction_id}/bids", cfg.AuctionHandler.ListBids)
				r.Post("/{auction_id}/bids", cfg.AuctionHandler.PlaceBid)
				if cfg.AdminAuth != nil {
					r.With(cfg.AdminAuth).Post("/", cfg.AuctionHandler.CreateAuction)
				}
			})
		}

		if cfg.TerritoryHandler != nil {
			r.Route("/territories", func(r chi.Router) {
				r.Get("/{territory_id}", cfg.TerritoryHandler.GetTerritory)
				r.Post("/{territory_id}/transfer", cfg.TerritoryHandler.Transfer)
				if cfg.AdminAuth != nil {
					r.With(cfg.AdminAuth).Post("/", cfg.TerritoryHandler.RegisterTerritory)
				}
			})
		}

		if cfg.WalletHandler != nil {
			r.Route("/wallets", func(r chi.Router) {
				r.Get("/{user_id}", cfg.WalletHandler.GetWallet)
				if cfg.AdminAuth != nil {
					r.With(cfg.AdminAuth).Post("/{user_id}/credit", cfg.WalletHandler.Credit)
				}
			})
		}

		if cfg.SettlementHandler != nil && cfg.CronAuth != nil {
			r.With(cfg.CronAuth).Post("/settlement/run", cfg.SettlementHandler.Run)
		}
	})

	return r
}
