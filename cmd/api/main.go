package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terrabid-api/internal/cache"
	"terrabid-api/internal/config"
	"terrabid-api/internal/handler"
	"terrabid-api/internal/middleware"
	"terrabid-api/internal/repository"
	"terrabid-api/internal/router"
	"terrabid-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting TerraBid API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	tiers, err := cfg.Auction.ProtectionTable()
	if err != nil {
		log.Fatalf("Invalid protection tier config: %v", err)
	}

	// Initialize transactional store based on config
	var store repository.Store
	switch cfg.Store.Type {
	case "postgres", "postgresql":
		pgStore, err := repository.NewPostgresStore(cfg.Store.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL store: %v", err)
		}
		store = pgStore
		log.Println("PostgreSQL store initialized")
	default: // sqlite
		sqliteStore, err := repository.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite store: %v", err)
		}
		store = sqliteStore
		log.Println("SQLite store initialized")
	}
	defer store.Close()

	// Initialize payments lookup (optional - direct purchases that reference
	// an upstream payment fail when it is unavailable)
	var paymentRepo repository.PaymentRepository
	if cfg.PaymentsDB.Enabled {
		paymentsDB, err := sql.Open("mysql", cfg.PaymentsDB.DSN())
		if err != nil {
			log.Printf("Warning: payments DB connection failed: %v", err)
		} else {
			paymentsDB.SetMaxOpenConns(10)
			paymentsDB.SetMaxIdleConns(5)
			paymentsDB.SetConnMaxLifetime(5 * time.Minute)

			if err := paymentsDB.Ping(); err != nil {
				log.Printf("Warning: payments DB ping failed: %v", err)
				paymentsDB.Close()
			} else {
				defer paymentsDB.Close()
				paymentRepo = repository.NewMySQLPaymentRepository(paymentsDB)
				log.Println("Payments repository initialized")
			}
		}
	}

	// Initialize cache based on config
	var cacheStore cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, falling back to memory cache: %v", err)
			cacheStore = cache.NewMemoryCache()
		} else {
			cacheStore = redisCache
			log.Println("Redis cache initialized")
		}
	default:
		cacheStore = cache.NewMemoryCache()
		log.Println("Memory cache initialized")
	}
	defer cacheStore.Close()

	// Initialize services
	invalidator := service.NewInvalidator(cacheStore)
	transferService := service.NewTransferService(store, paymentRepo, invalidator, tiers, cfg.Store.Timeout)
	auctionService := service.NewAuctionService(store, cacheStore, invalidator, service.AuctionServiceConfig{
		BidIncrement: cfg.Auction.BidIncrement,
		SnapshotTTL:  cfg.Cache.SnapshotTTL,
		ListTTL:      cfg.Cache.ListTTL,
		StoreTimeout: cfg.Store.Timeout,
	})
	territoryService := service.NewTerritoryService(store, cacheStore, invalidator, cfg.Cache.SnapshotTTL, cfg.Store.Timeout)
	walletService := service.NewWalletService(store, invalidator, cfg.Store.Timeout)
	settlementService := service.NewSettlementService(store, transferService, invalidator,
		cfg.Settlement.BatchLimit, cfg.Settlement.RunTimeout)

	// Initialize handlers
	healthHandler := handler.New(store, cfg.App.Version)
	auctionHandler := handler.NewAuctionHandler(auctionService)
	territoryHandler := handler.NewTerritoryHandler(territoryService, transferService)
	walletHandler := handler.NewWalletHandler(walletService)
	settlementHandler := handler.NewSettlementHandler(settlementService)

	// Create router
	r := router.New(router.Config{
		Handler:           healthHandler,
		AuctionHandler:    auctionHandler,
		TerritoryHandler:  territoryHandler,
		WalletHandler:     walletHandler,
		SettlementHandler: settlementHandler,
		CronAuth:          middleware.NewSharedSecret("X-Cron-Key", cfg.Settlement.CronKey),
		AdminAuth:         middleware.NewSharedSecret("X-Admin-Key", cfg.App.AdminKey),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
