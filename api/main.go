package main

import (
	"context"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openpantry/barcode-resolver/internal/auth"
	"github.com/openpantry/barcode-resolver/internal/cache"
	"github.com/openpantry/barcode-resolver/internal/config"
	"github.com/openpantry/barcode-resolver/internal/db"
	"github.com/openpantry/barcode-resolver/internal/events"
	api "github.com/openpantry/barcode-resolver/internal/http"
	"github.com/openpantry/barcode-resolver/internal/http/handlers"
	rl "github.com/openpantry/barcode-resolver/internal/http/rate_limiter"
	"github.com/openpantry/barcode-resolver/internal/logger"
	"github.com/openpantry/barcode-resolver/internal/repo"
	"github.com/openpantry/barcode-resolver/internal/resolver"
	"github.com/openpantry/barcode-resolver/internal/sources"
)

// @title Barcode Product Resolver API
// @version 1.0
// @description Resolves product barcodes through a layered cache and external data providers.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load configuration: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}
	defer logg.Sync()

	auth.SetSecret(cfg.JWTSecret)

	ctx := context.Background()

	// Fast tier: the networked store when configured and reachable, otherwise
	// the in-process cache. Callers see no behavior difference.
	var fast cache.Cache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logg.Warn("redis unreachable, using in-process cache", zap.Error(err))
		} else {
			defer rdb.Close()
			fast = cache.NewRedisCache(rdb, logg)
		}
	}
	products := cache.NewProductCache(fast, cfg.CacheTTL)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("could not connect to database", zap.Error(err))
	}
	defer database.Close()
	if err := db.EnsureSchema(database); err != nil {
		logg.Fatal("could not ensure schema", zap.Error(err))
	}

	// Fixed priority order: primary, secondary, tertiary.
	adapters := []sources.Adapter{
		sources.NewOpenFoodFacts(cfg.OpenFoodFactsBaseURL, cfg.AdapterTimeout),
		sources.NewUSDA(cfg.USDABaseURL, cfg.USDAAPIKey, cfg.AdapterTimeout),
		sources.NewNutritionix(cfg.NutritionixBaseURL, cfg.NutritionixAppID, cfg.NutritionixAppKey, cfg.AdapterTimeout),
	}

	svc := resolver.New(
		products,
		repo.NewPostgresProductRepository(database),
		adapters,
		events.NewZapSink(logg),
		logg,
		resolver.Options{
			RetryWindow:    cfg.RetryWindow,
			AdapterTimeout: cfg.AdapterTimeout,
		},
	)

	handlers.SetResolver(svc)
	handlers.SetLogger(logg)
	handlers.SetCuratorCredentials(cfg.CuratorUsername, cfg.CuratorPasswordHash)

	go rl.StartVisitorCleanupLoop()

	r := api.NewRouter()
	logg.Info("server running", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}
