package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/pharmstock/backend/internal/application/inventory"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/infrastructure/config"
	"github.com/pharmstock/backend/internal/infrastructure/logger"
	"github.com/pharmstock/backend/internal/infrastructure/persistence"
	"github.com/pharmstock/backend/internal/interfaces/http/handler"
	"github.com/pharmstock/backend/internal/interfaces/http/middleware"
	"github.com/pharmstock/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// shutdownGrace bounds how long in-flight requests get to finish once a
// termination signal arrives.
const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("configuration error: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("logger error: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting PharmStock Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("store", cfg.Store.Backend),
	)

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open batch store", zap.Error(err))
	}
	defer store.close(log)

	// Resolve batch identity behavior up front so a bad setting fails the
	// boot instead of the first request.
	identityModel, err := inventory.ParseIdentityModel(cfg.Inventory.IdentityModel)
	if err != nil {
		log.Fatal("Invalid inventory configuration", zap.Error(err))
	}
	conflictPolicy, err := inventory.ParseConflictPolicy(cfg.Inventory.ConflictPolicy)
	if err != nil {
		log.Fatal("Invalid inventory configuration", zap.Error(err))
	}
	log.Info("Inventory configuration",
		zap.String("identity_model", string(identityModel)),
		zap.String("conflict_policy", string(conflictPolicy)),
	)

	catalogService := inventoryapp.NewCatalogService(store.batches, store.tx, identityModel, conflictPolicy)
	saleService := inventoryapp.NewSaleService(store.tx)

	engine := buildEngine(cfg, log,
		handler.NewMedicineHandler(catalogService),
		handler.NewSaleHandler(saleService),
		handler.NewSystemHandler(store.pinger),
	)

	serve(log, engine, cfg)
}

// storeSet bundles what the boot sequence needs from a persistence backend.
// Both backends satisfy the same repository and transaction contracts, so
// everything downstream stays backend-agnostic.
type storeSet struct {
	batches inventory.BatchRepository
	tx      inventoryapp.TransactionScope
	pinger  handler.StorePinger
	closer  func() error
}

func (s storeSet) close(log *zap.Logger) {
	if s.closer == nil {
		return
	}
	if err := s.closer(); err != nil {
		log.Error("Error closing store", zap.Error(err))
	}
}

// openStore wires the persistence backend named by cfg.Store.Backend.
func openStore(cfg *config.Config, log *zap.Logger) (storeSet, error) {
	switch cfg.Store.Backend {
	case "file":
		fs, err := persistence.NewFileStore(cfg.Store.FilePath)
		if err != nil {
			return storeSet{}, err
		}
		log.Info("File store ready", zap.String("path", fs.Path()))
		return storeSet{
			batches: persistence.NewFileBatchRepository(fs),
			tx:      persistence.NewFileTransactionScope(fs),
			pinger:  fs,
		}, nil

	default: // "database" (config validation rejects anything else)
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
		db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
		if err != nil {
			return storeSet{}, err
		}

		// Postgres schemas are managed by the migrate CLI; sqlite creates
		// its schema in place.
		if cfg.Database.Driver == "sqlite" {
			if err := db.AutoMigrate(&inventory.Batch{}); err != nil {
				_ = db.Close()
				return storeSet{}, err
			}
		}

		log.Info("Database connected", zap.String("driver", cfg.Database.Driver))
		return storeSet{
			batches: persistence.NewGormBatchRepository(db.DB),
			tx:      persistence.NewGormTransactionScope(db.DB),
			pinger:  db,
			closer:  db.Close,
		}, nil
	}
}

// buildEngine assembles the middleware stack and mounts every route.
func buildEngine(cfg *config.Config, log *zap.Logger, medicines *handler.MedicineHandler, sales *handler.SaleHandler, system *handler.SystemHandler) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID must exist before the logger reads it,
	// and recovery sits inside the logger so panics still get request logs.
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// The health probe lives outside API versioning.
	engine.GET("/health", system.Health)

	api := router.New(engine, router.WithVersion("v1")).
		Register(medicines, sales, system).
		Setup()

	// Bare liveness probe at the API root.
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	return engine
}

// serve runs the HTTP server until SIGINT or SIGTERM arrives, then drains
// in-flight requests within shutdownGrace.
func serve(log *zap.Logger, engine *gin.Engine, cfg *config.Config) {
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	// Restore default signal handling so a second signal kills immediately.
	stop()
	log.Info("Shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Forced shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
