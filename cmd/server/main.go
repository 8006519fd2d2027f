package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengzang/landsat-go/internal/api"
	"github.com/jengzang/landsat-go/internal/config"
	"github.com/jengzang/landsat-go/internal/core"
	"github.com/jengzang/landsat-go/internal/database"
	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/persistence/redisstore"
	"github.com/jengzang/landsat-go/internal/persistence/snapshotfile"
	"github.com/jengzang/landsat-go/internal/prune"
	"github.com/jengzang/landsat-go/internal/repository"
	"github.com/jengzang/landsat-go/internal/service"
	"github.com/jengzang/landsat-go/internal/tuning"

	// Import module packages to register them
	_ "github.com/jengzang/landsat-go/internal/mapper"
	_ "github.com/jengzang/landsat-go/internal/telemetry"
)

// openPersister returns the configured persister and a cleanup function
func openPersister(cfg *config.Config) (datastore.Persister, func(), error) {
	switch cfg.PersistBackend {
	case config.BackendSQLite:
		if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
			return nil, nil, err
		}
		return repository.NewSampleRepository(database.GetDB()), func() { database.Close() }, nil
	case config.BackendFile:
		return snapshotfile.New(cfg.SnapshotPath), func() {}, nil
	case config.BackendRedis:
		rc := redisstore.Open(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if rc == nil {
			return nil, nil, errors.New("REDIS_ADDR is empty")
		}
		return redisstore.New(rc), func() { rc.Close() }, nil
	case config.BackendNone:
		return nil, func() {}, nil
	default:
		return nil, nil, errors.New("unknown PERSIST_BACKEND " + cfg.PersistBackend)
	}
}

func main() {
	// 加载配置
	cfg := config.Load()
	if cfg.UsingDefaultJWTSecret() {
		log.Printf("[Server] WARNING: JWT_SECRET is not set, mutating endpoints accept tokens signed with the built-in default secret")
	}

	t, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		log.Fatal("Failed to load tuning:", err)
	}
	if _, err := prune.GetPruner(t.PrunePolicy, t); err != nil {
		log.Fatal("Invalid prune policy:", err)
	}

	persister, closePersister, err := openPersister(cfg)
	if err != nil {
		log.Fatal("Failed to open storage:", err)
	}
	defer closePersister()
	log.Printf("[Server] Persistence backend: %s", cfg.PersistBackend)

	store := datastore.NewStore(persister)
	c := core.New(store, t, newGroundTrack("Kerbin"), cfg.ModuleBlacklist)
	c.LoadModules()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Start(ctx); err != nil {
		log.Fatal("Failed to start core:", err)
	}

	done := make(chan struct{})
	go func() {
		c.Run(ctx, cfg.TickInterval)
		close(done)
	}()

	// 初始化路由
	router := api.SetupRouter(cfg, service.NewSampleService(store, t))
	srv := &http.Server{Addr: cfg.Port, Handler: router}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[Server] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] HTTP shutdown: %v", err)
	}
	<-done
	c.Stop(shutdownCtx)
}
