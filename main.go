package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"docshelf/internal/api"
	"docshelf/internal/blobstore"
	"docshelf/internal/config"
	"docshelf/internal/redis"
	"docshelf/internal/service/ai"
	"docshelf/internal/service/library"
	"docshelf/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, cfg.Database); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	meta, err := storage.NewMetadataStore(db, cfg.Database.Table)
	if err != nil {
		log.Fatalf("init metadata store: %v", err)
	}

	ctx := context.Background()
	blobs, err := blobstore.NewGCS(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
	if err != nil {
		log.Fatalf("init object store: %v", err)
	}
	defer blobs.Close()

	opts := []library.Option{}
	if cfg.Redis.Addr != "" {
		cache, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatalf("init redis: %v", err)
		}
		defer cache.Close()
		opts = append(opts, library.WithURLCache(cache))
	} else {
		slog.Info("signed-url cache disabled, no redis address configured")
	}

	var textAI library.TextAI
	if cfg.AI.APIKey != "" {
		aiClient, err := ai.NewClient(ctx, cfg.AI)
		if err != nil {
			log.Fatalf("init ai client: %v", err)
		}
		textAI = aiClient
	} else {
		slog.Warn("ai token not configured, summarize and translate will fail")
	}

	svc := library.NewService(blobs, meta, textAI, opts...)

	if cfg.Sweep.Interval > 0 {
		sweepCtx, cancelSweep := context.WithCancel(ctx)
		defer cancelSweep()
		svc.StartOrphanSweeper(sweepCtx, cfg.Sweep.Interval)
	}

	router := gin.New()
	router.Use(api.RequestID(), api.RequestLogger(), gin.Recovery())
	api.NewHandler(svc).RegisterRoutes(router)

	if err := router.Run(cfg.Server.Address); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
