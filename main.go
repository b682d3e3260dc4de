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

	"github.com/joho/godotenv"

	"contentorbit/ai"
	"contentorbit/api"
	"contentorbit/archive"
	"contentorbit/config"
	"contentorbit/deduplication"
	"contentorbit/events"
	"contentorbit/orchestrator"
	"contentorbit/publisher"
	"contentorbit/rssfeeds"
	"contentorbit/scheduler"
	"contentorbit/store"
	"contentorbit/types"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	manager, err := config.NewManager(envOr("CONFIG_PATH", "config.json"), envOr("FEEDS_PATH", "feeds.json"))
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	cfg := manager.Get()

	db, err := store.Open(cfg.System.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	defer db.Close()

	if !cfg.IsConfigured("cohere") {
		log.Fatal("❌ Cohere API key is required: nothing can be generated without it")
	}
	generator := ai.NewCohereGenerator(cfg.Cohere)
	content := ai.NewContentGenerator(generator, cfg.Brand, cfg.Prompts)

	dedup := buildDeduplicator(cfg, db)

	orch := &orchestrator.Orchestrator{
		Config:   manager.Get,
		Feeds:    manager.ActiveFeeds,
		Selector: rssfeeds.NewSelector(cfg.System.MinArticleWords),
		Dedup:    dedup,
		Content:  content,
		DB:       db,
		Queue:    db,
	}
	wirePublishers(orch, cfg)
	wireOptionals(orch, cfg)

	sched := &scheduler.Scheduler{
		Config: manager.Get,
		Runner: orch,
		DB:     db,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	startCommandConsumer(ctx, cfg, orch, sched)

	router := api.NewRouter(&api.Server{
		Config:    manager,
		DB:        db,
		Pipeline:  orch,
		Scheduler: sched,
	})
	srv := &http.Server{Addr: cfg.System.ListenAddr, Handler: router}

	go func() {
		log.Printf("✅ Dashboard API listening on %s", cfg.System.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🔄 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
}

// buildDeduplicator assembles the dedup layers that are configured:
// the URL history always, the Redis bloom filter and Cohere embedding
// similarity when credentials exist.
func buildDeduplicator(cfg *config.AppConfig, db *store.Store) *deduplication.Deduplicator {
	var opts []deduplication.Option

	if cfg.IsConfigured("redis") {
		bloom, err := deduplication.NewRedisBloom(cfg.Redis, "contentorbit:posted", 30*24*time.Hour)
		if err != nil {
			log.Printf("⚠️ Redis bloom filter unavailable, continuing without it: %v", err)
		} else {
			opts = append(opts, deduplication.WithBloom(bloom))
		}
	}
	if cfg.IsConfigured("cohere") {
		embeddings := deduplication.NewCohereEmbeddings(cfg.Cohere.APIKey, "")
		opts = append(opts, deduplication.WithEmbeddings(embeddings))
	}

	dedup, err := deduplication.NewDeduplicator(db, opts...)
	if err != nil {
		log.Fatalf("❌ Failed to build deduplicator: %v", err)
	}
	return dedup
}

// wirePublishers attaches every platform that has credentials
func wirePublishers(orch *orchestrator.Orchestrator, cfg *config.AppConfig) {
	if cfg.IsConfigured("blogger") {
		b, err := publisher.NewBlogger(context.Background(), cfg.Blogger)
		if err != nil {
			log.Printf("⚠️ Blogger disabled: %v", err)
		} else {
			orch.Blogger = b
		}
	}
	if cfg.IsConfigured("devto") {
		orch.Devto = publisher.NewDevto(cfg.Devto)
	}
	if cfg.IsConfigured("telegram") {
		orch.Telegram = publisher.NewTelegram(cfg.Telegram)
	}
	if cfg.IsConfigured("facebook") {
		orch.Facebook = publisher.NewFacebook(cfg.Facebook)
	}

	var active []string
	for name, ok := range cfg.Status() {
		if ok {
			active = append(active, name)
		}
	}
	log.Printf("✅ Configured sections: %v", active)
}

// wireOptionals attaches the S3 archive and the Kafka event stream
func wireOptionals(orch *orchestrator.Orchestrator, cfg *config.AppConfig) {
	arch, err := archive.New(context.Background(), cfg.S3)
	if err != nil {
		log.Printf("⚠️ Archive disabled: %v", err)
	} else if arch != nil {
		orch.Archive = arch
	}

	producer, err := events.NewProducer(cfg.Kafka)
	if err != nil {
		log.Printf("⚠️ Event stream disabled: %v", err)
	} else if producer != nil {
		orch.Events = producer
	}
}

// startCommandConsumer wires remote commands when Kafka is configured
func startCommandConsumer(ctx context.Context, cfg *config.AppConfig, orch *orchestrator.Orchestrator, sched *scheduler.Scheduler) {
	consumer, err := events.NewCommandConsumer(cfg.Kafka, &botControl{orch: orch, sched: sched, base: ctx})
	if err != nil {
		log.Printf("⚠️ Command consumer disabled: %v", err)
		return
	}
	if consumer == nil {
		return
	}
	if err := consumer.Start(ctx); err != nil {
		log.Printf("⚠️ Command consumer failed to start: %v", err)
	}
}

// botControl adapts the orchestrator and scheduler to remote commands
type botControl struct {
	orch  *orchestrator.Orchestrator
	sched *scheduler.Scheduler

	// base outlives any single consumer session; resumed loops run on it
	base context.Context
}

func (b *botControl) RunNow(ctx context.Context) error {
	_, err := b.orch.RunPipeline(ctx)
	return err
}

func (b *botControl) RetryPlatform(ctx context.Context, postID string, platform types.Platform) error {
	return b.orch.RunSinglePlatform(ctx, postID, platform)
}

func (b *botControl) Pause() error {
	b.sched.Stop()
	return nil
}

func (b *botControl) Resume(context.Context) error {
	// The session context dies on every group rebalance; starting the
	// loop on it would silently kill the scheduler moments later.
	return b.sched.Start(b.base)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
