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

	"jobportal/ingestion-service/internal/ai"
	"jobportal/ingestion-service/internal/config"
	"jobportal/ingestion-service/internal/db"
	"jobportal/ingestion-service/internal/ingest"
	"jobportal/ingestion-service/internal/refine"
	"jobportal/ingestion-service/internal/resolve"
	"jobportal/ingestion-service/internal/scheduler"
	"jobportal/ingestion-service/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	ctx := context.Background()

	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[main] postgres: %v", err)
	}
	defer pool.Close()
	log.Println("[main] connected to postgres")

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[main] redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[main] connected to redis")

	gen := ai.NewClient(cfg.GeminiAPIKey, cfg.GeminiAPIURL)
	if cfg.GeminiAPIKey == "" {
		log.Println("[main] GEMINI_API_KEY not set, running without AI assistance")
	}

	memo := resolve.NewPGMemoStore(pool)
	escalations := resolve.NewPGEscalationStore(pool)
	resolvers := ingest.Resolvers{
		Company:     resolve.NewResolver(resolve.NewCompanySource(pool), memo, escalations, gen),
		Designation: resolve.NewResolver(resolve.NewDesignationSource(pool), memo, escalations, gen),
		City:        resolve.NewResolver(resolve.NewCitySource(pool), memo, escalations, gen),
		Country:     resolve.NewResolver(resolve.NewCountrySource(pool), memo, escalations, gen),
		Skill:       resolve.NewResolver(resolve.NewSkillSource(pool), memo, escalations, gen),
	}

	records := ingest.NewPGRecordStore(pool)
	extractor := ingest.NewExtractor(ingest.NewPGRawStore(pool), records)
	refiner := refine.NewRefiner(gen, records, cfg.RefineConcurrency)
	orchestrator := ingest.NewOrchestrator(records, ingest.NewPGJobStore(pool), resolvers, ingest.NewRedisPublisher(rdb))

	runPipeline := func(ctx context.Context) {
		if _, err := extractor.ExtractAll(ctx); err != nil {
			log.Printf("[main] scheduled extract failed: %v", err)
			return
		}
		if _, err := refiner.RefineAll(ctx); err != nil {
			log.Printf("[main] scheduled refine failed: %v", err)
			return
		}
		if _, err := orchestrator.SyncAll(ctx); err != nil {
			log.Printf("[main] scheduled sync failed: %v", err)
		}
	}

	sched := scheduler.New(runPipeline)
	if err := sched.Start(ctx, cfg.SyncIntervalHours); err != nil {
		log.Fatalf("[main] scheduler: %v", err)
	}
	defer sched.Stop()

	mux := http.NewServeMux()
	server.NewHandler(extractor, refiner, orchestrator, records).Register(mux)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("[main] ingestion service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}
