package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/cache"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/config"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/poller"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/providers/espn"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/service"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/store"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/ws"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting NFL Analytics Service...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.LoadConfig()

	// Redis: analysis cache and result stream
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}

	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	// Season archive is optional
	var archive *store.Client
	if cfg.Postgres.URL != "" {
		archive, err = store.NewClient(cfg.Postgres.URL)
		if err != nil {
			log.Fatalf("Failed to connect to archive database: %v", err)
		}
		defer archive.Close()

		if err := archive.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize archive schema: %v", err)
		}
		log.Println("Connected to archive database")
	} else {
		log.Println("DATABASE_URL not set, season archive disabled")
	}

	// Wire components
	espnClient := espn.New()
	cacheWriter := cache.NewRedisWriter(redisClient, cfg.Analysis.CacheTTL)
	streamPublisher := publisher.NewStreamPublisher(redisClient, cfg.Analysis.Stream)
	analyzer := service.NewAnalyzer(espnClient, cacheWriter, streamPublisher,
		cfg.Analysis.CompetitiveThreshold, cfg.Analysis.CompletionDelay)

	hub := ws.NewHub()

	var pollerArchive poller.Archive
	var handlerArchive handlers.Archive
	if archive != nil {
		pollerArchive = archive
		handlerArchive = archive
	}
	gamePoller := poller.NewPoller(analyzer, hub, pollerArchive,
		cfg.Poller.ScoreboardInterval, cfg.Poller.LiveInterval)

	handler := handlers.NewHandler(analyzer, handlerArchive)

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", ws.ServeWS(hub))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/scoreboard", handler.GetScoreboard)
		r.Get("/games/{gameID}/analysis", handler.GetGameAnalysis)
		r.Get("/season/report", handler.GetSeasonReport)
	})

	// Background workers
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(runCtx)
	go gamePoller.Run(runCtx)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("NFL Analytics Service listening on %s", cfg.Server.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
			if err := srv.Close(); err != nil {
				log.Printf("Could not stop server: %v", err)
			}
		}
	}

	log.Println("NFL Analytics Service stopped")
}
