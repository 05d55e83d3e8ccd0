package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Rizwan-Ijaz/route-optimization-backend/config"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/handler"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/middleware"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/optimizer"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/repository"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/service"
	"github.com/Rizwan-Ijaz/route-optimization-backend/pkg/cache"
	"github.com/Rizwan-Ijaz/route-optimization-backend/pkg/db"
	"github.com/Rizwan-Ijaz/route-optimization-backend/pkg/gmaps"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// ── Connect to Redis (matrix/geocode cache) ─────────
	// The cache is an optimization, not a dependency: without Redis every
	// solve simply hits the Maps API directly.
	var redisClient *redis.Client
	if c, err := cache.NewRedisClient(ctx, cfg.Redis); err != nil {
		log.Printf("⚠ Redis unavailable, matrix cache disabled: %v", err)
	} else {
		redisClient = c
		defer redisClient.Close()
		log.Println("✓ Redis connected")
	}

	// ── Matrix provider & geocoder ──────────────────────
	var (
		matrices service.MatrixProvider
		geocoder service.Geocoder
	)
	if cfg.Google.APIKey != "" {
		client, err := gmaps.NewClient(cfg.Google.APIKey)
		if err != nil {
			log.Fatalf("failed to create Google Maps client: %v", err)
		}
		if redisClient != nil {
			cached := gmaps.NewCachedProvider(client, redisClient, cfg.Google.MatrixCacheTTL)
			matrices, geocoder = cached, cached
		} else {
			matrices, geocoder = client, client
		}
		log.Println("✓ Google Maps matrix provider")
	} else {
		// No API key: estimate matrices from great-circle distance.
		matrices = service.HaversineMatrixProvider{}
		log.Println("⚠ GOOGLE_API_KEY not set — using haversine matrix estimates, geocoding disabled")
	}

	// ── Solve history (optional Postgres) ───────────────
	var (
		pgPool   *pgxpool.Pool
		recorder service.SolveRecorder
	)
	if cfg.Postgres.Enabled {
		pgPool, err = db.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatalf("failed to connect to PostgreSQL: %v", err)
		}
		defer pgPool.Close()
		recorder = repository.NewSolveRepository(pgPool)
		log.Println("✓ PostgreSQL connected")
	}

	// ── Initialize layers ───────────────────────────────
	params := optimizer.DefaultParams()
	params.ServiceTime = int64(cfg.Solver.ServiceTime.Seconds())
	params.PickupTolerance = int64(cfg.Solver.PickupWindowTolerance.Seconds())
	params.DeliveryLate = int64(cfg.Solver.DeliveryWindowLate.Seconds())
	params.DropPenalty = cfg.Solver.DropPenalty
	params.TimeLimit = cfg.Solver.TimeLimit
	params.Seed = cfg.Solver.Seed

	store := repository.NewFileStore(cfg.Server.ResultFile)

	optimizeSvc := service.NewOptimizationService(
		matrices, geocoder, store, recorder,
		cfg.Solver.Depot(), cfg.Solver.Fleet(), params,
	)
	jobRunner := service.NewJobRunner(optimizeSvc)
	optimizeHandler := handler.NewOptimizeHandler(optimizeSvc, jobRunner)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter().StrictSlash(true)

	// Health check endpoint.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient)).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/optimize/", optimizeHandler.Optimize).Methods(http.MethodPost)
	api.HandleFunc("/optimize/", optimizeHandler.LastResult).Methods(http.MethodGet)
	api.HandleFunc("/optimize/start-job-with-webhook", optimizeHandler.StartJobWithWebhook).Methods(http.MethodPost)
	api.HandleFunc("/optimize/upload", optimizeHandler.UploadCSV).Methods(http.MethodPost)

	// Wrap with logging, panic recovery, and CORS so the planning UI
	// (and other browser clients) can call the API.
	wrapped := middleware.CORS(middleware.RequestLogger(middleware.Recoverer(router)))

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Server.ServerAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks the optional
// dependencies. Either may be nil when disabled.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if pgPool != nil {
			if err := db.HealthCheck(r.Context(), pgPool); err != nil {
				resp.Status = "degraded"
				resp.Services["postgres"] = "unhealthy: " + err.Error()
			} else {
				resp.Services["postgres"] = "healthy"
			}
		}

		if redisClient != nil {
			if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
				resp.Status = "degraded"
				resp.Services["redis"] = "unhealthy: " + err.Error()
			} else {
				resp.Services["redis"] = "healthy"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
