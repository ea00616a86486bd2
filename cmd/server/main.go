// Command server runs the debate arena API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/debatearena/arena/internal/api/arena"
	"github.com/debatearena/arena/internal/api/middleware"
	"github.com/debatearena/arena/internal/cache"
	"github.com/debatearena/arena/internal/config"
	"github.com/debatearena/arena/internal/repository"
	"github.com/debatearena/arena/internal/seed"
	"github.com/debatearena/arena/internal/service/debates"
	"github.com/debatearena/arena/internal/service/judging"
	"github.com/debatearena/arena/internal/service/ledger"
	"github.com/debatearena/arena/internal/service/rating"
	"github.com/debatearena/arena/internal/service/standings"
	"github.com/debatearena/arena/internal/service/topics"
	"github.com/debatearena/arena/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	modelRepo := repository.NewModelRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	debateRepo := repository.NewDebateRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	if cfg.Arena.RosterFile != "" {
		roster, err := seed.Load(cfg.Arena.RosterFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load model roster")
		}
		if err := seed.Apply(roster, modelRepo, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply model roster")
		}
	}

	redisCache, err := cache.NewRedis(&cfg.Database.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisCache.Close()

	standingsTTL := cfg.Arena.StandingsTTL()

	ratingEngine := rating.NewEngine(debateRepo, modelRepo, redisCache, log)
	judgingSvc := judging.NewService(debateRepo, reviewRepo, modelRepo, log)
	ledgerSvc := ledger.NewService(voteRepo, topicRepo, debateRepo, redisCache, standingsTTL, log)
	standingsSvc := standings.NewService(modelRepo, debateRepo, judgingSvc, redisCache, standingsTTL, log)
	topicsSvc := topics.NewService(topicRepo, log)
	debatesSvc := debates.NewService(debateRepo, topicRepo, modelRepo, ratingEngine, judgingSvc, log)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := arena.NewHandler(topicsSvc, debatesSvc, ledgerSvc, standingsSvc, log)

	var voteLimiter gin.HandlerFunc
	if cfg.Arena.VoteRatePerMinute > 0 {
		voteLimiter = middleware.NewRateLimiter(cfg.Arena.VoteRatePerMinute).Middleware()
	}
	handler.Register(router, voteLimiter)

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg, log)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting debate arena server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}

func serveMetrics(cfg *config.Config, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)

	log.Info().Str("addr", addr).Str("path", cfg.Metrics.Path).Msg("Starting metrics server")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
