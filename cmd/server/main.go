package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"ssbprep/internal/app"
	"ssbprep/internal/config"
	"ssbprep/internal/llm"
	"ssbprep/internal/logging"
	"ssbprep/internal/repository"
	"ssbprep/internal/service"
	"ssbprep/internal/session"
	"ssbprep/internal/transport/rest"
	"ssbprep/internal/transport/ws"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("scorer configuration",
		zap.Strings("models", cfg.AI.Models),
		zap.Duration("attemptTimeout", cfg.AI.AttemptTimeout()),
		zap.Int("concurrency", cfg.AI.Concurrency),
		zap.Bool("apiKey", cfg.AI.APIKey != ""),
	)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("connected to MongoDB", zap.String("db", cfg.MongoDB))

	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureHistoryIndexes(ctx, db); err != nil {
		logger.Warn("failed to create history indexes", zap.Error(err))
	}
	if err := repository.EnsureStimulusIndexes(ctx, db); err != nil {
		logger.Warn("failed to create stimulus indexes", zap.Error(err))
	}

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("failed to ping Redis", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	// Scoring model chain; without an API key every call fails fast
	var generator llm.Generator
	if cfg.AI.IsEnabled() {
		gemini, err := llm.NewGeminiGenerator(ctx, cfg.AI.APIKey, cfg.AI.Temperature)
		if err != nil {
			logger.Fatal("failed to create scoring client", zap.Error(err))
		}
		generator = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set: WAT scores fall back to neutral, TAT evaluation fails")
	}
	chain := llm.NewChain(generator, cfg.AI.Models, cfg.AI.AttemptTimeout(), logger)

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// Initialize repositories and caches
	store := app.New(db, rdb, 5*time.Minute)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	stimulusSvc, err := service.NewStimulusService(store.StimulusRepo, store.PoolCache, logger)
	if err != nil {
		logger.Fatal("failed to load fallback words", zap.Error(err))
	}
	scorerSvc := service.NewScorerService(chain, cfg.AI.Concurrency, logger)
	historySvc := service.NewHistoryService(store.HistoryRepo, store.Leaderboard, cfg.ExamName, logger)
	timing := session.Timing{
		ViewSeconds:    cfg.Timing.TATViewSeconds,
		RespondSeconds: cfg.Timing.TATRespondSeconds,
		WordSeconds:    cfg.Timing.WATSeconds,
	}
	sessionSvc := service.NewSessionService(ctx, stimulusSvc, scorerSvc, historySvc, store.SessionCache, timing, logger)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	sessionSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:     authSvc,
		StimulusService: stimulusSvc,
		ScorerService:   scorerSvc,
		SessionService:  sessionSvc,
		HistoryService:  historySvc,
		WSHub:           wsHub,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	sessionSvc.Shutdown()
	historySvc.Wait()

	logger.Info("server exited")
	_ = os.Stdout.Sync()
}
