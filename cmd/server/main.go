package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prepai/interview/internal/agents"
	"prepai/interview/internal/call"
	"prepai/interview/internal/channel"
	"prepai/interview/internal/config"
	"prepai/interview/internal/events"
	"prepai/interview/internal/feedback"
	"prepai/interview/internal/handlers"
	"prepai/interview/internal/jobs"
	"prepai/interview/internal/llm"
	_ "prepai/interview/internal/llm/gemini"
	authmw "prepai/interview/internal/middleware"
	"prepai/interview/internal/metrics"
	"prepai/interview/internal/models"
	"prepai/interview/internal/prompts"
	"prepai/interview/internal/repositories"
	"prepai/interview/internal/repositories/mongo"
	"prepai/interview/internal/routers"
	"prepai/interview/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func registerRoutes(router *chi.Mux, cfg *config.Config, agentHandler *handlers.AgentHandler, interviewHandler *handlers.InterviewHandler, questionHandler *handlers.QuestionHandler, healthHandler *handlers.HealthHandler) {
	routers.HealthRoutes(router, healthHandler)
	routers.APIRoutes(router, authmw.Auth(cfg.JWTSecret), agentHandler, interviewHandler, questionHandler)
}

// initDatabase initializes the PostgreSQL database connection
func initDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Interview{}, &models.Feedback{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func initRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// callListeners attaches metrics to every agent, plus redis fan-out when available
func callListeners(publisher *events.Publisher) func(agentID string) []call.Listener {
	return func(agentID string) []call.Listener {
		listeners := []call.Listener{metrics.CallListener{}}
		if publisher != nil {
			listeners = append(listeners, publisher.ForAgent(agentID))
		}
		return listeners
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	utils.Logger = logger

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.Int("max_agents_per_user", cfg.MaxAgentsPerUser))

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}
	interviewer, err := promptManager.Assistant(cfg.InterviewerAssistant)
	if err != nil {
		logger.Fatal("Failed to load interviewer assistant", zap.Error(err))
	}

	aiProvider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	channelConfig, err := channel.NewConfig()
	if err != nil {
		logger.Fatal("Failed to load voice channel configuration", zap.Error(err))
	}

	db, err := initDatabase(cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	interviewRepo := &repositories.InterviewRepository{DB: db}
	feedbackRepo := &repositories.FeedbackRepository{DB: db}

	dependencies := map[string]handlers.PingFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	// question bank is optional; interview-mode clients can still send their own questions
	var questionBank handlers.QuestionBank
	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		mongoClient, err = mongo.NewClient(startupCtx, cfg.MongoURI)
		if err != nil {
			logger.Error("Failed to connect to MongoDB, question bank disabled", zap.Error(err))
		} else if repo, err := mongo.NewQuestionRepo(mongoClient); err != nil {
			logger.Error("Failed to open question collection, question bank disabled", zap.Error(err))
		} else {
			questionBank = repo
			dependencies["mongo"] = mongoClient.Ping
			logger.Info("Question bank enabled")
		}
	}

	var publisher *events.Publisher
	var subscriber handlers.EventSubscriber
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = initRedis(startupCtx, cfg.RedisAddr)
		if err != nil {
			logger.Error("Redis unavailable, call events will not be published", zap.Error(err))
		} else {
			publisher = events.NewPublisher(rdb, logger)
			subscriber = publisher
			dependencies["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			logger.Info("Call event publishing enabled", zap.String("instance_id", publisher.InstanceID()))
		}
	}

	generator := feedback.NewGenerator(aiProvider, promptManager, feedbackRepo, interviewRepo, logger)

	registry := agents.NewRegistry(agents.Options{
		NewChannel: func() channel.Channel {
			return channel.NewWebsocketChannel(*channelConfig, logger)
		},
		Sessions:  agents.SessionStore{Interviews: interviewRepo},
		Feedback:  generator,
		Listeners: callListeners(publisher),
		Call: call.Config{
			WorkflowID:       cfg.WorkflowID,
			Interviewer:      interviewer,
			FeedbackTimeout:  cfg.FeedbackTimeout,
			FeedbackAttempts: cfg.FeedbackAttempts,
			FeedbackBackoff:  cfg.FeedbackBackoff,
		},
		MaxAgentsPerUser: cfg.MaxAgentsPerUser,
		Logger:           logger,
	})

	metrics.RegisterAgentGauge(registry.Count)

	reaperJob := jobs.NewAgentReaperJob(registry, &jobs.ReaperConfig{
		Schedule: cfg.ReaperSchedule,
		MaxIdle:  cfg.AgentIdleTTL,
		Enabled:  cfg.ReaperEnabled,
	}, logger)
	if err := reaperJob.Start(); err != nil {
		logger.Fatal("Failed to start agent reaper", zap.Error(err))
	}

	agentHandler := handlers.NewAgentHandler(registry, interviewRepo, subscriber, logger)
	interviewHandler := handlers.NewInterviewHandler(interviewRepo, feedbackRepo, logger)
	questionHandler := handlers.NewQuestionHandler(questionBank, logger)
	healthHandler := handlers.NewHealthHandler(aiProvider, promptManager, cfg, dependencies)

	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(60*time.Second))
	router.Use(metrics.Middleware("interview"))

	registerRoutes(router, cfg, agentHandler, interviewHandler, questionHandler, healthHandler)

	serverAddr := ":" + cfg.Port

	// http server with timeouts
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// starting server in a goroutine
	go func() {
		logger.Info("Interview service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")

	reaperJob.Stop()

	// graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// ends live calls and lets in-flight feedback finish
	registry.Close()

	if publisher != nil {
		publisher.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Warn("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}

	logger.Info("Interview service exited")
}
