package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveywizard/config"
	"surveywizard/internal/cache"
	sourceconfig "surveywizard/internal/config"
	"surveywizard/internal/repository"
	"surveywizard/internal/service"
	"surveywizard/internal/transport/rest"
	"surveywizard/internal/transport/ws"
	"surveywizard/internal/view"
)

// @title Survey Wizard API
// @version 1.0
// @description One-question-at-a-time survey sessions
// @host localhost:8080
// @BasePath /v1
func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	srcCfg := sourceconfig.DefaultSourceConfig()
	log.Printf("Question source: %s", srcCfg.Kind)
	if srcCfg.IsRemote() {
		log.Printf("  URL:     %s", srcCfg.URL)
	}
	log.Printf("  Timeout: %v", srcCfg.Timeout())

	// MongoDB connection (optional, holds survey definitions)
	var surveyRepo repository.SurveyRepo
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer mongoClient.Disconnect(ctx)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			log.Fatal("Failed to ping MongoDB:", err)
		}
		log.Println("Connected to MongoDB")
		surveyRepo = repository.NewSurveyRepo(mongoClient.Database(cfg.MongoDB))
	} else {
		log.Println("Warning: MONGO_URI not set, stored surveys disabled")
	}

	// Redis connection (optional, holds live sessions)
	var sessionCache cache.SessionCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("Failed to ping Redis:", err)
		}
		log.Println("Connected to Redis")
		sessionCache = cache.NewSessionCache(rdb, cfg.SessionTTL)
	} else {
		log.Println("Warning: REDIS_URI not set, sessions kept in memory")
		sessionCache = cache.NewMemorySessionCache(cfg.SessionTTL)
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.SessionTTL)
	surveySvc := service.NewSurveyService(surveyRepo)

	survey, err := surveySvc.Resolve(ctx, srcCfg)
	if err != nil {
		log.Fatal("Failed to load survey:", err)
	}
	staticSource, err := service.NewStaticSource(survey)
	if err != nil {
		log.Fatal("Invalid survey:", err)
	}

	var source service.QuestionSource = staticSource
	if srcCfg.IsRemote() {
		source = service.NewRemoteSource(srcCfg)
	}

	sessionSvc := service.NewSessionService(source, survey.ID, view.MetaFromSurvey(survey), srcCfg.Timeout(), sessionCache)
	sessionSvc.SetBroadcaster(wsHub)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessionSvc.RunSweeper(sweepCtx, time.Minute)

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		SurveyService:  surveySvc,
		SessionService: sessionSvc,
		StaticSource:   staticSource,
		WSHub:          wsHub,
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		CORSOrigins:    cfg.CORSOrigins,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/sessions")
		log.Println("  GET  /v1/sessions/{id}")
		log.Println("  POST /v1/sessions/{id}/start")
		log.Println("  POST /v1/sessions/{id}/answers")
		log.Println("  POST /v1/sessions/{id}/reset")
		log.Println("  POST /v1/questions/next")
		log.Println("  WS   /v1/ws/sessions/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
