package main

import (
	"StudyBot/backend/go/internal/bot_service/api"
	"StudyBot/backend/go/internal/bot_service/cache"
	"StudyBot/backend/go/internal/bot_service/messenger"
	"StudyBot/backend/go/internal/bot_service/nlp"
	"StudyBot/backend/go/internal/bot_service/service"
	"StudyBot/backend/go/internal/bot_service/store"
	"StudyBot/backend/go/internal/config"
	"StudyBot/backend/go/internal/database/kafka"
	"StudyBot/backend/go/internal/database/mysql"
	"StudyBot/backend/go/internal/database/redis"
	"StudyBot/backend/go/internal/models"
	"StudyBot/backend/go/pkg/http"
	"StudyBot/backend/go/pkg/logger"
	"log"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("bot_service", "", "")

	appLogger.Info("Logger initialized")

	// Initialize database connection
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database connection established")

	// Auto-migrate database schema
	if err := db.AutoMigrate(&models.User{}, &models.Fact{}); err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database migration completed")

	// Initialize conversation cache on Redis
	rdb, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	convCache, err := cache.New(rdb, time.Duration(cfg.Dialogue.CacheTTL)*time.Second)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Conversation cache initialized")

	// Kafka audit trail is optional: without brokers the bot runs without it.
	var events *kafka.EventPublisher
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			appLogger.Warn("Kafka unavailable, dialogue audit disabled: " + err.Error())
		} else {
			events = kafka.NewEventPublisher(kafkaClient)
			appLogger.Info("Dialogue audit publisher initialized")
		}
	}

	// Outbound Graph API client with circuit breaker
	httpClient, err := http.NewClient(
		time.Duration(cfg.Messenger.RequestTimeout)*time.Second,
		cfg.Middleware.CircuitBreaker,
	)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	sender := messenger.NewClient(&cfg.Messenger, httpClient)

	// Initialize dependencies (Store -> Service -> Handler)
	botStore := store.NewStore(db)
	classifier := nlp.NewClassifier(cfg.Dialogue.IntentThreshold)
	botService := service.NewService(botStore, convCache, classifier, sender, events, cfg.Admin)
	apiHandler := api.NewHandler(botService, &cfg.Messenger)
	appLogger.Info("Dependencies injected")

	// Setup and start Gin router
	router, err := api.SetupRouter(apiHandler, cfg)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Router setup completed")

	serverAddress := cfg.App.Address
	if serverAddress == "" {
		serverAddress = ":8080"
	}
	appLogger.Info("Starting server on " + serverAddress)

	if err := router.Run(serverAddress); err != nil {
		appLogger.Fatal(err.Error())
	}
}
