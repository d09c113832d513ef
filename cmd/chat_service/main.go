package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"direct_chat_service/internal/chat/app"
	"direct_chat_service/internal/chat/repository"
	"direct_chat_service/internal/chat/router"
	"direct_chat_service/pkg/config"
	"direct_chat_service/pkg/database"
	"direct_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	cfg.ApplyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	userRepo := repository.NewMongoUserRepository(mongo.Database)
	convRepo := repository.NewMongoConversationRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	presenceRepo := repository.NewRedisPresenceRepository(redisClient)
	receiptRepo := repository.NewRedisReadReceiptRepository(redisClient)
	windowCache := repository.NewRedisMessageCache(redisClient, cfg.WindowCacheTTL)

	convUC := app.NewConversationUseCase(userRepo, convRepo, msgRepo, windowCache, receiptRepo, cfg.WindowSize, cfg.WindowCacheTTL)
	hub := app.NewHub()
	tracker := app.NewPresenceTracker(presenceRepo, userRepo)

	presenceSync := app.NewPresenceSyncWorker(presenceRepo, userRepo, cfg.SyncInterval, cfg.SyncBatchSize)
	readSync := app.NewReadSyncWorker(receiptRepo, convRepo, cfg.SyncInterval, cfg.SyncBatchSize)
	go presenceSync.Start(ctx)
	go readSync.Start(ctx)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r,
		app.NewChatHTTPHandler(convUC, hub, tracker),
		app.NewChatWebsocketHandler(hub, tracker))

	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
