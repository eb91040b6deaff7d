package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AnderssonProgramming/code-arena-rt/config"
	"github.com/AnderssonProgramming/code-arena-rt/handlers"
	"github.com/AnderssonProgramming/code-arena-rt/models"
	"github.com/AnderssonProgramming/code-arena-rt/natsclient"
	"github.com/AnderssonProgramming/code-arena-rt/repository"
	"github.com/AnderssonProgramming/code-arena-rt/routes"
	"github.com/AnderssonProgramming/code-arena-rt/services"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalw("database connection failed", "error", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Challenge{}); err != nil {
		log.Fatalw("database migration failed", "error", err)
	}

	rdb := config.InitRedis(cfg)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("redis connection failed", "error", err)
	}

	var nats *natsclient.NatsClient
	if cfg.NatsURL != "" {
		nats, err = natsclient.New(cfg.NatsURL)
		if err != nil {
			log.Warnw("nats unavailable, events stay websocket-only", "error", err)
			nats = nil
		} else {
			defer nats.Close()
		}
	}

	userRepo := repository.NewUserRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	roomRepo := repository.NewRoomRepository(rdb, cfg.SnapshotTTL)
	gameRepo := repository.NewGameRepository(rdb, cfg.SnapshotTTL)

	hub := services.NewHub(log)
	go hub.Run()

	var natsPub services.NatsPublisher
	if nats != nil {
		natsPub = nats
	}
	broadcaster := services.NewEventBroadcaster(hub, natsPub, log)

	userService := services.NewUserService(userRepo, cfg.JWTSecret, log)
	challengeService := services.NewChallengeService(challengeRepo, log)
	gameService := services.NewGameService(gameRepo, challengeRepo, challengeService, broadcaster, userService, log)
	roomService := services.NewRoomService(userRepo, roomRepo, gameService, broadcaster, cfg.RoomTTL, log)

	if err := challengeService.SeedDefaults(context.Background()); err != nil {
		log.Warnw("challenge seeding failed", "error", err)
	}

	roomService.StartExpirySweeper()
	defer roomService.StopExpirySweeper()

	h := &routes.Handlers{
		Auth:      handlers.NewAuthHandler(userService),
		Room:      handlers.NewRoomHandler(roomService),
		Game:      handlers.NewGameHandler(gameService),
		Challenge: handlers.NewChallengeHandler(challengeService),
		WS:        handlers.NewWSHandler(hub, gameService, broadcaster, cfg.JWTSecret),
	}

	router := gin.Default()
	routes.SetupRoutes(router, h, cfg.JWTSecret)

	log.Infow("server starting", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
