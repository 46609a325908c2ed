package main

import (
	"context"

	"github.com/bidstation/engine/internal/auction/application"
	"github.com/bidstation/engine/internal/auction/domain"
	auctionhttp "github.com/bidstation/engine/internal/auction/infra/http"
	"github.com/bidstation/engine/internal/auction/infra/redispub"
	auctionpg "github.com/bidstation/engine/internal/auction/infra/repository/postgres"
	wsinfra "github.com/bidstation/engine/internal/auction/infra/websocket"
	"github.com/bidstation/engine/internal/auth"
	"github.com/bidstation/engine/internal/shared/config"
	"github.com/bidstation/engine/internal/shared/db"
	"github.com/bidstation/engine/internal/shared/db/migrations"
	"github.com/bidstation/engine/internal/shared/httpserver"
	"github.com/bidstation/engine/internal/shared/logger"
	sharedws "github.com/bidstation/engine/internal/shared/websocket"
	userpg "github.com/bidstation/engine/internal/user/infra/repository/postgres"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting BidStation engine...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(cfg); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	pool, err := db.GetPostgresDBPool(ctx, cfg)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	auctionRepo := auctionpg.NewAuctionRepository(pool)
	lotRepo := auctionpg.NewLotRepository(pool)
	bidRepo := auctionpg.NewBidRepository(pool)
	userRepo := userpg.NewUserRepository(pool)
	txManager := auctionpg.NewTxManager(pool)

	hub := sharedws.NewHub()
	go hub.Run(ctx)

	// With Redis configured, events go out through pub/sub and come back in
	// through the bridge, so every node (this one included) feeds its hub
	// from the same channel. Without Redis the hub is fed directly.
	var publisher domain.EventPublisher
	if cfg.RedisAddr != "" {
		redisPublisher, err := redispub.NewPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisPublisher.Close()

		bridge, err := redispub.NewBridge(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, hub)
		if err != nil {
			log.Fatal("Redis bridge connection failed", zap.Error(err))
		}
		defer bridge.Close()
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.Error("Redis bridge stopped", zap.Error(err))
			}
		}()

		publisher = redisPublisher
		log.Info("Event fan-out via Redis pub/sub", zap.String("addr", cfg.RedisAddr))
	} else {
		publisher = wsinfra.NewHubPublisher(hub)
		log.Info("Event fan-out via in-process hub")
	}

	finalizeUC := application.NewFinalizeUseCase(lotRepo, bidRepo, txManager, publisher, cfg.BidMaxRetries)
	registryUC := application.NewRegistryUseCase(auctionRepo, lotRepo, bidRepo, txManager, publisher, finalizeUC)
	placeBidUC := application.NewPlaceBidUseCase(auctionRepo, lotRepo, bidRepo, userRepo, txManager, publisher, cfg.BidMaxRetries)
	getLotStateUC := application.NewGetLotStateUseCase(lotRepo, bidRepo)
	getLotBidsUC := application.NewGetLotBidsUseCase(lotRepo, bidRepo)

	service := application.NewAuctionService(registryUC, placeBidUC, finalizeUC, getLotStateUC, getLotBidsUC)

	wsHandler := wsinfra.NewAuctionWSHandler(service, hub)
	go wsHandler.ListenForMessages(ctx)

	server := httpserver.NewServer()
	app := server.App()

	auctionhttp.NewAuctionHandler(service).RegisterRoutes(app, cfg.JWTSecret)

	app.Use("/ws", auth.Authenticate(cfg.JWTSecret), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/auctions/:id", websocket.New(wsHandler.Serve(ctx)))

	if err := server.Start(cfg.HTTPAddr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
