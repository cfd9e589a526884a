package main

import (
	"Nhauzo/config"
	pgconfig "Nhauzo/config/postgres"
	_ "Nhauzo/config/swagger"
	"Nhauzo/controllers"
	"Nhauzo/middleware"
	"Nhauzo/routes"
	"Nhauzo/services/game"
	"Nhauzo/services/ledger"
	"Nhauzo/services/redis"
	"Nhauzo/services/room"
	"Nhauzo/services/socket_io"
	"Nhauzo/services/store"
	utils "Nhauzo/utils"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// @title Nhauzo API
// @version 1.0
// @description Gin-Gonic server for the "Nhauzo" drinking party game
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	log.Info("Setting up server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error reading configuration: %v", err)
	}

	if cfg.Prod {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetLevel(log.DebugLevel)
	}

	var roomStore store.RoomStore
	switch cfg.Store {
	case config.StoreRedis:
		redisClient, err := config.Connect_redis(cfg)
		if err != nil {
			log.Fatalf("Error connecting to Redis: %v", err)
		}
		defer redis.CloseRedis(redisClient)
		roomStore = redisClient
	default:
		log.Info("Using the in-memory room store")
		roomStore = store.NewMemoryStore()
	}

	var history controllers.RoomHistory
	var recorder room.Recorder
	if cfg.Postgres.Enabled() {
		gormDB, err := pgconfig.ConnectGORM(cfg.Postgres)
		if err != nil {
			log.Fatalf("Error connecting to PostgreSQL: %v", err)
		}
		if cfg.Postgres.Migrate {
			log.Info("Migrating PostgreSQL database...")
			if err := pgconfig.MigrateDatabase(gormDB); err != nil {
				// Continue execution even if migration fails
				log.Warnf("Database migration failed: %v", err)
			}
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
		}
		defer sqlDB.Close()

		l := ledger.New(gormDB)
		history, recorder = l, l
	} else {
		log.Info("POSTGRES_HOST not set, drink history disabled")
	}

	engine := game.NewEngine(cfg.Game, nil, nil)
	hub := room.NewHub(roomStore, engine, room.RealClock(), recorder)
	tokens := middleware.NewTokenManager(cfg.TokenSecret, cfg.TokenMaxAge)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.Logger())

	middleware.SetUpMiddleware(r, cfg.SessionKey, cfg.Prod)

	routes.SetupRoutes(r, &controllers.RoomController{
		Hub:     hub,
		Tokens:  tokens,
		History: history,
	}, tokens)

	sio := &socket_io.MySocketServer{}
	sio.Start(r, hub, tokens, cfg.Debug)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		log.Infof("Server started on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-signalC

	log.Info("Shutting down...")
	// the hub goes first so that sockets closed by sio.Close keep their rooms
	hub.Close()
	sio.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("Error shutting down HTTP server: %v", err)
	}
}
