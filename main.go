package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"eventhub/config"
	"eventhub/db"
	"eventhub/middlewares"
	"eventhub/models"
	"eventhub/routes"
	"eventhub/services"
	"eventhub/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Postgres
	sqldb, err := db.Open(cfg.Database)
	if err != nil {
		logger.Error("postgres unavailable", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqldb.Close()
	if err := db.Migrate(sqldb); err != nil {
		logger.Error("migrations failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Error("redis unavailable", slog.Any("error", err))
		os.Exit(1)
	}
	cancel()

	timeout := cfg.Database.QueryTimeout
	users := models.NewSQLUserRepository(sqldb, timeout)
	events := models.NewSQLEventRepository(sqldb, timeout)
	attendees := models.NewSQLAttendeeRepository(sqldb, timeout)
	stats := models.NewSQLStatsRepository(sqldb, timeout)

	tokens := utils.NewTokenManager(cfg.Auth)

	svc := routes.Services{
		Auth: services.NewAuthService(services.AuthServiceConfig{
			Users:      users,
			Tokens:     tokens,
			Blacklist:  utils.NewRedisBlacklist(rdb),
			BcryptCost: cfg.Auth.BcryptCost,
		}),
		Profile: services.NewProfileService(users),
		Events: services.NewEventService(services.EventServiceConfig{
			Events:    events,
			Location:  cfg.Events.Location,
			SortOrder: cfg.Events.SortOrder,
		}),
		Attendance: services.NewAttendanceService(events, attendees),
		Stats:      services.NewStatsService(stats, time.Now),
	}

	gin.SetMode(cfg.Server.GinMode)
	server := gin.New()
	server.Use(gin.Recovery(), middlewares.RequestID(), middlewares.Logger(logger))

	stop := routes.RegisterRoutes(server, svc, routes.Options{
		Tokens: tokens,
		Users:  users,
		Redis:  rdb,
		Limits: cfg.Limits,
		Logger: logger,
		Health: func(ctx context.Context) error {
			if err := sqldb.PingContext(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	})
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
	}
}
