package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomrelay/signaling/internal/clock"
	"github.com/roomrelay/signaling/internal/codegen"
	"github.com/roomrelay/signaling/internal/config"
	"github.com/roomrelay/signaling/internal/dispatch"
	"github.com/roomrelay/signaling/internal/fanout"
	"github.com/roomrelay/signaling/internal/httpapi"
	"github.com/roomrelay/signaling/internal/logging"
	"github.com/roomrelay/signaling/internal/middleware"
	"github.com/roomrelay/signaling/internal/ratelimit"
	"github.com/roomrelay/signaling/internal/room"
	"github.com/roomrelay/signaling/internal/session"
	"github.com/roomrelay/signaling/internal/transport"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	envPaths := []string{".env", "../../.env", "../.env"}
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		panic(err)
	}

	if err := logging.Initialize(cfg.GoEnv != "production"); err != nil {
		panic(err)
	}
	ctx := context.Background()
	logging.Info(ctx, "starting signaling server", zap.String("go_env", cfg.GoEnv))

	realClock := &clock.Real{}
	rooms := room.NewStore(realClock)
	defer rooms.Close()

	sessions := session.NewRegistry()
	fanoutEngine := fanout.NewEngine(rooms)
	dispatcher := dispatch.New(rooms, sessions, fanoutEngine, realClock, dispatch.Config{
		DefaultBanMinutes:  cfg.DefaultBanMinutes,
		DefaultMuteMinutes: cfg.DefaultMuteMinutes,
	})
	codeGenerator := codegen.New(rooms, cfg.RoomCodeLength, cfg.RoomCodeMaxAttempts)
	wsServer := transport.NewServer(dispatcher, fanoutEngine, cfg.AllowedOriginsList(), cfg.ConnectionSendBuf)

	limiter, err := ratelimit.NewRateLimiter(cfg)
	if err != nil {
		logging.Error(ctx, "failed to build rate limiter", zap.Error(err))
		panic(err)
	}

	if cfg.GoEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOriginsList()
	router.Use(cors.New(corsConfig))

	api := httpapi.New(codeGenerator)
	api.RegisterShell(router)
	api.RegisterCreateCode(router, limiter.CreateCodeMiddleware())

	router.GET("/ws", limiter.WsUpgradeMiddleware(), wsServer.ServeWS)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logging.Info(ctx, "http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error(ctx, "server failed", zap.Error(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	logging.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "graceful shutdown failed", zap.Error(err))
	}
	logging.Info(ctx, "server exited")
}
