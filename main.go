package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"HelloChat/data/database/mgo/mongoutil"
	appconfig "HelloChat/global/config"
	"HelloChat/logger"
	"HelloChat/middleware"
	chatstore "HelloChat/module/chat/store"
	userstore "HelloChat/module/user/store"
	"HelloChat/service/chat"
	"HelloChat/service/relay"
	"HelloChat/service/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := appconfig.Load()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	mongoCli, err := mongoutil.NewMongoDB(bootCtx, &mongoutil.Config{
		Uri:         cfg.MongoURI,
		Database:    cfg.MongoDB,
		MaxPoolSize: cfg.MongoMaxPool,
	})
	if err != nil {
		logger.Errorf("[boot] mongo: %v", err)
		return
	}
	defer func() { _ = mongoCli.Disconnect(context.Background()) }()

	pgPool, err := userstore.Connect(bootCtx, cfg.PostgresURL)
	if err != nil {
		logger.Errorf("[boot] postgres: %v", err)
		return
	}
	defer pgPool.Close()
	users := userstore.NewUserStore(pgPool)

	var presence chat.Presence
	if err := storage.InitRedis(storage.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		logger.Warnf("[boot] redis unavailable, presence mirror disabled: %v", err)
	} else {
		presence = storage.Mirror{TTL: cfg.PresenceTTL}
	}

	var eventRelay chat.EventRelay
	if cfg.NatsServers != "" {
		pub, err := relay.New(cfg.NatsServers, cfg.NatsName)
		if err != nil {
			logger.Warnf("[boot] nats unavailable, event relay disabled: %v", err)
		} else {
			defer pub.Close()
			eventRelay = pub
		}
	}

	rooms := chatstore.NewRoomStore(mongoCli.GetDB())
	messages := chatstore.NewMessageStore(mongoCli.GetDB())
	server := chat.NewServer(cfg, chat.NewRegistry(), rooms, messages, users, eventRelay, presence)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.CORS(cfg.CORSOrigins))
	server.RegisterRoutes(engine)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}
	go func() {
		logger.Infof("[boot] listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[boot] http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("[boot] shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	_ = httpSrv.Shutdown(shutCtx)
}
