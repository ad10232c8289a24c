package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lawchat/backend/config"
	"lawchat/backend/database"
	"lawchat/backend/handlers"
	"lawchat/backend/middleware"
	"lawchat/backend/presence"
	"lawchat/backend/services"
	"lawchat/backend/websocket"

	"github.com/gorilla/mux"
	"github.com/rs/cors" // 引入 CORS 庫
)

func main() {
	cfg := config.LoadConfig()
	logger := config.NewLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	ctx := context.Background()
	db, err := database.ConnectMongoDB(ctx, cfg.MongoDBURI, cfg.DBName, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.DisconnectMongoDB()

	if err := db.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to create indexes")
	}

	chatStore := database.NewChatStore(db)
	messageStore := database.NewMessageStore(db)
	principalStore := database.NewPrincipalStore(db)

	conversations := services.NewConversationService(chatStore, messageStore, principalStore, logger, cfg.GroupAdminOnly)
	messages := services.NewMessageService(chatStore, messageStore, principalStore, logger)

	// 有設定 REDIS_URL 時上線狀態存在 Redis，否則只存在這個程序的記憶體
	var tracker presence.Tracker = presence.NewMemoryTracker()
	if cfg.RedisURL != "" {
		redisTracker, err := presence.NewRedisTracker(ctx, cfg.RedisURL, presence.DefaultTTL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisTracker.Close()
		tracker = redisTracker
		logger.Info("Presence is tracked in Redis")
	}

	// 創建 Hub 實例
	hub := websocket.NewHub(tracker, logger)
	broadcaster := websocket.NewBroadcaster(hub, logger)
	wsServer := websocket.NewServer(hub, broadcaster, conversations, messages, cfg.JWTSecret, cfg.WSSendBuffer, logger, cfg.AllowedOrigins)

	router := mux.NewRouter()
	h := handlers.NewHandler(conversations, messages, principalStore, tracker, cfg.JWTSecret, cfg.TokenTTL, logger)
	h.RegisterRoutes(router, middleware.JWTMiddleware(cfg.JWTSecret, logger))
	router.HandleFunc("/ws", wsServer.ServeWs)

	// 設置 CORS 中介軟體
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      c.Handler(router),
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// 如果錯誤不是因為主動關閉伺服器，就記錄錯誤並結束程式
			logger.WithError(err).Fatalf("Could not listen on %s", serverAddr)
		}
	}()

	//當按下 Ctrl+C，程式會收到 SIGINT
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Infof("Received signal %s, shutting down server...", sig)

	//最多等30秒關閉，避免資料損壞，請求中斷
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	// WebSocket 連線已被接管，Shutdown 不會關閉它們
	hub.Shutdown()

	logger.Info("Server exited gracefully.")
}
