package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "pixel-frame/internal/handler/http"
	gormpersistence "pixel-frame/internal/infra/persistence/gorm"
	"pixel-frame/internal/infra/setup"
	"pixel-frame/internal/infra/state/memory"
	redisstate "pixel-frame/internal/infra/state/redis"
	"pixel-frame/internal/middleware"
	"pixel-frame/internal/repository"
	"pixel-frame/internal/service"
	"pixel-frame/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config       *Config
	Log          *logrus.Logger
	DB           *gorm.DB
	RedisClient  *redis.Client
	AsynqClient  *asynq.Client
	WorkerServer *worker.WorkerServer
	HttpServer   *http.Server
}

// NewLogger 按配置创建 logger
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // cfg.LogLevel 已被 LoadConfig 验证
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)

	// 各组件通过 logrus 包级函数记录日志, 保持与 App logger 一致
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(logLevel)
	logrus.SetOutput(os.Stdout)
	return log
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := NewLogger(cfg)
	log.WithFields(logrus.Fields{
		"env":     cfg.AppEnv,
		"backend": cfg.StoreBackend,
		"key":     cfg.CanvasKey,
	}).Info("Configuration loaded successfully")

	app := &App{Config: cfg, Log: log}

	// 3. 初始化基础设施和存储
	var kv repository.KeyValueStore
	var counter middleware.WindowCounter
	switch cfg.StoreBackend {
	case StoreBackendRedis:
		redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		app.RedisClient = redisClient
		redisKV := redisstate.NewKVStore(redisClient, cfg.KeyPrefix)
		kv, counter = redisKV, redisKV
		log.Info("Redis canvas store initialized")
	default:
		memKV := memory.NewKVStore()
		kv, counter = memKV, memKV
		log.Warn("Using in-memory canvas store, state will not survive restarts")
	}

	// 4. 放置历史 (可选)
	var queue httpHandler.TaskEnqueuer
	var historyHandler *httpHandler.HistoryHandler
	if cfg.HistoryEnabled() {
		db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("failed to init DB: %w", err)
		}
		if err := setup.MigrateDB(db); err != nil {
			return nil, fmt.Errorf("failed to migrate DB: %w", err)
		}
		app.DB = db
		placementRepo := gormpersistence.NewGormPlacementRepository(db)

		redisClientOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		app.AsynqClient = asynq.NewClient(redisClientOpt)
		app.WorkerServer = worker.NewWorkerServer(redisClientOpt, placementRepo, log)
		queue = app.AsynqClient
		historyHandler = httpHandler.NewHistoryHandler(placementRepo)
		log.Info("Placement history enabled")
	} else {
		log.Info("Placement history disabled (DB_HOST not set or no Redis backend)")
	}

	// 5. 初始化 Services 和 Handlers
	store := service.NewCanvasStore(kv, cfg.CanvasKey)
	renderer := service.NewRenderer()
	frameService := service.NewFrameService(store, renderer, cfg.CellSize, cfg.BaseURL)
	frameHandler := httpHandler.NewFrameHandler(frameService, renderer, queue)

	// 6. 初始化 Gin Engine 和路由
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	httpHandler.RegisterRoutes(router, frameHandler, historyHandler,
		middleware.RateLimit(counter, cfg.RateLimitMax, cfg.RateLimitWindow))
	log.Info("Router setup complete")

	app.HttpServer = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return app, nil
}

// Start 启动后台 Worker 和 HTTP 服务器
func (a *App) Start() {
	if a.WorkerServer != nil {
		go a.WorkerServer.Start()
		a.Log.Info("Asynq worker server routine started")
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 优雅关闭 HTTP 服务器
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 关闭 Worker Server
	if a.WorkerServer != nil {
		a.WorkerServer.Shutdown()
	}

	// 3. 关闭 Asynq Client
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}

	// 4. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	// 5. 关闭数据库连接
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
