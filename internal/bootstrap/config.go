package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pixel-frame/internal/domain"
	"pixel-frame/internal/service"
)

// 存储后端
const (
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	ServerPort      string
	LogLevel        string
	AppEnv          string // development / production
	StoreBackend    string // redis / memory
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	KeyPrefix       string // Redis Key 前缀, 默认为空以兼容已有数据
	CanvasKey       string
	CellSize        int
	BaseURL         string // 帧回调地址的前缀
	RateLimitMax    int
	RateLimitWindow time.Duration
	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
}

// HistoryEnabled 报告是否配置了放置历史数据库
func (c *Config) HistoryEnabled() bool {
	return c.DBHost != "" && c.StoreBackend == StoreBackendRedis
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:    os.Getenv("SERVER_PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AppEnv:        os.Getenv("APP_ENV"),
		StoreBackend:  strings.ToLower(os.Getenv("STORE_BACKEND")),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		KeyPrefix:     os.Getenv("REDIS_KEY_PREFIX"),
		CanvasKey:     os.Getenv("CANVAS_KEY"),
		BaseURL:       resolveBaseURL(),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		// --- 设置默认值 ---
		CellSize:        domain.DefaultCellSize,
		RateLimitMax:    60,
		RateLimitWindow: 1 * time.Minute,
	}

	var result *multierror.Error

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("REDIS_DB must be an integer: %w", err))
		}
		cfg.RedisDB = n
	}
	if v := os.Getenv("CELL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > domain.MaxCellSize {
			result = multierror.Append(result, fmt.Errorf("CELL_SIZE must be an integer in 1..%d, got %q", domain.MaxCellSize, v))
		} else {
			cfg.CellSize = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			result = multierror.Append(result, fmt.Errorf("RATE_LIMIT_MAX must be a positive integer, got %q", v))
		} else {
			cfg.RateLimitMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			result = multierror.Append(result, fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration, got %q", v))
		} else {
			cfg.RateLimitWindow = d
		}
	}

	// --- 设置其他默认值和进行必要检查 ---
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "3306"
	}
	if cfg.DBName == "" {
		cfg.DBName = "pixel_frame"
	}
	if cfg.CanvasKey == "" {
		cfg.CanvasKey = service.DefaultCanvasKey
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = StoreBackendRedis
		if cfg.RedisAddr == "" && cfg.AppEnv != "production" {
			cfg.StoreBackend = StoreBackendMemory // 本地开发无需 Redis
		}
	}
	switch cfg.StoreBackend {
	case StoreBackendRedis:
		if cfg.RedisAddr == "" {
			result = multierror.Append(result, fmt.Errorf("environment variable REDIS_ADDR must be set"))
		}
	case StoreBackendMemory:
		if cfg.AppEnv == "production" {
			result = multierror.Append(result, fmt.Errorf("STORE_BACKEND=memory is not allowed in production"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend))
	}
	if cfg.DBHost != "" && cfg.DBUser == "" {
		result = multierror.Append(result, fmt.Errorf("environment variable DB_USER must be set when DB_HOST is set"))
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveBaseURL 依次使用 VERCEL_URL、PUBLIC_BASE_URL 和本地默认地址
func resolveBaseURL() string {
	if v := os.Getenv("VERCEL_URL"); v != "" {
		return "https://" + v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:3000"
}
