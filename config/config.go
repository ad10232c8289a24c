package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv" // 引入這個庫來讀取 .env 檔案
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 結構體用於儲存應用程式的配置
type Config struct {
	MongoDBURI     string
	DBName         string
	Port           string
	JWTSecret      string
	TokenTTL       time.Duration
	RedisURL       string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	// GroupAdminOnly 為 true 時，只有群組管理員能改名、加人、踢人 (成員仍可自行退出)
	GroupAdminOnly bool
	WSSendBuffer   int
}

// LoadConfig 載入配置，優先從環境變數讀取，其次從 .env 檔案讀取
func LoadConfig() *Config {
	// 嘗試載入 .env 檔案，如果不存在也不會報錯
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("DB_NAME", "lawchat")
	v.SetDefault("PORT", "5001")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("GROUP_ADMIN_ONLY", true)
	v.SetDefault("WS_SEND_BUFFER", 256)

	cfg := &Config{
		MongoDBURI:     v.GetString("MONGODB_URI"),
		DBName:         v.GetString("DB_NAME"),
		Port:           v.GetString("PORT"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		RedisURL:       v.GetString("REDIS_URL"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		GroupAdminOnly: v.GetBool("GROUP_ADMIN_ONLY"),
		WSSendBuffer:   v.GetInt("WS_SEND_BUFFER"),
	}
	return cfg
}

// Validate 檢查啟動前必須提供的設定
func (c *Config) Validate() error {
	// 空的 HMAC 金鑰仍然能簽章與驗證，任何人都能偽造 token
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// NewLogger 依設定建立 logrus.Logger
func NewLogger(cfg *Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
