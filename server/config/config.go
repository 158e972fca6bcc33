// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 服务运行配置
type Config struct {
	Env           string
	Port          string
	DatabaseURL   string
	JWTSecret     []byte
	AdminUsername string
	AdminPassword string
	SessionMaxAge time.Duration
	CORSOrigins   []string
	SeedTasks     bool
}

// Load 读取 .env（可选）和环境变量
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Debug("no env file found, using system environment", "file", envFile)
		}
	}

	cfg := &Config{
		Env:           getEnvOrDefault("ENV", "development"),
		Port:          getEnvOrDefault("SERVER_PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		AdminUsername: getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionMaxAge: 24 * time.Hour,
		SeedTasks:     true,
	}

	if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, errors.New("SESSION_MAX_AGE must be a positive number of seconds")
		}
		cfg.SessionMaxAge = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("SEED_TASKS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("SEED_TASKS must be a boolean")
		}
		cfg.SeedTasks = b
	}
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, nil
}

// ValidateServe 启动 HTTP 服务前检查必填项
func (c *Config) ValidateServe() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL not set")
	}
	if len(c.JWTSecret) == 0 {
		return errors.New("JWT_SECRET not set")
	}
	if c.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD not set")
	}
	return nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnvOrDefault(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}
