package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultConfigFile = "./config/config.yaml"

// placeholderSecret is what the sample config ships with.
const placeholderSecret = "change-me"

var ErrJWTSecret = errors.New("auth.jwt_secret is empty or still the placeholder, set JWT_SECRET")

var envBindings = map[string]string{
	"server.host":           "HOST",
	"server.port":           "PORT",
	"cors.origin":           "CORS_ORIGIN",
	"log.level":             "LOG_LEVEL",
	"log.pretty":            "LOG_PRETTY",
	"gemini.api_key":        "GEMINI_API_KEY",
	"gemini.base_url":       "GEMINI_BASE_URL",
	"gemini.model":          "GEMINI_MODEL",
	"db.enabled":            "DB_ENABLED",
	"db.user":               "DB_USER",
	"db.password":           "DB_PASSWORD",
	"db.host":               "DB_HOST",
	"db.port":               "DB_PORT",
	"db.name":               "DB_NAME",
	"redis.enabled":         "REDIS_ENABLED",
	"redis.address":         "REDIS_ADDRESS",
	"redis.password":        "REDIS_PASSWORD",
	"rabbitmq.enabled":      "RABBITMQ_ENABLED",
	"rabbitmq.address":      "RABBITMQ_ADDRESS",
	"rabbitmq.port":         "RABBITMQ_PORT",
	"rabbitmq.username":     "RABBITMQ_USERNAME",
	"rabbitmq.password":     "RABBITMQ_PASSWORD",
	"auth.jwt_secret":       "JWT_SECRET",
	"auth.secure_cookies":   "SECURE_COOKIES",
	"auth.google_client_id": "GOOGLE_CLIENT_ID",
	"server.timezone":       "TZ",
	"tracing.enabled":       "DD_TRACE_ENABLED",
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "3003")
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("server.timezone", "UTC")
	viper.SetDefault("db.enabled", true)
	viper.SetDefault("cors.origin", "http://localhost:5173")
	viper.SetDefault("log.level", "INFO")
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("gemini.model", "gemini-1.5-flash-latest")
	viper.SetDefault("gemini.timeout", 60*time.Second)
	viper.SetDefault("redis.namespace", "interviewai")
	viper.SetDefault("redis.cache_ttl", 24*time.Hour)
	viper.SetDefault("redis.lock_ttl", 90*time.Second)
	viper.SetDefault("worker.size", 2)
	viper.SetDefault("worker.max_tasks_per_worker", 16)
	viper.SetDefault("worker.max_idle_time", 300)
	viper.SetDefault("worker.max_task_wait_time", 2)
	viper.SetDefault("session.idle_ttl", 2*time.Hour)
	viper.SetDefault("auth.token_ttl", 24*time.Hour)
}

// Load reads the yaml config file and binds environment overrides.
// A missing file is tolerated so the service can run from env alone.
func Load(logger *zap.Logger) error {
	setDefaults()

	path := defaultConfigFile
	if p, ok := os.LookupEnv("CONFIG_FILE"); ok && p != "" {
		path = p
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return err
		}
		logger.Warn("Config file not found, using defaults and environment", zap.String("path", path))
	}

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}
	return checkSecrets()
}

// checkSecrets refuses to start with a signing key anyone could guess.
func checkSecrets() error {
	secret := strings.TrimSpace(viper.GetString("auth.jwt_secret"))
	if secret == "" || secret == placeholderSecret {
		return ErrJWTSecret
	}
	return nil
}
