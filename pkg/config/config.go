package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Assign     AssignConfig
	Categories CategoriesConfig
	AutoAssign AutoAssignConfig
	Trainers   TrainersConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AssignConfig carries the engine-wide placement knobs. DefaultGroupCapacity
// is the single source for the per-group ceiling; call sites never re-derive
// their own default.
type AssignConfig struct {
	DefaultGroupCapacity int
	MaxGroupNumber       int
}

// CategoriesConfig governs the cached categorization snapshot.
type CategoriesConfig struct {
	CacheTTL time.Duration
}

// AutoAssignConfig governs background planner runs.
type AutoAssignConfig struct {
	Workers    int
	RunTTL     time.Duration
	MaxRetries int
}

// TrainersConfig gates the bulk trainer assignment endpoints.
type TrainersConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Assign = AssignConfig{
		DefaultGroupCapacity: v.GetInt("ASSIGN_DEFAULT_GROUP_CAPACITY"),
		MaxGroupNumber:       v.GetInt("ASSIGN_MAX_GROUP_NUMBER"),
	}

	cfg.Categories = CategoriesConfig{
		CacheTTL: parseDuration(v.GetString("CATEGORY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.AutoAssign = AutoAssignConfig{
		Workers:    v.GetInt("AUTO_ASSIGN_WORKERS"),
		RunTTL:     parseDuration(v.GetString("AUTO_ASSIGN_RUN_TTL"), time.Hour),
		MaxRetries: v.GetInt("AUTO_ASSIGN_MAX_RETRIES"),
	}

	cfg.Trainers = TrainersConfig{
		Enabled: v.GetBool("ENABLE_TRAINER_ASSIGNMENTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "training_assign")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ASSIGN_DEFAULT_GROUP_CAPACITY", 25)
	v.SetDefault("ASSIGN_MAX_GROUP_NUMBER", 20)

	v.SetDefault("CATEGORY_CACHE_TTL", "5m")

	v.SetDefault("AUTO_ASSIGN_WORKERS", 1)
	v.SetDefault("AUTO_ASSIGN_RUN_TTL", "1h")
	v.SetDefault("AUTO_ASSIGN_MAX_RETRIES", 1)

	v.SetDefault("ENABLE_TRAINER_ASSIGNMENTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
