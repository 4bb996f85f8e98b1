package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Swagger      SwaggerConfig      `mapstructure:"swagger"`
	Gamification GamificationConfig `mapstructure:"gamification"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port    int           `mapstructure:"port"`
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig describes how tokens issued by the external auth provider are verified.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SwaggerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// XPRange is the default and permitted bounds of an XP value for one source kind.
type XPRange struct {
	Default int `mapstructure:"default"`
	Min     int `mapstructure:"min"`
	Max     int `mapstructure:"max"`
}

// Contains reports whether v lies inside the inclusive range.
func (r XPRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

type GamificationConfig struct {
	Habit     XPRange `mapstructure:"habit"`
	Milestone XPRange `mapstructure:"milestone"`
	Goal      XPRange `mapstructure:"goal"`
}

// DefaultGamification mirrors the values the product has always used.
func DefaultGamification() GamificationConfig {
	return GamificationConfig{
		Habit:     XPRange{Default: 10, Min: 1, Max: 100},
		Milestone: XPRange{Default: 20, Min: 1, Max: 200},
		Goal:      XPRange{Default: 50, Min: 1, Max: 500},
	}
}

type SchedulerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	ReconcileHour int  `mapstructure:"reconcile_hour"`
}

// RateLimitConfig bounds write requests per user. Requires Redis.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int64         `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

func setDefaults(v *viper.Viper) {
	def := DefaultGamification()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.timeout", 5*time.Second)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.port", 6379)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age_days", 14)
	v.SetDefault("gamification.habit.default", def.Habit.Default)
	v.SetDefault("gamification.habit.min", def.Habit.Min)
	v.SetDefault("gamification.habit.max", def.Habit.Max)
	v.SetDefault("gamification.milestone.default", def.Milestone.Default)
	v.SetDefault("gamification.milestone.min", def.Milestone.Min)
	v.SetDefault("gamification.milestone.max", def.Milestone.Max)
	v.SetDefault("gamification.goal.default", def.Goal.Default)
	v.SetDefault("gamification.goal.min", def.Goal.Min)
	v.SetDefault("gamification.goal.max", def.Goal.Max)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin"})
	v.SetDefault("swagger.enabled", true)
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.reconcile_hour", 3)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", time.Minute)
}

func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// If CONFIG_FILE environment variable is set, use it
	if envConfigFile := os.Getenv("CONFIG_FILE"); envConfigFile != "" {
		configPath = envConfigFile
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if configPath != "" {
		dir := filepath.Dir(configPath)
		file := filepath.Base(configPath)
		ext := filepath.Ext(file)
		name := strings.TrimSuffix(file, ext)

		v.AddConfigPath(dir)
		v.SetConfigName(name)
	} else {
		// Fallback to default locations
		_, filename, _, _ := runtime.Caller(0)
		pkgConfigDir := filepath.Dir(filename)
		projectRoot := filepath.Join(pkgConfigDir, "..", "..")

		v.AddConfigPath(".")
		v.AddConfigPath(pkgConfigDir)
		v.AddConfigPath(projectRoot)
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %v", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envVars := map[string]string{
		"database.host":            "DB_HOST",
		"database.port":            "DB_PORT",
		"database.user":            "DB_USER",
		"database.password":        "DB_PASSWORD",
		"database.name":            "DB_NAME",
		"database.sslmode":         "DB_SSLMODE",
		"server.port":              "SERVER_PORT",
		"server.mode":              "SERVER_MODE",
		"server.timeout":           "SERVER_TIMEOUT",
		"redis.enabled":            "REDIS_ENABLED",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"redis.password":           "REDIS_PASSWORD",
		"redis.db":                 "REDIS_DB",
		"auth.jwt_secret":          "JWT_SECRET",
		"auth.jwt_issuer":          "JWT_ISSUER",
		"logging.level":            "LOG_LEVEL",
		"logging.format":           "LOG_FORMAT",
		"logging.file":             "LOG_FILE",
		"scheduler.enabled":        "SCHEDULER_ENABLED",
		"scheduler.reconcile_hour": "SCHEDULER_RECONCILE_HOUR",
	}

	for configKey, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			switch envVar {
			case "DB_PORT", "REDIS_PORT", "REDIS_DB", "SERVER_PORT", "SCHEDULER_RECONCILE_HOUR":
				if intVal, err := strconv.Atoi(value); err == nil {
					v.Set(configKey, intVal)
				}
			case "SERVER_TIMEOUT":
				if d, err := time.ParseDuration(value); err == nil {
					v.Set(configKey, d)
				}
			case "REDIS_ENABLED", "SCHEDULER_ENABLED":
				if value == "true" || value == "1" {
					v.Set(configKey, true)
				} else if value == "false" || value == "0" {
					v.Set(configKey, false)
				}
			default:
				v.Set(configKey, value)
			}
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	ranges := map[string]XPRange{
		"habit":     c.Gamification.Habit,
		"milestone": c.Gamification.Milestone,
		"goal":      c.Gamification.Goal,
	}
	for name, r := range ranges {
		if r.Min < 1 {
			return fmt.Errorf("gamification.%s.min must be positive, got %d", name, r.Min)
		}
		if r.Max < r.Min {
			return fmt.Errorf("gamification.%s.max (%d) is below min (%d)", name, r.Max, r.Min)
		}
		if !r.Contains(r.Default) {
			return fmt.Errorf("gamification.%s.default (%d) is outside [%d, %d]", name, r.Default, r.Min, r.Max)
		}
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate_limit requires positive requests and window")
	}
	if c.Scheduler.ReconcileHour < 0 || c.Scheduler.ReconcileHour > 23 {
		return fmt.Errorf("scheduler.reconcile_hour must be within 0-23, got %d", c.Scheduler.ReconcileHour)
	}
	return nil
}
