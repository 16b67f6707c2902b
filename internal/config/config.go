package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	AI        AIConfig
	Planner   PlannerConfig   `mapstructure:"planner"`
	Points    PointsConfig    `mapstructure:"points"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type AIConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
}

// Timeout 单次生成请求的超时时间
func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 90 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PlannerConfig 学习计划生成与排期参数
type PlannerConfig struct {
	HorizonDays      int `mapstructure:"horizon_days"`
	MaxWeeks         int `mapstructure:"max_weeks"`
	MinChapters      int `mapstructure:"min_chapters"`
	MinTopics        int `mapstructure:"min_topics"`
	MaxTopics        int `mapstructure:"max_topics"`
	PageLimit        int `mapstructure:"page_limit"`
	ExpectedGenSecs  int `mapstructure:"expected_generation_seconds"`
	ExtensionMaxDays int `mapstructure:"extension_max_days"`
}

// PointsConfig 任务完成积分规则
type PointsConfig struct {
	Rules           map[string]int `mapstructure:"rules"`
	MinutesPerBonus int            `mapstructure:"minutes_per_bonus"`
	MaxTimeBonus    int            `mapstructure:"max_time_bonus"`
	Ledger          bool           `mapstructure:"ledger"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// StorageConfig 选择用户数据的持久化后端: redis / mysql / memory
type StorageConfig struct {
	Type      string `mapstructure:"type"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Defaults 返回代码内置的规划参数，配置文件缺省时使用
func Defaults() PlannerConfig {
	return PlannerConfig{
		HorizonDays:      45,
		MaxWeeks:         12,
		MinChapters:      12,
		MinTopics:        5,
		MaxTopics:        8,
		PageLimit:        20,
		ExpectedGenSecs:  45,
		ExtensionMaxDays: 45,
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.type", "redis")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout_seconds", 90)
	v.SetDefault("ai.max_tokens", 16000)
	v.SetDefault("ai.temperature", 0.4)
	v.SetDefault("planner.horizon_days", d.HorizonDays)
	v.SetDefault("planner.max_weeks", d.MaxWeeks)
	v.SetDefault("planner.min_chapters", d.MinChapters)
	v.SetDefault("planner.min_topics", d.MinTopics)
	v.SetDefault("planner.max_topics", d.MaxTopics)
	v.SetDefault("planner.page_limit", d.PageLimit)
	v.SetDefault("planner.expected_generation_seconds", d.ExpectedGenSecs)
	v.SetDefault("planner.extension_max_days", d.ExtensionMaxDays)
	v.SetDefault("points.minutes_per_bonus", 10)
	v.SetDefault("points.max_time_bonus", 10)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("STUDY_PLAN")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// AI
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")
	v.BindEnv("ai.timeout_seconds", "AI_TIMEOUT_SECONDS")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	switch cfg.Storage.Type {
	case "redis", "mysql", "memory":
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Storage.Type)
	}

	return &cfg, nil
}
