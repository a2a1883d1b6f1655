package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type RatesAPI struct {
	BaseURL          string `mapstructure:"base_url"`
	BaseCurrency     string `mapstructure:"base_currency"`
	RetryAttempts    int    `mapstructure:"retry_attempts"`
	RetryBaseDelayMS int    `mapstructure:"retry_base_delay_ms"`
}

type TrackingAPI struct {
	BaseURL         string  `mapstructure:"base_url"`
	Token           string  `mapstructure:"token"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds"`
	CooldownSeconds int     `mapstructure:"cooldown_seconds"`
	PollIntervalMin int     `mapstructure:"poll_interval_minutes"`
	PollLimit       int     `mapstructure:"poll_limit"`
}

type Cache struct {
	MaxItems        int64 `mapstructure:"max_items"`
	PointTTLMinutes int   `mapstructure:"point_ttl_minutes"`
	RangeTTLMinutes int   `mapstructure:"range_ttl_minutes"`
}

type Scheduler struct {
	RateUpdateIntervalMin int `mapstructure:"rate_update_interval_minutes"`
}

type AppConfig struct {
	HTTPServer  HTTPServer  `mapstructure:"http_server"`
	DbServer    DbServer    `mapstructure:"db_server"`
	HTTPClient  HTTPClient  `mapstructure:"http_client"`
	Logging     Logging     `mapstructure:"logging"`
	RatesAPI    RatesAPI    `mapstructure:"rates_api"`
	TrackingAPI TrackingAPI `mapstructure:"tracking_api"`
	Cache       Cache       `mapstructure:"cache"`
	Scheduler   Scheduler   `mapstructure:"scheduler"`
}

func Init() (*AppConfig, error) {
	var cfg AppConfig

	// .env is optional outside local development
	_ = godotenv.Load()

	viper.SetConfigFile("config.yaml")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	viper.SetDefault("db_server.max_conns", 10)
	viper.SetDefault("http_client.timeout_seconds", 30)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("rates_api.base_currency", "RUB")
	viper.SetDefault("rates_api.retry_attempts", 3)
	viper.SetDefault("rates_api.retry_base_delay_ms", 500)
	viper.SetDefault("tracking_api.rps", 1.0)
	viper.SetDefault("tracking_api.burst", 5)
	viper.SetDefault("tracking_api.cache_ttl_seconds", 300)
	viper.SetDefault("tracking_api.cooldown_seconds", 60)
	viper.SetDefault("tracking_api.poll_interval_minutes", 30)
	viper.SetDefault("tracking_api.poll_limit", 100)
	viper.SetDefault("cache.max_items", 4096)
	viper.SetDefault("cache.point_ttl_minutes", 60)
	viper.SetDefault("cache.range_ttl_minutes", 1800)
	viper.SetDefault("scheduler.rate_update_interval_minutes", 1440)

	// db server env vars
	_ = viper.BindEnv("db_server.host", "DB_HOST")
	_ = viper.BindEnv("db_server.port", "DB_PORT")
	_ = viper.BindEnv("db_server.user", "DB_USER")
	_ = viper.BindEnv("db_server.pass", "DB_PASS")
	_ = viper.BindEnv("db_server.name", "DB_NAME")
	_ = viper.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// http client env vars
	_ = viper.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	// external API env vars
	_ = viper.BindEnv("rates_api.base_url", "RATES_API_BASE_URL")
	_ = viper.BindEnv("tracking_api.base_url", "TRACKING_API_BASE_URL")
	_ = viper.BindEnv("tracking_api.token", "TRACKING_API_TOKEN")

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}
