package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Gemini       GeminiConfig
	Catalog      CatalogConfig
	Matcher      MatcherConfig
	Nutrition    NutritionConfig
	Scraper      ScraperConfig
	Reports      ReportsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MERCAPI_APP_ENV" default:"dev"`
	Port         string `envconfig:"MERCAPI_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"MERCAPI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCAPI_LOG_WARN_STACK" default:"false"`
	CORSOrigin   string `envconfig:"MERCAPI_CORS_ORIGIN" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MERCAPI_DB_DSN"`
	Driver string `envconfig:"MERCAPI_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"MERCAPI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCAPI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCAPI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCAPI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCAPI_REDIS_URL" default:"redis://localhost:6379/0"`
	Address      string        `envconfig:"MERCAPI_REDIS_ADDR"`
	Password     string        `envconfig:"MERCAPI_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCAPI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCAPI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCAPI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCAPI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCAPI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCAPI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GeminiConfig struct {
	APIKey      string `envconfig:"MERCAPI_GEMINI_API_KEY"`
	VisionModel string `envconfig:"MERCAPI_GEMINI_VISION_MODEL" default:"gemini-2.0-flash-lite"`
	TextModel   string `envconfig:"MERCAPI_GEMINI_TEXT_MODEL" default:"gemini-1.5-flash"`
}

// Require returns an error when the API key is absent. Commands that talk
// to the extractor call this at startup and abort on failure.
func (g GeminiConfig) Require() error {
	if strings.TrimSpace(g.APIKey) == "" {
		return fmt.Errorf("%s is required", EnvGeminiAPIKey)
	}
	return nil
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"MERCAPI_CATALOG_CACHE_TTL" default:"1h"`
}

type MatcherConfig struct {
	Threshold   float64 `envconfig:"MERCAPI_MATCHER_THRESHOLD" default:"60"`
	NameWeight  float64 `envconfig:"MERCAPI_MATCHER_NAME_WEIGHT" default:"0.7"`
	PriceWeight float64 `envconfig:"MERCAPI_MATCHER_PRICE_WEIGHT" default:"0.3"`
}

type NutritionConfig struct {
	DailyKcal float64 `envconfig:"MERCAPI_NUTRITION_DAILY_KCAL" default:"2000"`
}

type ScraperConfig struct {
	BaseURL           string        `envconfig:"MERCAPI_SCRAPER_BASE_URL" default:"https://tienda.mercadona.es/api"`
	RequestsPerMinute int           `envconfig:"MERCAPI_SCRAPER_REQUESTS_PER_MINUTE" default:"5"`
	RequestTimeout    time.Duration `envconfig:"MERCAPI_SCRAPER_REQUEST_TIMEOUT" default:"30s"`
}

type ReportsConfig struct {
	QueueKey string `envconfig:"MERCAPI_REPORTS_QUEUE_KEY" default:"mercapi:reports:queue"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MERCAPI_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	switch strings.ToLower(db.Driver) {
	case DriverSQLite:
		db.DSN = DefaultSQLitePath
		return nil
	case DriverPostgres:
		return fmt.Errorf("%s is required when %s is postgres", EnvDBDSN, EnvDBDriver)
	default:
		return fmt.Errorf("unknown database driver %q", db.Driver)
	}
}
