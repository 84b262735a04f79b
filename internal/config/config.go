// config предоставляет структуру конфигурации gallery-service
// и функции загрузки из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/pribylovaa/reddit-gallery/internal/models"
)

// Драйверы хранилища пользовательских настроек.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в Load (флаг --config);
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	GRPC     GRPCConfig    `yaml:"grpc"`
	Listing  ListingConfig `yaml:"listing"`
	Viewer   ViewerConfig  `yaml:"viewer"`
	Prefs    PrefsConfig   `yaml:"prefs"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// HTTPConfig — сетевые настройки HTTP-сервера (API сессий, пробы, метрики).
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// GRPCConfig — сетевые настройки gRPC-сервера (health).
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50053"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// ListingConfig — параметры источника листингов.
type ListingConfig struct {
	Origin   string `yaml:"origin" env:"LISTING_ORIGIN" env-default:"https://www.reddit.com"`
	PageSize int    `yaml:"page_size" env:"LISTING_PAGE_SIZE" env-default:"50"`
	// UserAgent — пустое значение заменяется на listing.DefaultUserAgent.
	UserAgent string `yaml:"user_agent" env:"LISTING_USER_AGENT"`
}

// ViewerConfig — параметры сессий просмотра.
type ViewerConfig struct {
	// Profile — ключ, под которым хранятся настройки автопрокрутки.
	Profile string `yaml:"profile" env:"VIEWER_PROFILE" env-default:"default"`
	// IntervalSeconds — интервал автопрокрутки, пока пользователь его не менял.
	IntervalSeconds uint64 `yaml:"interval_seconds" env:"VIEWER_INTERVAL_SECONDS" env-default:"10"`
	// InboxSize — ёмкость очереди сообщений одной сессии.
	InboxSize int `yaml:"inbox_size" env:"VIEWER_INBOX_SIZE" env-default:"32"`
	// MaxSessions — верхняя граница одновременно открытых сессий.
	MaxSessions int `yaml:"max_sessions" env:"VIEWER_MAX_SESSIONS" env-default:"64"`
}

// PrefsConfig — хранилище пользовательских настроек.
type PrefsConfig struct {
	Driver      string `yaml:"driver" env:"PREFS_DRIVER" env-default:"memory"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"REDIS_PREFIX" env-default:"gallery:prefs:"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	// Service — таймаут одного вызова API сессии.
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
	// Fetch — таймаут HTTP-запроса страницы листинга.
	Fetch time.Duration `yaml:"fetch" env:"FETCH_TIMEOUT" env-default:"15s"`
	// Prefs — таймаут чтения/записи настроек.
	Prefs time.Duration `yaml:"prefs" env:"PREFS_TIMEOUT" env-default:"2s"`
	// Shutdown — время на graceful shutdown серверов.
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
func Load(path string) (*Config, error) {
	var cfg Config

	switch {
	case path != "":
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		if err := readFile(os.Getenv("CONFIG_PATH"), &cfg); err != nil {
			return nil, err
		}
	case fileExists("local.yaml"):
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	if !fileExists(path) {
		return fmt.Errorf("config file does not exist: %s", path)
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	u, err := url.Parse(c.Listing.Origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("listing.origin must be an absolute http(s) url")
	}
	if c.Listing.PageSize <= 0 || c.Listing.PageSize > 100 {
		return fmt.Errorf("listing.page_size must be in (0, 100]")
	}
	if !models.ValidInterval(c.Viewer.IntervalSeconds) {
		return fmt.Errorf("viewer.interval_seconds must be in (0, %d]", models.MaxIntervalSeconds)
	}
	if c.Viewer.InboxSize <= 0 {
		return fmt.Errorf("viewer.inbox_size must be > 0")
	}
	if c.Viewer.MaxSessions <= 0 {
		return fmt.Errorf("viewer.max_sessions must be > 0")
	}
	if c.Viewer.Profile == "" {
		return fmt.Errorf("viewer.profile is required")
	}

	switch c.Prefs.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Prefs.DatabaseURL == "" {
			return fmt.Errorf("prefs.database_url is required for driver %q", c.Prefs.Driver)
		}
	case DriverRedis:
		if c.Prefs.RedisURL == "" {
			return fmt.Errorf("prefs.redis_url is required for driver %q", c.Prefs.Driver)
		}
	default:
		return fmt.Errorf("prefs.driver must be one of %q, %q, %q", DriverMemory, DriverPostgres, DriverRedis)
	}

	return nil
}
