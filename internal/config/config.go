package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StoreMongo = "mongo"
	StoreMySQL = "mysql"

	ProviderOpenAI = "openai"
	ProviderKIE    = "kie"
)

// Config aggregates runtime configuration for the API and its collaborators.
type Config struct {
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"180s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StoreDriver    string `env:"STORE_DRIVER" envDefault:"mongo"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	MongoDatabase  string `env:"MONGODB_DATABASE" envDefault:"astro"`
	InitialCredits int    `env:"INITIAL_CREDITS" envDefault:"0"`

	ImageGenProvider string        `env:"IMAGEGEN_PROVIDER" envDefault:"openai"`
	ImageGenEndpoint string        `env:"IMAGEGEN_ENDPOINT,required"`
	ImageGenAPIKey   string        `env:"IMAGEGEN_API_KEY,required"`
	ImageGenModel    string        `env:"IMAGEGEN_MODEL" envDefault:"dall-e-3"`
	ImageGenSize     string        `env:"IMAGEGEN_SIZE" envDefault:"1024x1024"`
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"120s"`

	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3Region        string `env:"S3_REGION,required"`
	S3AccessKey     string `env:"S3_ACCESS_KEY,required"`
	S3SecretKey     string `env:"S3_SECRET_KEY,required"`
	S3Bucket        string `env:"S3_BUCKET,required"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL,required"`
	S3UsePathStyle  bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`
	S3Prefix        string `env:"S3_PREFIX" envDefault:"images"`
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads the optional env file for the current environment and then
// parses the process environment.
func Load() (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.ImageGenProvider = strings.ToLower(strings.TrimSpace(cfg.ImageGenProvider))
	cfg.ImageGenEndpoint = strings.TrimRight(strings.TrimSpace(cfg.ImageGenEndpoint), "/")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var problems []string
	switch c.StoreDriver {
	case StoreMongo, StoreMySQL:
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMySQL, c.StoreDriver))
	}
	switch c.ImageGenProvider {
	case ProviderOpenAI, ProviderKIE:
	default:
		problems = append(problems, fmt.Sprintf("IMAGEGEN_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderKIE, c.ImageGenProvider))
	}
	if parsed, err := url.Parse(c.ImageGenEndpoint); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, fmt.Sprintf("IMAGEGEN_ENDPOINT is not an absolute URL: %q", c.ImageGenEndpoint))
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT out of range: %d", c.Port))
	}
	if c.InitialCredits < 0 {
		problems = append(problems, "INITIAL_CREDITS cannot be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %v", problems)
	}
	return nil
}

// loadEnvFiles loads every existing candidate in order. Earlier files and
// variables already set in the process win.
func loadEnvFiles() error {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env."+appEnv),
		".env."+appEnv,
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}
