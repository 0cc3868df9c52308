package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment (and .env).
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"production"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":5200"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	// GatewayToken is the bearer token every request from the gateway carries.
	GatewayToken   string   `env:"GATEWAY_SERVICE_TOKEN,required"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	AI AIConfig

	R2 R2Config

	OnboardingDelay   time.Duration `env:"ONBOARDING_DELAY" envDefault:"2s"`
	DailyRefreshHour  uint          `env:"DAILY_REFRESH_HOUR" envDefault:"4"`
	ActiveWindowDays  int           `env:"ACTIVE_WINDOW_DAYS" envDefault:"7"`
	RefreshQuestCount int           `env:"REFRESH_QUEST_COUNT" envDefault:"3"`
}

type AIConfig struct {
	APIKey  string        `env:"DEEPSEEK_API_KEY"`
	BaseURL string        `env:"DEEPSEEK_API_URL" envDefault:"https://api.deepseek.com/v1"`
	Model   string        `env:"DEEPSEEK_MODEL" envDefault:"deepseek-chat"`
	Timeout time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
}

// R2Config configures the Cloudflare R2 bucket used for character archives.
// Archiving is disabled when Bucket is empty.
type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
}

func (c R2Config) Enabled() bool {
	return c.Bucket != "" && c.AccountID != ""
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load reads an optional .env file and parses the environment into Config.
// The returned bool reports whether a .env file was found.
func Load(files ...string) (Config, bool, error) {
	foundDotenv := godotenv.Load(files...) == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, foundDotenv, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DailyRefreshHour > 23 {
		return Config{}, foundDotenv, fmt.Errorf("DAILY_REFRESH_HOUR must be 0-23, got %d", cfg.DailyRefreshHour)
	}
	return cfg, foundDotenv, nil
}
