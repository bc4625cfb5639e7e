package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type TossConfig struct {
	SecretKey     string `yaml:"secret_key"`     // enables real gateway mode
	WebhookSecret string `yaml:"webhook_secret"` // enables signature verification
	BaseURL       string `yaml:"base_url"`
	AllowMock     bool   `yaml:"allow_mock"` // dev-only bypass; hard-disabled unless -dev
}

type WorkerConfig struct {
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`
	ReconcileInterval   time.Duration `yaml:"reconcile_interval"`
	ReconcileStaleAfter time.Duration `yaml:"reconcile_stale_after"`
	ReconcileBatchLimit int           `yaml:"reconcile_batch_limit"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Toss     TossConfig     `yaml:"toss"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

// MockAllowed reports whether the mock gateway may be used: the flag
// must be set AND the process must run in dev mode. Production ignores
// the flag entirely.
func (c *Config) MockAllowed() bool {
	return c.Toss.AllowMock && c.Runtime.Dev
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Toss.SecretKey == "" && !cfg.MockAllowed() {
		return nil, errors.New("toss.secret_key is required unless mock payments are enabled in dev mode")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 9090
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Toss.BaseURL == "" {
		cfg.Toss.BaseURL = "https://api.tosspayments.com"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Worker.ExpirySweepInterval <= 0 {
		cfg.Worker.ExpirySweepInterval = time.Hour
	}
	if cfg.Worker.ReconcileInterval <= 0 {
		cfg.Worker.ReconcileInterval = time.Minute
	}
	if cfg.Worker.ReconcileStaleAfter <= 0 {
		cfg.Worker.ReconcileStaleAfter = 10 * time.Minute
	}
	if cfg.Worker.ReconcileBatchLimit <= 0 {
		cfg.Worker.ReconcileBatchLimit = 200
	}
}
