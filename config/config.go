package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort        string
	AppEnv         string
	DBDriver       string // postgres | sqlite
	DatabaseURL    string
	ServiceToken   string
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NotifyChannel string

	SyncServiceURL string
	SyncInterval   time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
	CDNBaseURL        string

	RulesFile string

	SeasonRotateInterval      time.Duration
	InfluenceSweepInterval    time.Duration
	InfluenceSweepConcurrency int

	OtelEnabled bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "5200")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFY_CHANNEL", "pie:notifications")
	v.SetDefault("SYNC_INTERVAL", "1m")
	v.SetDefault("SEASON_ROTATE_INTERVAL", "5m")
	v.SetDefault("INFLUENCE_SWEEP_INTERVAL", "1h")
	v.SetDefault("INFLUENCE_SWEEP_CONCURRENCY", 4)
	v.SetDefault("OTEL_ENABLED", false)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppPort:      v.GetString("APP_PORT"),
		AppEnv:       v.GetString("APP_ENV"),
		DBDriver:     strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		ServiceToken: v.GetString("GAME_SERVICE_TOKEN"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		NotifyChannel: v.GetString("NOTIFY_CHANNEL"),

		SyncServiceURL: v.GetString("SYNC_SERVICE_URL"),
		SyncInterval:   v.GetDuration("SYNC_INTERVAL"),

		R2AccountID:       v.GetString("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: v.GetString("R2_ACCESS_KEY_SECRET"),
		R2Bucket:          v.GetString("R2_BUCKET_NAME"),
		CDNBaseURL:        v.GetString("CDN_BASE_URL"),

		RulesFile: v.GetString("RULES_FILE"),

		SeasonRotateInterval:      v.GetDuration("SEASON_ROTATE_INTERVAL"),
		InfluenceSweepInterval:    v.GetDuration("INFLUENCE_SWEEP_INTERVAL"),
		InfluenceSweepConcurrency: v.GetInt("INFLUENCE_SWEEP_CONCURRENCY"),

		OtelEnabled: v.GetBool("OTEL_ENABLED"),
	}

	for _, origin := range strings.Split(v.GetString("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.ServiceToken == "" {
		return fmt.Errorf("GAME_SERVICE_TOKEN environment variable not set")
	}
	if c.InfluenceSweepConcurrency < 1 {
		c.InfluenceSweepConcurrency = 1
	}
	return nil
}

// R2Enabled reports whether season archives can be uploaded.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2Bucket != "" && c.R2AccessKeyID != ""
}
