package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppCfg struct {
	Env          string        `yaml:"env"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	JWT          struct {
		Secret         string `yaml:"secret"`
		SessionTTLDays int    `yaml:"sessionTTLDays"`
	} `yaml:"jwt"`
}

type MongoCfg struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisCfg struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type BrevoCfg struct {
	APIKey      string `yaml:"apiKey"`
	SenderEmail string `yaml:"senderEmail"`
	SenderName  string `yaml:"senderName"`
}

type UserCfg struct {
	Collection string `yaml:"collection"`
}

type SecurityCfg struct {
	PasswordHashCost            int `yaml:"passwordHashCost"`
	VerifyOTPTTLHours           int `yaml:"verifyOTPTTLHours"`
	ResetOTPTTLMinutes          int `yaml:"resetOTPTTLMinutes"`
	OtpRateLimitPerEmailPerHour int `yaml:"otpRateLimitPerEmailPerHour"`
}

type CORSCfg struct {
	AllowedOrigins string `yaml:"allowedOrigins"`
}

type Config struct {
	App      AppCfg      `yaml:"app"`
	Mongo    MongoCfg    `yaml:"mongo"`
	Redis    RedisCfg    `yaml:"redis"`
	Brevo    BrevoCfg    `yaml:"brevo"`
	User     UserCfg     `yaml:"user"`
	Security SecurityCfg `yaml:"security"`
	CORS     CORSCfg     `yaml:"cors"`
}

// IsProduction decides cookie hardening: Secure on, SameSite relaxed to None
// for the cross-origin client.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.App.JWT.SessionTTLDays) * 24 * time.Hour
}

func (c *Config) VerifyOTPWindow() time.Duration {
	return time.Duration(c.Security.VerifyOTPTTLHours) * time.Hour
}

func (c *Config) ResetOTPWindow() time.Duration {
	return time.Duration(c.Security.ResetOTPTTLMinutes) * time.Minute
}

// Load reads the YAML file, then applies .env / environment overrides on top.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	override := func(env string, apply func(string)) {
		if v := os.Getenv(env); v != "" {
			apply(v)
		}
	}
	overrideInt := func(env string, apply func(int)) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				apply(n)
			}
		}
	}

	override("APP_ENV", func(v string) { cfg.App.Env = v })
	overrideInt("APP_PORT", func(n int) { cfg.App.Port = n })
	override("JWT_SECRET", func(v string) { cfg.App.JWT.Secret = v })
	overrideInt("JWT_SESSION_TTL_DAYS", func(n int) { cfg.App.JWT.SessionTTLDays = n })
	override("MONGO_URI", func(v string) { cfg.Mongo.URI = v })
	override("MONGO_DB", func(v string) { cfg.Mongo.Database = v })
	override("REDIS_ADDR", func(v string) { cfg.Redis.Addr = v })
	override("REDIS_PASSWORD", func(v string) { cfg.Redis.Password = v })
	overrideInt("REDIS_DB", func(n int) { cfg.Redis.DB = n })
	override("BREVO_API_KEY", func(v string) { cfg.Brevo.APIKey = v })
	override("SENDER_EMAIL", func(v string) { cfg.Brevo.SenderEmail = v })
	override("SENDER_NAME", func(v string) { cfg.Brevo.SenderName = v })
	overrideInt("PASSWORD_HASH_COST", func(n int) { cfg.Security.PasswordHashCost = n })
	overrideInt("VERIFY_OTP_TTL_HOURS", func(n int) { cfg.Security.VerifyOTPTTLHours = n })
	overrideInt("RESET_OTP_TTL_MINUTES", func(n int) { cfg.Security.ResetOTPTTLMinutes = n })
	overrideInt("OTP_RATE_LIMIT_PER_EMAIL_PER_HOUR", func(n int) { cfg.Security.OtpRateLimitPerEmailPerHour = n })
	override("ALLOWED_ORIGINS", func(v string) { cfg.CORS.AllowedOrigins = v })

	if cfg.User.Collection == "" {
		cfg.User.Collection = "users"
	}
	if cfg.App.JWT.SessionTTLDays == 0 {
		cfg.App.JWT.SessionTTLDays = 7
	}
	if cfg.Security.VerifyOTPTTLHours == 0 {
		cfg.Security.VerifyOTPTTLHours = 24
	}
	if cfg.Security.ResetOTPTTLMinutes == 0 {
		cfg.Security.ResetOTPTTLMinutes = 15
	}

	if cfg.App.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required (set in .env or config.yaml)")
	}
	if cfg.Mongo.URI == "" {
		return nil, errors.New("MONGO_URI is required")
	}

	return cfg, nil
}
