package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		PublicURL      string   `yaml:"publicURL"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		AdminKeys      []string `yaml:"adminKeys"`
		MaxBodyBytes   int64    `yaml:"maxBodyBytes"`
		TrustedProxies []string `yaml:"trustedProxies"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | memory
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		APIKey        string        `yaml:"apiKey"`
		BaseURL       string        `yaml:"baseURL"`
		PrimaryModel  string        `yaml:"primaryModel"`
		FallbackModel string        `yaml:"fallbackModel"`
		RetryDelay    time.Duration `yaml:"retryDelay"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Payment struct {
		SecretKey    string        `yaml:"secretKey"`
		ClientKey    string        `yaml:"clientKey"`
		BaseURL      string        `yaml:"baseURL"`
		Amount       int64         `yaml:"amount"`
		OrderName    string        `yaml:"orderName"`
		CustomerName string        `yaml:"customerName"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"payment"`

	Session struct {
		SigningKey string        `yaml:"signingKey"`
		TTL        time.Duration `yaml:"ttl"`
		CookieName string        `yaml:"cookieName"`
	} `yaml:"session"`

	Analysis struct {
		MatchRateMin int `yaml:"matchRateMin"`
		MatchRateMax int `yaml:"matchRateMax"`
	} `yaml:"analysis"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requestsPerSecond"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	Log struct {
		Level  string `yaml:"level"`
		File   string `yaml:"file"`
		Format string `yaml:"format"` // text | json
	} `yaml:"log"`
}

// Load reads config.yaml (a missing file is fine), fills defaults and applies
// environment overrides for vendor credentials.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 10 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if c.AI.PrimaryModel == "" {
		c.AI.PrimaryModel = "gemini-2.5-flash"
	}
	if c.AI.FallbackModel == "" {
		c.AI.FallbackModel = "gemini-1.5-flash"
	}
	if c.AI.RetryDelay == 0 {
		c.AI.RetryDelay = time.Second
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.Payment.BaseURL == "" {
		c.Payment.BaseURL = "https://api.tosspayments.com"
	}
	if c.Payment.Amount == 0 {
		c.Payment.Amount = 3900
	}
	if c.Payment.OrderName == "" {
		c.Payment.OrderName = "AI 관상 분석 리포트"
	}
	if c.Payment.CustomerName == "" {
		c.Payment.CustomerName = "익명 고객"
	}
	if c.Payment.Timeout == 0 {
		c.Payment.Timeout = 15 * time.Second
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "wf_session"
	}
	if c.Analysis.MatchRateMin == 0 {
		c.Analysis.MatchRateMin = 85
	}
	if c.Analysis.MatchRateMax == 0 {
		c.Analysis.MatchRateMax = 99
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 2
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// applyEnv lets deployments keep vendor secrets out of the YAML file.
func (c *Config) applyEnv() {
	setString(&c.AI.APIKey, "GEMINI_API_KEY")
	setString(&c.Payment.SecretKey, "TOSS_SECRET_KEY")
	setString(&c.Payment.ClientKey, "TOSS_CLIENT_KEY")
	setString(&c.Session.SigningKey, "SESSION_SIGNING_KEY")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("ADMIN_KEYS"); v != "" {
		c.Server.AdminKeys = splitCSV(v)
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MinioEnabled reports whether the image archive should be wired.
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.BucketName != ""
}

// DSN builds the driver specific connection string.
func (c *Config) DSN() string {
	switch c.Database.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.Name,
			c.Database.SSLMode,
		)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	}
}
