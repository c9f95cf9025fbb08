package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"

	// GeminiBaseURL is Google's OpenAI-compatible endpoint.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

type Config struct {
	Server struct {
		Port               int           `yaml:"port"`
		ReadTimeout        time.Duration `yaml:"readTimeout"`
		WriteTimeout       time.Duration `yaml:"writeTimeout"`
		MaxUploadMB        int64         `yaml:"maxUploadMB"`
		CORSOrigins        []string      `yaml:"corsOrigins"`
		RateLimitPerMinute int           `yaml:"rateLimitPerMinute"`
		RateLimitBurst     int           `yaml:"rateLimitBurst"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | text
	} `yaml:"log"`

	Analysis struct {
		Provider  string        `yaml:"provider"`
		APIKey    string        `yaml:"apiKey"`
		Model     string        `yaml:"model"`
		BaseURL   string        `yaml:"baseURL"`
		Timeout   time.Duration `yaml:"timeout"`
		MaxTokens int           `yaml:"maxTokens"`
		StubFail  bool          `yaml:"stubFail"`
	} `yaml:"analysis"`

	Reports struct {
		DefaultSubmitter string `yaml:"defaultSubmitter"`
	} `yaml:"reports"`

	Database struct {
		Driver      string `yaml:"driver"` // mysql | postgres | memory
		DSN         string `yaml:"dsn"`
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		User        string `yaml:"user"`
		Password    string `yaml:"password"`
		Name        string `yaml:"name"`
		AutoMigrate bool   `yaml:"autoMigrate"`
	} `yaml:"database"`

	Storage struct {
		Driver string `yaml:"driver"` // minio | local
		Local  struct {
			Path      string `yaml:"path"`
			URLPrefix string `yaml:"urlPrefix"`
		} `yaml:"local"`
		Minio struct {
			Endpoint   string        `yaml:"endpoint"`
			AccessKey  string        `yaml:"accessKey"`
			SecretKey  string        `yaml:"secretKey"`
			BucketName string        `yaml:"bucketName"`
			Region     string        `yaml:"region"`
			UseSSL     bool          `yaml:"useSSL"`
			PresignTTL time.Duration `yaml:"presignTTL"`
		} `yaml:"minio"`
	} `yaml:"storage"`
}

// Load baca .env (kalau ada), file config.yaml, lalu override dari env.
// A missing config file is fine; defaults and environment are used instead.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("GENAI_API_KEY", &c.Analysis.APIKey)
	str("GENAI_MODEL", &c.Analysis.Model)
	str("GENAI_BASE_URL", &c.Analysis.BaseURL)
	str("GENAI_PROVIDER", &c.Analysis.Provider)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_DSN", &c.Database.DSN)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("MEDIA_ROOT", &c.Storage.Local.Path)
	str("MINIO_ENDPOINT", &c.Storage.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Storage.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Storage.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Storage.Minio.BucketName)
	str("LOG_LEVEL", &c.Log.Level)
	str("DEFAULT_SUBMITTER", &c.Reports.DefaultSubmitter)

	if v, ok := lookup("PORT"); ok && v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q", v)
		}
		c.Server.Port = p
	}
	if v, ok := lookup("GENAI_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GENAI_TIMEOUT %q: %w", v, err)
		}
		c.Analysis.Timeout = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = 60
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Analysis.Provider == "" {
		c.Analysis.Provider = ProviderGemini
	}
	if c.Analysis.Provider == ProviderGemini {
		if c.Analysis.BaseURL == "" {
			c.Analysis.BaseURL = GeminiBaseURL
		}
		if c.Analysis.Model == "" {
			c.Analysis.Model = "gemini-1.5-flash"
		}
	}
	if c.Analysis.Provider == ProviderOpenAI && c.Analysis.Model == "" {
		c.Analysis.Model = "gpt-4o-mini"
	}
	if c.Analysis.Timeout == 0 {
		c.Analysis.Timeout = 60 * time.Second
	}
	// leave room for the analysis call plus storage round trips
	if c.Server.WriteTimeout == 0 || c.Server.WriteTimeout <= c.Analysis.Timeout {
		c.Server.WriteTimeout = c.Analysis.Timeout + 15*time.Second
	}

	if c.Reports.DefaultSubmitter == "" {
		c.Reports.DefaultSubmitter = "demo_user"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.Local.Path == "" {
		c.Storage.Local.Path = "media"
	}
	if c.Storage.Local.URLPrefix == "" {
		c.Storage.Local.URLPrefix = "/media/"
	}
}

// Validate rejects unknown drivers and providers
func (c *Config) Validate() error {
	switch c.Analysis.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderStub:
	default:
		return fmt.Errorf("unknown analysis provider %q", c.Analysis.Provider)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.BucketName == "" {
			return errors.New("minio storage requires endpoint and bucketName")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
