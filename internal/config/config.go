package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		MaxUploadMB    int      `yaml:"maxUploadMB"`
		RateLimit      struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
		// APIKeys maps a client name to its key. Empty disables auth.
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"server"`

	Logger struct {
		Level string `yaml:"level"`
	} `yaml:"logger"`

	Database struct {
		Driver   string `yaml:"driver"` // file | sqlite | mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"` // sqlite file
	} `yaml:"database"`

	RuleBase struct {
		Path string `yaml:"path"`
	} `yaml:"rulebase"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		BaseURL string `yaml:"baseURL"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`

	Gemini struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	Kroolo struct {
		BaseURL string `yaml:"baseURL"`
		APIKey  string `yaml:"apiKey"`
	} `yaml:"kroolo"`

	Analysis struct {
		Providers   []string `yaml:"providers"`
		CacheSize   int      `yaml:"cacheSize"`
		SessionSize int      `yaml:"sessionSize"`
	} `yaml:"analysis"`

	// MongoURI is read only to warn that it is ignored.
	MongoURI string `yaml:"-"`
}

// Load reads the yaml file (optional), .env (optional) and environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setIf(&c.OpenAI.APIKey, firstNonEmpty(os.Getenv("OPENAI_API_KEY"), os.Getenv("NEXT_PUBLIC_OPENAI_API_KEY")))
	setIf(&c.OpenAI.BaseURL, os.Getenv("OPENAI_BASE_URL"))
	setIf(&c.OpenAI.Model, os.Getenv("OPENAI_MODEL"))
	setIf(&c.Gemini.APIKey, firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("NEXT_PUBLIC_GEMINI_API_KEY")))
	setIf(&c.Gemini.Model, os.Getenv("GEMINI_MODEL"))
	setIf(&c.Kroolo.BaseURL, os.Getenv("KROOLO_AI_URL"))
	setIf(&c.Kroolo.APIKey, os.Getenv("KROOLO_AI_KEY"))
	setIf(&c.Database.Driver, os.Getenv("DB_DRIVER"))
	setIf(&c.Database.Name, os.Getenv("DB_NAME"))
	setIf(&c.RuleBase.Path, os.Getenv("RULEBASE_PATH"))
	setIf(&c.Logger.Level, os.Getenv("LOG_LEVEL"))
	c.MongoURI = strings.TrimSpace(os.Getenv("MONGODB_URI"))

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if p, err := strconv.Atoi(strings.TrimPrefix(v, ":")); err == nil {
			c.Server.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_PROVIDERS")); v != "" {
		c.Analysis.Providers = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 20
	}
	if c.Server.RateLimit.Capacity <= 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.RefillRate <= 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "file"
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Path == "" {
		c.Database.Path = "data/copilot.db"
	}
	if c.RuleBase.Path == "" {
		c.RuleBase.Path = "data/rulebase.json"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if len(c.Analysis.Providers) == 0 {
		c.Analysis.Providers = []string{"openai", "gemini"}
	}
	if c.Analysis.CacheSize <= 0 {
		c.Analysis.CacheSize = 256
	}
	if c.Analysis.SessionSize <= 0 {
		c.Analysis.SessionSize = 1024
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
