package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bucket configures a token-bucket rate limit.
type Bucket struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

func (b Bucket) Enabled() bool {
	return b.RequestsPerMinute > 0 && b.BurstSize > 0
}

type Config struct {
	Port            int    `yaml:"port"`
	RedisAddr       string `yaml:"redisAddr"`
	RedisPassword   string `yaml:"redisPassword"`
	UploadsDir      string `yaml:"uploadsDir"`
	ThumbnailsDir   string `yaml:"thumbnailsDir"`
	PublicDir       string `yaml:"publicDir"`
	PasswordHash    string `yaml:"passwordHash"`
	SessionSecret   string `yaml:"sessionSecret"`
	SessionTTLHours int    `yaml:"sessionTtlHours"`
	Timezone        string `yaml:"timezone"`
	LogLevel        string `yaml:"logLevel"`
	LogFormat       string `yaml:"logFormat"`
	Env             string `yaml:"env"`

	MaxFilesPerTask  int `yaml:"maxFilesPerTask"`
	ThumbnailWorkers int `yaml:"thumbnailWorkers"`

	TracingEnabled   bool    `yaml:"tracingEnabled"`
	OTLPEndpoint     string  `yaml:"otlpEndpoint"`
	OTLPInsecure     bool    `yaml:"otlpInsecure"`
	TraceSampleRatio float64 `yaml:"traceSampleRatio"`

	LoginRateLimit Bucket `yaml:"loginRateLimit"`
}

// LoadConfigOptional loads the yaml file when filePath is non-empty and
// always applies env overrides and defaults.
func LoadConfigOptional(filePath string) (*Config, error) {
	var c Config
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("UPLOADS_DIR"); v != "" {
		c.UploadsDir = v
	}
	if v := os.Getenv("THUMBNAILS_DIR"); v != "" {
		c.ThumbnailsDir = v
	}
	if v := os.Getenv("PUBLIC_DIR"); v != "" {
		c.PublicDir = v
	}
	if v := os.Getenv("PASSWORD_HASH"); v != "" {
		c.PasswordHash = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SessionTTLHours = n
		}
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("MAX_FILES_PER_TASK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxFilesPerTask = n
		}
	}
	if v := os.Getenv("THUMBNAIL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ThumbnailWorkers = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "./uploads"
	}
	if c.ThumbnailsDir == "" {
		c.ThumbnailsDir = "./thumbnails"
	}
	if c.PublicDir == "" {
		c.PublicDir = "./public"
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = 72
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Shanghai"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.MaxFilesPerTask <= 0 {
		c.MaxFilesPerTask = 10
	}
	if c.ThumbnailWorkers <= 0 {
		c.ThumbnailWorkers = 3
	}
	if c.TraceSampleRatio <= 0 || c.TraceSampleRatio > 1 {
		c.TraceSampleRatio = 1
	}
}

func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev" || env == "test"

	if strings.TrimSpace(c.PasswordHash) == "" && !dev {
		errs = append(errs, "passwordHash is required in non-dev")
	}
	if strings.TrimSpace(c.SessionSecret) == "" && !dev {
		errs = append(errs, "sessionSecret is required in non-dev")
	}
	if c.UploadsDir == c.ThumbnailsDir {
		errs = append(errs, "uploadsDir and thumbnailsDir must be distinct namespaces")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
