package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	c, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 3000 {
		t.Errorf("Port = %d, want 3000", c.Port)
	}
	if c.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", c.RedisAddr)
	}
	if c.Timezone != "Asia/Shanghai" {
		t.Errorf("Timezone = %q", c.Timezone)
	}
	if c.SessionTTLHours != 72 {
		t.Errorf("SessionTTLHours = %d", c.SessionTTLHours)
	}
	if c.MaxFilesPerTask != 10 {
		t.Errorf("MaxFilesPerTask = %d", c.MaxFilesPerTask)
	}
	if c.ThumbnailWorkers != 3 {
		t.Errorf("ThumbnailWorkers = %d", c.ThumbnailWorkers)
	}
	if c.LoginRateLimit.Enabled() {
		t.Error("login rate limit should be off by default")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
port: 8080
uploadsDir: /data/uploads
thumbnailsDir: /data/thumbnails
maxFilesPerTask: 5
loginRateLimit:
  requestsPerMinute: 30
  burstSize: 10
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 8080 || c.UploadsDir != "/data/uploads" || c.MaxFilesPerTask != 5 {
		t.Fatalf("yaml values not applied: %+v", c)
	}
	if !c.LoginRateLimit.Enabled() || c.LoginRateLimit.BurstSize != 10 {
		t.Fatalf("rate limit not applied: %+v", c.LoginRateLimit)
	}
	// Untouched fields still pick up defaults.
	if c.Timezone != "Asia/Shanghai" {
		t.Fatalf("Timezone = %q", c.Timezone)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("PASSWORD_HASH", "$2a$10$abc")
	t.Setenv("MAX_FILES_PER_TASK", "20")
	c, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 9999 || c.RedisAddr != "redis:6379" || c.PasswordHash != "$2a$10$abc" || c.MaxFilesPerTask != 20 {
		t.Fatalf("env overrides not applied: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"dev without secrets", func(c *Config) { c.Env = "dev" }, false},
		{"prod without secrets", func(c *Config) { c.Env = "prod" }, true},
		{"prod with secrets", func(c *Config) {
			c.Env = "prod"
			c.PasswordHash = "$2a$10$abc"
			c.SessionSecret = "s"
		}, false},
		{"shared storage roots", func(c *Config) {
			c.UploadsDir = "/data"
			c.ThumbnailsDir = "/data"
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := LoadConfigOptional("")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.mutate(c)
			if err := c.Validate(); (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
