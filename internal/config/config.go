// Package config loads the server configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr    string `yaml:"addr"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	// Auth decides how the authenticated user of a request is
	// resolved. The trusted header mode expects a reverse proxy or
	// host application to set the header after authenticating.
	Auth struct {
		UserHeader string `yaml:"user_header"`
	} `yaml:"auth"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	ObjectStore struct {
		Driver string `yaml:"driver"` // disk | s3
		Disk   struct {
			Root    string `yaml:"root"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"disk"`
		S3 struct {
			Endpoint  string `yaml:"endpoint"`
			Region    string `yaml:"region"`
			Bucket    string `yaml:"bucket"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			Secure    bool   `yaml:"secure"`
			BaseURL   string `yaml:"base_url"`
		} `yaml:"s3"`
	} `yaml:"object_store"`

	Discovery struct {
		Timeout       time.Duration `yaml:"timeout"`
		ThumbnailSize int           `yaml:"thumbnail_size"`
	} `yaml:"discovery"`

	Log struct {
		Level string `yaml:"level"`
		Env   string `yaml:"env"` // dev | prod
	} `yaml:"log"`
}

// Load reads the YAML file at path, fills defaults and applies
// environment overrides. A missing file is not an error: defaults plus
// environment must be enough to run in dev.
func Load(path string) (*Config, error) {
	c := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Auth.UserHeader == "" {
		c.Auth.UserHeader = "X-Authenticated-User"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == 0 {
		c.Cache.Memory.DefaultTTL = 5 * time.Minute
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "indieauth:"
	}
	if c.ObjectStore.Driver == "" {
		c.ObjectStore.Driver = "disk"
	}
	if c.ObjectStore.Disk.Root == "" {
		c.ObjectStore.Disk.Root = "./data/media"
	}
	if c.ObjectStore.Disk.BaseURL == "" {
		c.ObjectStore.Disk.BaseURL = c.Server.BaseURL + "/media"
	}
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = 10 * time.Second
	}
	if c.Discovery.ThumbnailSize == 0 {
		c.Discovery.ThumbnailSize = 150
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Env == "" {
		c.Log.Env = "dev"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("INDIEAUTH_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("INDIEAUTH_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvStr("INDIEAUTH_USER_HEADER"); ok {
		c.Auth.UserHeader = v
	}
	if v, ok := getEnvStr("INDIEAUTH_STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("INDIEAUTH_POSTGRES_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}
	if v, ok := getEnvStr("INDIEAUTH_CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("INDIEAUTH_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("INDIEAUTH_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("INDIEAUTH_OBJECT_STORE_DRIVER"); ok {
		c.ObjectStore.Driver = v
	}
	if v, ok := getEnvStr("INDIEAUTH_DISK_ROOT"); ok {
		c.ObjectStore.Disk.Root = v
	}
	if v, ok := getEnvStr("INDIEAUTH_S3_ENDPOINT"); ok {
		c.ObjectStore.S3.Endpoint = v
	}
	if v, ok := getEnvStr("INDIEAUTH_S3_BUCKET"); ok {
		c.ObjectStore.S3.Bucket = v
	}
	if v, ok := getEnvStr("INDIEAUTH_S3_ACCESS_KEY"); ok {
		c.ObjectStore.S3.AccessKey = v
	}
	if v, ok := getEnvStr("INDIEAUTH_S3_SECRET_KEY"); ok {
		c.ObjectStore.S3.SecretKey = v
	}
	if v, ok := getEnvDur("INDIEAUTH_DISCOVERY_TIMEOUT"); ok {
		c.Discovery.Timeout = v
	}
	if v, ok := getEnvStr("INDIEAUTH_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("INDIEAUTH_LOG_ENV"); ok {
		c.Log.Env = v
	}
}

// Validate rejects configurations that cannot possibly run.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("config: storage driver postgres requires a dsn")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("config: cache kind redis requires an addr")
		}
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}

	switch c.ObjectStore.Driver {
	case "disk":
	case "s3":
		if c.ObjectStore.S3.Endpoint == "" || c.ObjectStore.S3.Bucket == "" {
			return fmt.Errorf("config: object store driver s3 requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("config: unknown object store driver %q", c.ObjectStore.Driver)
	}

	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	return nil
}

func getEnvStr(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func getEnvInt(key string) (int, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getEnvDur(key string) (time.Duration, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
