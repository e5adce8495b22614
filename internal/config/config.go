package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultItemsURL  = "http://127.0.0.1:9000"
	DefaultSearchURL = "http://localhost:9000"
	DefaultImageURL  = "http://localhost:9000"
	DefaultFrontURL  = "http://localhost:3000"
)

type (
	// Endpoints groups the backend origins by what they serve. Search and
	// images historically lived on a different host name than the items API,
	// so each group is configured separately.
	Endpoints struct {
		ItemsURL  string `yaml:"items_url"`
		SearchURL string `yaml:"search_url"`
		ImageURL  string `yaml:"image_url"`
	}

	Web struct {
		Addr string `yaml:"addr"`
	}

	Backend struct {
		Addr     string `yaml:"addr"`
		FrontURL string `yaml:"front_url"`
		DBPath   string `yaml:"db_path"`
		ImageDir string `yaml:"image_dir"`
	}

	Config struct {
		Endpoints   Endpoints     `yaml:"endpoints"`
		Web         Web           `yaml:"web"`
		Backend     Backend       `yaml:"backend"`
		LogLevel    string        `yaml:"log_level"`
		HTTPTimeout time.Duration `yaml:"http_timeout"`
	}
)

func Default() *Config {
	return &Config{
		Endpoints: Endpoints{
			ItemsURL:  DefaultItemsURL,
			SearchURL: DefaultSearchURL,
			ImageURL:  DefaultImageURL,
		},
		Web: Web{Addr: ":3000"},
		Backend: Backend{
			Addr:     ":9000",
			FrontURL: DefaultFrontURL,
			DBPath:   "db/mercari.sqlite3",
			ImageDir: "images",
		},
		LogLevel:    "info",
		HTTPTimeout: 30 * time.Second,
	}
}

// Load resolves the configuration: defaults, then the YAML file at path (if
// path is not empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Endpoints.ItemsURL, "BACKEND_URL")
	set(&c.Endpoints.SearchURL, "SEARCH_URL")
	set(&c.Endpoints.ImageURL, "IMAGE_URL")
	set(&c.Web.Addr, "WEB_ADDR")
	set(&c.Backend.Addr, "BACKEND_ADDR")
	set(&c.Backend.FrontURL, "FRONT_URL")
	set(&c.Backend.DBPath, "DB_PATH")
	set(&c.Backend.ImageDir, "IMAGE_DIR")
	set(&c.LogLevel, "LOG_LEVEL")

	if v := getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

func (c *Config) Validate() error {
	for _, ep := range []struct{ name, raw string }{
		{"items_url", c.Endpoints.ItemsURL},
		{"search_url", c.Endpoints.SearchURL},
		{"image_url", c.Endpoints.ImageURL},
	} {
		name := ep.name
		u, err := url.Parse(ep.raw)
		if err != nil {
			return fmt.Errorf("endpoints.%s: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("endpoints.%s: unsupported scheme %q", name, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("endpoints.%s: missing host", name)
		}
	}
	if c.HTTPTimeout < 0 {
		return errors.New("http_timeout must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Trimmed returns the endpoints without trailing slashes so paths can be
// appended directly.
func (e Endpoints) Trimmed() Endpoints {
	return Endpoints{
		ItemsURL:  strings.TrimRight(e.ItemsURL, "/"),
		SearchURL: strings.TrimRight(e.SearchURL, "/"),
		ImageURL:  strings.TrimRight(e.ImageURL, "/"),
	}
}

func ParseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
