// Package config loads schemagraph settings from a YAML file, a .env file
// and SCHEMAGRAPH_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/errs"
	"github.com/tordrt/schemagraph/internal/logger"
	"github.com/tordrt/schemagraph/internal/reader"
)

// EnvPrefix prefixes every environment variable Load reads.
const EnvPrefix = "SCHEMAGRAPH_"

// DefaultConfigNames are the file names searched in the working directory
// when no explicit path is given.
var DefaultConfigNames = []string{".schemagraph.yaml", ".schemagraph.yml", "schemagraph.yaml", "schemagraph.yml"}

// Config is the complete settings of a CLI or server run.
type Config struct {
	Provider         string        `yaml:"provider"`
	ConnectionString string        `yaml:"connection"`
	Owner            string        `yaml:"owner,omitempty"`
	DriverName       string        `yaml:"driver,omitempty"`
	Exclude          Exclude       `yaml:"exclude,omitempty"`
	Pool             db.PoolConfig `yaml:"pool"`
	Log              logger.Config `yaml:"log"`
	Server           ServerConfig  `yaml:"server"`
}

// Exclude lists shell glob patterns per object kind.
type Exclude struct {
	Tables     []string `yaml:"tables,omitempty"`
	Views      []string `yaml:"views,omitempty"`
	Procedures []string `yaml:"procedures,omitempty"`
	Packages   []string `yaml:"packages,omitempty"`
}

// ServerConfig configures the HTTP browser.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Pool: db.DefaultPoolConfig(),
		Log:  *logger.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (or the first
// DefaultConfigNames entry found when path is empty), a .env file in the
// working directory and the environment. A missing default file or .env is
// not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfig(".")
	} else if _, err := os.Stat(path); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "config file not found", err)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func findConfig(dir string) string {
	for _, name := range DefaultConfigNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to parse config file "+path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnv("PROVIDER", c.Provider)
	c.ConnectionString = getEnv("CONNECTION", c.ConnectionString)
	c.Owner = getEnv("OWNER", c.Owner)
	c.DriverName = getEnv("DRIVER", c.DriverName)

	c.Exclude.Tables = getEnvList("EXCLUDE_TABLES", c.Exclude.Tables)
	c.Exclude.Views = getEnvList("EXCLUDE_VIEWS", c.Exclude.Views)
	c.Exclude.Procedures = getEnvList("EXCLUDE_PROCEDURES", c.Exclude.Procedures)
	c.Exclude.Packages = getEnvList("EXCLUDE_PACKAGES", c.Exclude.Packages)

	c.Pool.MaxConns = int32(getEnvInt("POOL_MAX_CONNS", int(c.Pool.MaxConns)))
	c.Pool.MinConns = int32(getEnvInt("POOL_MIN_CONNS", int(c.Pool.MinConns)))
	c.Pool.MaxConnLifetime = getEnvDuration("POOL_MAX_CONN_LIFETIME", c.Pool.MaxConnLifetime)
	c.Pool.MaxConnIdleTime = getEnvDuration("POOL_MAX_CONN_IDLE_TIME", c.Pool.MaxConnIdleTime)
	c.Pool.ConnectTimeout = getEnvDuration("CONNECT_TIMEOUT", c.Pool.ConnectTimeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
}

// Validate checks the settings a read needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ConnectionString) == "" {
		return errs.New(errs.ErrKindInvalidInput, "connection string is required")
	}
	if strings.TrimSpace(c.Provider) == "" && !strings.Contains(c.ConnectionString, "://") {
		return errs.New(errs.ErrKindInvalidInput, "provider is required when the connection string has no URL scheme")
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "invalid log format %q (must be json or console)", c.Log.Format)
	}
	if c.Pool.MaxConns < 0 || c.Pool.MinConns < 0 {
		return errs.New(errs.ErrKindInvalidInput, "pool sizes must not be negative")
	}
	if c.Pool.MaxConns > 0 && c.Pool.MinConns > c.Pool.MaxConns {
		return errs.Newf(errs.ErrKindInvalidInput, "pool min_conns %d exceeds max_conns %d", c.Pool.MinConns, c.Pool.MaxConns)
	}
	for _, patterns := range [][]string{c.Exclude.Tables, c.Exclude.Views, c.Exclude.Procedures, c.Exclude.Packages} {
		for _, p := range patterns {
			if _, err := filepath.Match(p, ""); err != nil {
				return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("invalid exclusion pattern %q", p), err)
			}
		}
	}
	return nil
}

// Exclusions compiles the glob lists into reader predicates. Matching is
// case-insensitive.
func (c *Config) Exclusions() reader.Exclusions {
	return reader.Exclusions{
		Table:     Matcher(c.Exclude.Tables),
		View:      Matcher(c.Exclude.Views),
		Procedure: Matcher(c.Exclude.Procedures),
		Package:   Matcher(c.Exclude.Packages),
	}
}

// Matcher returns a predicate reporting whether a name matches any of the
// glob patterns, or nil when there are none.
func Matcher(patterns []string) func(string) bool {
	var lowered []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			lowered = append(lowered, strings.ToLower(p))
		}
	}
	if len(lowered) == 0 {
		return nil
	}
	return func(name string) bool {
		name = strings.ToLower(name)
		for _, p := range lowered {
			if ok, _ := filepath.Match(p, name); ok {
				return true
			}
		}
		return false
	}
}

// SplitList splits a comma-separated flag or variable value.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return SplitList(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Global().WarnWith("invalid integer in environment, using default", err, map[string]any{
			"key":     EnvPrefix + key,
			"value":   valueStr,
			"default": defaultValue,
		})
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Global().WarnWith("invalid duration in environment, using default", err, map[string]any{
			"key":     EnvPrefix + key,
			"value":   valueStr,
			"default": defaultValue.String(),
		})
		return defaultValue
	}
	return value
}
