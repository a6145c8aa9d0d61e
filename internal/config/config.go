// Package config assembles the runtime settings of the board.
//
// Values are layered, later sources winning:
//   - built-in defaults
//   - a YAML file named by --config or ASSIGNBOARD_CONFIG
//   - a .env file (variables already set in the environment are kept)
//   - ASSIGNBOARD_* environment variables
//   - command-line flags that were set explicitly
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"assignboard/internal/util"
)

// Environment variable names.
const (
	EnvConfig         = "ASSIGNBOARD_CONFIG"
	EnvAddr           = "ASSIGNBOARD_ADDR"
	EnvAPIBase        = "ASSIGNBOARD_API_BASE"
	EnvDBPath         = "ASSIGNBOARD_DB_PATH"
	EnvAPITimeout     = "ASSIGNBOARD_API_TIMEOUT"
	EnvOrganizationID = "ASSIGNBOARD_ORG_ID"
	EnvLogLevel       = "ASSIGNBOARD_LOG_LEVEL"
)

// Config is the full set of settings.
type Config struct {
	// Addr is the listen address of the local web server.
	Addr string `yaml:"addr"`
	// APIBase is the origin of the remote assignment API.
	APIBase string `yaml:"api_base"`
	// DBPath is the sqlite file holding the session and cookies.
	DBPath string `yaml:"db_path"`
	// APITimeout bounds every API request.
	APITimeout time.Duration `yaml:"api_timeout"`
	// OrganizationID is sent with every signup.
	OrganizationID int64 `yaml:"organization_id"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:           ":3000",
		APIBase:        "http://localhost:8000",
		DBPath:         "data/assignboard.db",
		APITimeout:     30 * time.Second,
		OrganizationID: 1,
		LogLevel:       "info",
	}
}

// Load parses args (without the program name) and resolves every layer.
// It returns pflag.ErrHelp when -h was requested.
func Load(args []string) (Config, error) {
	cfg := Default()

	var flags Config
	var configPath, envFile string
	fs := pflag.NewFlagSet("assignboard", pflag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "YAML configuration file (env "+EnvConfig+")")
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment when present")
	fs.StringVar(&flags.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&flags.APIBase, "api-base", cfg.APIBase, "base URL of the assignment API")
	fs.StringVar(&flags.DBPath, "db", cfg.DBPath, "path to sqlite database file")
	fs.DurationVar(&flags.APITimeout, "api-timeout", cfg.APITimeout, "timeout for each API request")
	fs.Int64Var(&flags.OrganizationID, "org-id", cfg.OrganizationID, "organization joined by new signups")
	fs.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadDotenv(envFile); err != nil {
		return Config{}, err
	}

	if configPath == "" {
		configPath = util.EnvOrDefault(EnvConfig, "")
	}
	if configPath != "" {
		if err := cfg.mergeFile(configPath); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}

	if fs.Changed("addr") {
		cfg.Addr = flags.Addr
	}
	if fs.Changed("api-base") {
		cfg.APIBase = flags.APIBase
	}
	if fs.Changed("db") {
		cfg.DBPath = flags.DBPath
	}
	if fs.Changed("api-timeout") {
		cfg.APITimeout = flags.APITimeout
	}
	if fs.Changed("org-id") {
		cfg.OrganizationID = flags.OrganizationID
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// mergeFile overlays the keys present in the YAML file at path.
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

func (c *Config) mergeEnv() error {
	c.Addr = util.EnvOrDefault(EnvAddr, c.Addr)
	c.APIBase = util.EnvOrDefault(EnvAPIBase, c.APIBase)
	c.DBPath = util.EnvOrDefault(EnvDBPath, c.DBPath)
	c.LogLevel = util.EnvOrDefault(EnvLogLevel, c.LogLevel)

	timeout, err := util.EnvDurationOrDefault(EnvAPITimeout, c.APITimeout)
	if err != nil {
		return err
	}
	c.APITimeout = timeout

	org, err := util.EnvInt64OrDefault(EnvOrganizationID, c.OrganizationID)
	if err != nil {
		return err
	}
	c.OrganizationID = org
	return nil
}

// Validate rejects settings the board cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("listen address is empty")
	}
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base %q must be an http(s) URL", c.APIBase)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database path is empty")
	}
	if c.OrganizationID <= 0 {
		return fmt.Errorf("organization id must be positive, got %d", c.OrganizationID)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level converts LogLevel into a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
