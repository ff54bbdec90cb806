// Package config provides configuration management for the msum command-line tool.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultBackendURL    = "http://localhost:3000"
	DefaultTimeout       = 2 * time.Minute
	DefaultDeleteTimeout = 10 * time.Second
	DefaultRefreshDelay  = time.Second
	DefaultCacheTTL      = 10 * time.Minute
	DefaultOutputFormat  = OutputFormatText
	DefaultConfigDir     = ".msum"
	DefaultConfigFile    = "config.yaml"
	DefaultCertDir       = ".config/msum/certs"
)

// TLSConfig holds client TLS settings for HTTPS backends.
type TLSConfig struct {
	// CACert is the path to a CA bundle for verifying the backend.
	CACert string `yaml:"ca_cert,omitempty"`

	// ClientCert and ClientKey enable mutual TLS when both are set.
	ClientCert string `yaml:"client_cert,omitempty"`
	ClientKey  string `yaml:"client_key,omitempty"`

	// CertDir is a directory containing ca.crt, client.crt, and client.key files.
	CertDir string `yaml:"cert_dir,omitempty"`

	// SkipVerify disables server certificate verification (insecure, for testing only).
	SkipVerify bool `yaml:"skip_verify,omitempty"`
}

// Enabled reports whether any TLS material is configured.
func (c *TLSConfig) Enabled() bool {
	return c.CACert != "" || c.ClientCert != "" || c.CertDir != "" || c.SkipVerify
}

// ResolvePaths expands ~ in paths and sets defaults from CertDir if configured.
func (c *TLSConfig) ResolvePaths() {
	if c.CertDir != "" {
		c.CertDir = expandPath(c.CertDir)
		if c.CACert == "" {
			c.CACert = filepath.Join(c.CertDir, "ca.crt")
		}
		if c.ClientCert == "" {
			c.ClientCert = filepath.Join(c.CertDir, "client.crt")
		}
		if c.ClientKey == "" {
			c.ClientKey = filepath.Join(c.CertDir, "client.key")
		}
		return
	}
	c.CACert = expandPath(c.CACert)
	c.ClientCert = expandPath(c.ClientCert)
	c.ClientKey = expandPath(c.ClientKey)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// CacheConfig holds the Redis settings for the meeting detail cache.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr,omitempty"`
	Password  string        `yaml:"password,omitempty"`
	DB        int           `yaml:"db,omitempty"`
	TTL       time.Duration `yaml:"-"`
}

// IsConfigured returns true if a Redis address is set.
func (c *CacheConfig) IsConfigured() bool {
	return c != nil && c.RedisAddr != ""
}

// GetTTL returns the entry lifetime, defaulting to DefaultCacheTTL.
func (c *CacheConfig) GetTTL() time.Duration {
	if c == nil || c.TTL <= 0 {
		return DefaultCacheTTL
	}
	return c.TTL
}

// CommandLogConfig holds the PostgreSQL settings for the command history log.
type CommandLogConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`

	// SSLMode is the SSL connection mode (disable, require, verify-ca, verify-full).
	SSLMode string `yaml:"sslmode,omitempty"`

	// SSLRootCert is the path to the SSL root certificate file.
	SSLRootCert string `yaml:"sslrootcert,omitempty"`
}

// ConnectionString returns the PostgreSQL connection string.
// Returns empty string if the command log is not configured.
func (c *CommandLogConfig) ConnectionString() string {
	if !c.IsConfigured() {
		return ""
	}

	port := c.Port
	if port == 0 {
		port = 5432
	}

	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}

	connStr := fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s",
		c.Host, port, c.Database, c.User, sslmode)

	if (sslmode == "verify-ca" || sslmode == "verify-full") && c.SSLRootCert != "" {
		connStr += " sslrootcert=" + expandPath(c.SSLRootCert)
	}

	return connStr
}

// IsConfigured returns true if the command log has its required fields.
func (c *CommandLogConfig) IsConfigured() bool {
	return c != nil && c.Host != "" && c.Database != "" && c.User != ""
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// BackendURL is the base URL of the summarizer backend.
	BackendURL string

	// Timeout bounds every backend request except deletes.
	Timeout time.Duration

	// DeleteTimeout bounds meeting deletion.
	DeleteTimeout time.Duration

	// RefreshDelay is the wait before re-fetching the list after a delete.
	RefreshDelay time.Duration

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat

	// AutoSubmit makes the wizard submit as soon as file, emails and name are all valid.
	AutoSubmit bool

	// Debug enables verbose debug logging.
	Debug bool

	// Insecure disables TLS verification (for development only).
	Insecure bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// MetricsTextfile, if set, receives client metrics in Prometheus text format on exit.
	MetricsTextfile string

	TLS        TLSConfig
	Cache      *CacheConfig
	CommandLog *CommandLogConfig
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		BackendURL:    DefaultBackendURL,
		Timeout:       DefaultTimeout,
		DeleteTimeout: DefaultDeleteTimeout,
		RefreshDelay:  DefaultRefreshDelay,
		OutputFormat:  DefaultOutputFormat,
		AutoSubmit:    true,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $MSUM_CONFIG_DIR if set, otherwise ~/.msum
func ConfigDir() (string, error) {
	if dir := os.Getenv("MSUM_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from the default file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.msum/config.yaml or $MSUM_CONFIG_DIR/config.yaml)
// 3. Environment variables (MSUM_*)
func LoadConfig() (*CLIConfig, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom is LoadConfig with an explicit file path. A missing file is not an error.
func LoadConfigFrom(configPath string) (*CLIConfig, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// cacheFile is CacheConfig with its TTL kept as text.
type cacheFile struct {
	RedisAddr string `yaml:"redis_addr,omitempty"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	TTL       string `yaml:"ttl,omitempty"`
}

// configFile is the on-disk shape: durations are strings such as "30s".
type configFile struct {
	BackendURL      string            `yaml:"backend_url"`
	Timeout         string            `yaml:"timeout"`
	DeleteTimeout   string            `yaml:"delete_timeout,omitempty"`
	RefreshDelay    string            `yaml:"refresh_delay,omitempty"`
	OutputFormat    OutputFormat      `yaml:"output_format"`
	AutoSubmit      *bool             `yaml:"auto_submit,omitempty"`
	Debug           bool              `yaml:"debug,omitempty"`
	Insecure        bool              `yaml:"insecure,omitempty"`
	LogJSON         bool              `yaml:"log_json,omitempty"`
	MetricsTextfile string            `yaml:"metrics_textfile,omitempty"`
	TLS             TLSConfig         `yaml:"tls,omitempty"`
	Cache           *cacheFile        `yaml:"cache,omitempty"`
	CommandLog      *CommandLogConfig `yaml:"command_log,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.BackendURL != "" {
		cfg.BackendURL = fileCfg.BackendURL
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeout", fileCfg.Timeout, &cfg.Timeout},
		{"delete_timeout", fileCfg.DeleteTimeout, &cfg.DeleteTimeout},
		{"refresh_delay", fileCfg.RefreshDelay, &cfg.RefreshDelay},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", d.name, err)
		}
		*d.dst = v
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.AutoSubmit != nil {
		cfg.AutoSubmit = *fileCfg.AutoSubmit
	}
	cfg.Debug = fileCfg.Debug
	cfg.Insecure = fileCfg.Insecure
	cfg.LogJSON = fileCfg.LogJSON
	cfg.MetricsTextfile = fileCfg.MetricsTextfile
	cfg.TLS = fileCfg.TLS
	cfg.CommandLog = fileCfg.CommandLog

	if fc := fileCfg.Cache; fc != nil {
		cfg.Cache = &CacheConfig{RedisAddr: fc.RedisAddr, Password: fc.Password, DB: fc.DB}
		if fc.TTL != "" {
			ttl, err := time.ParseDuration(fc.TTL)
			if err != nil {
				return fmt.Errorf("parsing cache.ttl: %w", err)
			}
			cfg.Cache.TTL = ttl
		}
	}

	return nil
}

func envBool(key string) (value, ok bool) {
	switch os.Getenv(key) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = d
	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) error {
	if v := os.Getenv("MSUM_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}

	for key, dst := range map[string]*time.Duration{
		"MSUM_TIMEOUT":        &cfg.Timeout,
		"MSUM_DELETE_TIMEOUT": &cfg.DeleteTimeout,
		"MSUM_REFRESH_DELAY":  &cfg.RefreshDelay,
	} {
		if err := envDuration(key, dst); err != nil {
			return err
		}
	}

	if v := os.Getenv("MSUM_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v, ok := envBool("MSUM_AUTO_SUBMIT"); ok {
		cfg.AutoSubmit = v
	}
	if v, ok := envBool("MSUM_DEBUG"); ok && v {
		cfg.Debug = true
	}
	if v, ok := envBool("MSUM_INSECURE"); ok && v {
		cfg.Insecure = true
	}
	if v, ok := envBool("MSUM_LOG_JSON"); ok {
		cfg.LogJSON = v
	}
	if v := os.Getenv("MSUM_METRICS_TEXTFILE"); v != "" {
		cfg.MetricsTextfile = v
	}

	if v := os.Getenv("MSUM_TLS_CA_CERT"); v != "" {
		cfg.TLS.CACert = v
	}
	if v := os.Getenv("MSUM_TLS_CLIENT_CERT"); v != "" {
		cfg.TLS.ClientCert = v
	}
	if v := os.Getenv("MSUM_TLS_CLIENT_KEY"); v != "" {
		cfg.TLS.ClientKey = v
	}
	if v := os.Getenv("MSUM_TLS_CERT_DIR"); v != "" {
		cfg.TLS.CertDir = v
	}
	if v, ok := envBool("MSUM_TLS_SKIP_VERIFY"); ok && v {
		cfg.TLS.SkipVerify = true
	}

	if err := loadCacheFromEnv(cfg); err != nil {
		return err
	}
	loadCommandLogFromEnv(cfg)
	return nil
}

func loadCacheFromEnv(cfg *CLIConfig) error {
	addr := os.Getenv("MSUM_REDIS_ADDR")
	if addr == "" {
		return nil
	}
	if cfg.Cache == nil {
		cfg.Cache = &CacheConfig{}
	}
	cfg.Cache.RedisAddr = addr
	if v := os.Getenv("MSUM_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("MSUM_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MSUM_REDIS_DB: %w", err)
		}
		cfg.Cache.DB = db
	}
	return envDuration("MSUM_CACHE_TTL", &cfg.Cache.TTL)
}

// loadCommandLogFromEnv overlays command log environment variables.
func loadCommandLogFromEnv(cfg *CLIConfig) {
	host := os.Getenv("MSUM_COMMAND_LOG_HOST")
	database := os.Getenv("MSUM_COMMAND_LOG_DATABASE")
	user := os.Getenv("MSUM_COMMAND_LOG_USER")

	if host == "" && database == "" && user == "" {
		return
	}

	if cfg.CommandLog == nil {
		cfg.CommandLog = &CommandLogConfig{}
	}
	if host != "" {
		cfg.CommandLog.Host = host
	}
	if database != "" {
		cfg.CommandLog.Database = database
	}
	if user != "" {
		cfg.CommandLog.User = user
	}
	if v := os.Getenv("MSUM_COMMAND_LOG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.CommandLog.Port = port
		}
	}
	if v := os.Getenv("MSUM_COMMAND_LOG_SSLMODE"); v != "" {
		cfg.CommandLog.SSLMode = v
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url is required")
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend_url: %q (must be an http or https URL)", c.BackendURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.DeleteTimeout <= 0 {
		return fmt.Errorf("delete_timeout must be positive")
	}

	if c.RefreshDelay < 0 {
		return fmt.Errorf("refresh_delay must not be negative")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// settable maps `msum config set` keys onto their setters.
var settable = map[string]func(c *CLIConfig, v string) error{
	"backend_url": func(c *CLIConfig, v string) error { c.BackendURL = v; return nil },
	"timeout":     func(c *CLIConfig, v string) error { return parseInto(&c.Timeout, v) },
	"delete_timeout": func(c *CLIConfig, v string) error {
		return parseInto(&c.DeleteTimeout, v)
	},
	"refresh_delay": func(c *CLIConfig, v string) error { return parseInto(&c.RefreshDelay, v) },
	"output_format": func(c *CLIConfig, v string) error {
		f := OutputFormat(v)
		if !f.IsValid() {
			return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", v)
		}
		c.OutputFormat = f
		return nil
	},
	"auto_submit":      func(c *CLIConfig, v string) error { return parseBool(&c.AutoSubmit, v) },
	"debug":            func(c *CLIConfig, v string) error { return parseBool(&c.Debug, v) },
	"insecure":         func(c *CLIConfig, v string) error { return parseBool(&c.Insecure, v) },
	"log_json":         func(c *CLIConfig, v string) error { return parseBool(&c.LogJSON, v) },
	"metrics_textfile": func(c *CLIConfig, v string) error { c.MetricsTextfile = v; return nil },
	"cache.redis_addr": func(c *CLIConfig, v string) error {
		c.ensureCache().RedisAddr = v
		return nil
	},
	"cache.ttl": func(c *CLIConfig, v string) error { return parseInto(&c.ensureCache().TTL, v) },
	"command_log.host": func(c *CLIConfig, v string) error {
		c.ensureCommandLog().Host = v
		return nil
	},
	"command_log.database": func(c *CLIConfig, v string) error {
		c.ensureCommandLog().Database = v
		return nil
	},
	"command_log.user": func(c *CLIConfig, v string) error {
		c.ensureCommandLog().User = v
		return nil
	},
}

// SettableKeys lists the keys accepted by Set, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a single key from its textual form and re-validates.
func (c *CLIConfig) Set(key, value string) error {
	set, ok := settable[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := set(c, value); err != nil {
		return err
	}
	return c.Validate()
}

func (c *CLIConfig) ensureCache() *CacheConfig {
	if c.Cache == nil {
		c.Cache = &CacheConfig{}
	}
	return c.Cache
}

func (c *CLIConfig) ensureCommandLog() *CommandLogConfig {
	if c.CommandLog == nil {
		c.CommandLog = &CommandLogConfig{}
	}
	return c.CommandLog
}

func parseInto(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", v, err)
	}
	*dst = d
	return nil
}

func parseBool(dst *bool, v string) error {
	switch v {
	case "true", "1":
		*dst = true
	case "false", "0":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q (must be true or false)", v)
	}
	return nil
}

// SaveConfig saves the configuration to the default config file.
func SaveConfig(cfg *CLIConfig) error {
	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}
	return SaveConfigTo(cfg, configPath)
}

// SaveConfigTo writes cfg as YAML to path, creating the directory if needed.
func SaveConfigTo(cfg *CLIConfig, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	autoSubmit := cfg.AutoSubmit
	fileCfg := configFile{
		BackendURL:      cfg.BackendURL,
		Timeout:         cfg.Timeout.String(),
		DeleteTimeout:   cfg.DeleteTimeout.String(),
		RefreshDelay:    cfg.RefreshDelay.String(),
		OutputFormat:    cfg.OutputFormat,
		AutoSubmit:      &autoSubmit,
		Debug:           cfg.Debug,
		Insecure:        cfg.Insecure,
		LogJSON:         cfg.LogJSON,
		MetricsTextfile: cfg.MetricsTextfile,
		TLS:             cfg.TLS,
		CommandLog:      cfg.CommandLog,
	}
	if cfg.Cache != nil {
		fileCfg.Cache = &cacheFile{
			RedisAddr: cfg.Cache.RedisAddr,
			Password:  cfg.Cache.Password,
			DB:        cfg.Cache.DB,
		}
		if cfg.Cache.TTL > 0 {
			fileCfg.Cache.TTL = cfg.Cache.TTL.String()
		}
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}
