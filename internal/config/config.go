package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.mssqlscript/mssqlscript.yaml"

	defaultConnectTimeout = 5
)

// Config is the top-level configuration.
type Config struct {
	Version int          `yaml:"version"`
	Source  SourceConfig `yaml:"source"`
	Script  ScriptConfig `yaml:"script,omitempty"`
	Logging LogConfig    `yaml:"logging,omitempty"`
}

// SourceConfig defines the SQL Server connection.
type SourceConfig struct {
	Server         string `yaml:"server"`
	Port           int    `yaml:"port,omitempty"`
	Instance       string `yaml:"instance,omitempty"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username,omitempty"`
	Password       string `yaml:"password,omitempty"`
	Encrypt        bool   `yaml:"encrypt,omitempty"`
	Trusted        bool   `yaml:"trusted_connection,omitempty"` // integrated authentication
	ConnectTimeout int    `yaml:"connect_timeout,omitempty"`    // seconds, default 5
}

// ScriptConfig holds defaults for the script command. Flags override it.
type ScriptConfig struct {
	DropCreate string   `yaml:"drop_create,omitempty"` // drop-and-create, drop-only, create-only
	SchemeData string   `yaml:"scheme_data,omitempty"` // schema-and-data, schema-only, data-only
	Include    []string `yaml:"include,omitempty"`
	Exclude    []string `yaml:"exclude,omitempty"`
	Output     string   `yaml:"output,omitempty"`
	Defaults   bool     `yaml:"defaults,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.mssqlscript/logs/
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadOrDefault loads path. When path is empty and the default config file
// does not exist, it returns a default configuration instead of an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == "" && errors.Is(err, fs.ErrNotExist) {
		cfg = &Config{Version: CurrentVersion}
		cfg.applyDefaults()
		return cfg, nil
	}
	return nil, err
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.Source.ConnectTimeout == 0 {
		c.Source.ConnectTimeout = defaultConnectTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.mssqlscript/logs/")
	}
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Source.Username, err = ResolveValue(c.Source.Username)
	if err != nil {
		return fmt.Errorf("source username: %w", err)
	}
	c.Source.Password, err = ResolveValue(c.Source.Password)
	if err != nil {
		return fmt.Errorf("source password: %w", err)
	}
	return nil
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ValidateAuth checks that either integrated authentication or both a user
// name and a password are configured.
func (s *SourceConfig) ValidateAuth() error {
	if s.Trusted {
		return nil
	}
	if s.Username == "" || s.Password == "" {
		return fmt.Errorf("user name and password are required unless a trusted connection is used")
	}
	return nil
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
