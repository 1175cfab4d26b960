package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultServerURL = "http://localhost:3002"
	defaultAuthPath  = "/api/auth"
	defaultScope     = "openid profile email"
	defaultLogLevel  = "warn"
	tokenFileName    = "token.json"
	configFileName   = "config.toml"
)

// Browser policies for opening the verification URL.
const (
	BrowserAsk    = "ask"
	BrowserAlways = "always"
	BrowserNever  = "never"
)

// Config holds all logicsh configuration.
type Config struct {
	ServerURL     string `toml:"server_url"`
	AuthPath      string `toml:"auth_path"`
	ClientID      string `toml:"client_id"`
	Scope         string `toml:"scope"`
	OpenBrowser   string `toml:"open_browser"`
	EnforceExpiry bool   `toml:"enforce_expiry"`
	LogLevel      string `toml:"log_level"`
	TokenFile     string `toml:"token_file"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	return Config{
		ServerURL:   defaultServerURL,
		AuthPath:    defaultAuthPath,
		Scope:       defaultScope,
		OpenBrowser: BrowserAsk,
		LogLevel:    defaultLogLevel,
	}
}

// LoadFrom reads configuration from the given TOML file path on top of Default.
// If the file does not exist, defaults are used without error.
// Environment variables always take precedence over file values:
//   - LOGICSH_SERVER_URL overrides server_url
//   - LOGICSH_CLIENT_ID overrides client_id (GITHUB_CLIENT_ID is used when neither is set)
//   - LOGICSH_LOG_LEVEL overrides log_level
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOGICSH_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("LOGICSH_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	} else if v := os.Getenv("GITHUB_CLIENT_ID"); v != "" && cfg.ClientID == "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("LOGICSH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url %q is not an absolute URL", c.ServerURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url %q must use http or https", c.ServerURL)
	}
	switch c.OpenBrowser {
	case BrowserAsk, BrowserAlways, BrowserNever:
	default:
		return fmt.Errorf("open_browser must be one of %s, %s, %s (got %q)", BrowserAsk, BrowserAlways, BrowserNever, c.OpenBrowser)
	}
	return nil
}

// AuthBaseURL returns the URL the better-auth handler is mounted on.
func (c Config) AuthBaseURL() (string, error) {
	return url.JoinPath(c.ServerURL, c.AuthPath)
}

// TokenPath returns where the token is stored. Unless token_file is set, the token
// lives next to the config file.
func (c Config) TokenPath(configPath string) string {
	if c.TokenFile != "" {
		return ExpandHome(c.TokenFile)
	}
	return filepath.Join(filepath.Dir(configPath), tokenFileName)
}

// DefaultDir returns the directory holding the config and token files.
// LOGICSH_CONFIG_DIR overrides the default of ~/.config/logicsh.
func DefaultDir() string {
	if dir := strings.TrimSpace(os.Getenv("LOGICSH_CONFIG_DIR")); dir != "" {
		return filepath.Clean(ExpandHome(dir))
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "logicsh")
}

// DefaultConfigPath returns the default path for the logicsh config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), configFileName)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
