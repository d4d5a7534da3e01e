package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/errors"
)

const (
	// CurrentVersion is the schema version written by WriteYAML.
	CurrentVersion = 1

	appDirName      = "tanach"
	projectFileYAML = ".tanach.yaml"
	projectFileYML  = ".tanach.yml"
)

// Config represents the complete tanach configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Corpus    CorpusConfig    `yaml:"corpus" json:"corpus"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Navigator NavigatorConfig `yaml:"navigator" json:"navigator"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// CorpusConfig locates the verse store and tunes how it is read.
type CorpusConfig struct {
	// Path is the SQLite corpus file. A leading ~ expands to the home directory.
	Path string `yaml:"path" json:"path"`

	// CacheChapters sizes the read-through chapter LRU. Zero disables it.
	CacheChapters int `yaml:"cache_chapters" json:"cache_chapters"`

	// LoadWorkers bounds parallel book fetches per search.
	LoadWorkers int `yaml:"load_workers" json:"load_workers"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultScope  string `yaml:"default_scope" json:"default_scope"`
	WholeWord     bool   `yaml:"whole_word" json:"whole_word"`
	MaxResults    int    `yaml:"max_results" json:"max_results"`
	MaxSkipValues int    `yaml:"max_skip_values" json:"max_skip_values"`
}

// NavigatorConfig bounds letter-window requests.
type NavigatorConfig struct {
	DefaultWindow int `yaml:"default_window" json:"default_window"`
	MaxWindow     int `yaml:"max_window" json:"max_window"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport   string `yaml:"transport" json:"transport"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Corpus: CorpusConfig{
			Path:          defaultCorpusPath(),
			CacheChapters: corpus.DefaultCacheChapters,
			LoadWorkers:   min(runtime.NumCPU(), 4),
		},
		Search: SearchConfig{
			DefaultScope:  string(corpus.ScopeTanakh),
			MaxSkipValues: 5000,
		},
		Navigator: NavigatorConfig{
			DefaultWindow: 300,
			MaxWindow:     10000,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

func defaultCorpusPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tanach", "corpus.db")
	}
	return filepath.Join(home, ".tanach", "corpus.db")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/tanach/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/tanach/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", appDirName, "config.yaml")
	}
	return filepath.Join(home, ".config", appDirName, "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user configuration file over the defaults.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load resolves configuration for dir in order of increasing precedence:
//  1. Defaults
//  2. User config ($XDG_CONFIG_HOME/tanach/config.yaml)
//  3. Project config (.tanach.yaml or .tanach.yml in dir)
//  4. Environment variables (TANACH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	cfg.Corpus.Path = ExpandHome(cfg.Corpus.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none.
// .tanach.yaml wins over .tanach.yml.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{projectFileYAML, projectFileYML} {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

func (c *Config) loadFromDir(dir string) error {
	if dir == "" {
		return nil
	}
	if path := ProjectConfigPath(dir); path != "" {
		return c.loadYAML(path)
	}
	return nil
}

// loadYAML decodes path on top of c. Keys absent from the file keep their
// current values, so whole_word: false in a project file can still override
// a user-level true.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return errors.New(errors.ErrCodeConfigPermission, "cannot read config file", err).
				WithDetail("path", path)
		}
		return errors.ConfigError("cannot read config file", err).WithDetail("path", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.ConfigError("cannot parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax, or regenerate with: tanach config init --force")
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("TANACH_CORPUS_PATH"); v != "" {
		c.Corpus.Path = v
	}
	if v := os.Getenv("TANACH_DEFAULT_SCOPE"); v != "" {
		c.Search.DefaultScope = v
	}
	if v := os.Getenv("TANACH_MAX_RESULTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.ConfigError("TANACH_MAX_RESULTS must be an integer", err).
				WithDetail("value", v)
		}
		c.Search.MaxResults = n
	}
	if v := os.Getenv("TANACH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("TANACH_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	return nil
}

// Validate returns a config error describing the first invalid field.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.ConfigError(fmt.Sprintf(format, args...), nil)
	}

	if c.Corpus.Path == "" {
		return invalid("corpus.path must not be empty")
	}
	if c.Corpus.CacheChapters < 0 {
		return invalid("corpus.cache_chapters must be non-negative, got %d", c.Corpus.CacheChapters)
	}
	if c.Corpus.LoadWorkers < 1 {
		return invalid("corpus.load_workers must be at least 1, got %d", c.Corpus.LoadWorkers)
	}

	if _, err := corpus.ParseScope(c.Search.DefaultScope); err != nil {
		return invalid("search.default_scope must be one of %s, got %q", scopeNames(), c.Search.DefaultScope)
	}
	if c.Search.MaxResults < 0 {
		return invalid("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Search.MaxSkipValues < 1 {
		return invalid("search.max_skip_values must be at least 1, got %d", c.Search.MaxSkipValues)
	}

	if c.Navigator.MaxWindow < 1 {
		return invalid("navigator.max_window must be at least 1, got %d", c.Navigator.MaxWindow)
	}
	if c.Navigator.DefaultWindow < 1 || c.Navigator.DefaultWindow > c.Navigator.MaxWindow {
		return invalid("navigator.default_window must be between 1 and %d, got %d",
			c.Navigator.MaxWindow, c.Navigator.DefaultWindow)
	}

	if strings.ToLower(c.Server.Transport) != "stdio" {
		return invalid("server.transport must be 'stdio', got %s", c.Server.Transport)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return invalid("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

func scopeNames() string {
	names := make([]string, len(corpus.Scopes))
	for i, s := range corpus.Scopes {
		names[i] = string(s)
	}
	return strings.Join(names, ", ") + " or parasha:<name>"
}

// DefaultScope returns the configured default scope. Validate guarantees it parses.
func (c *Config) DefaultScope() corpus.Scope {
	s, err := corpus.ParseScope(c.Search.DefaultScope)
	if err != nil {
		return corpus.ScopeTanakh
	}
	return s
}

// WriteYAML writes the configuration to path, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// MergeNewDefaults fills fields that older config files lack.
// Returns the names of the fields it filled.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Version == 0 {
		c.Version = CurrentVersion
		added = append(added, "version")
	}
	if c.Corpus.LoadWorkers == 0 {
		c.Corpus.LoadWorkers = defaults.Corpus.LoadWorkers
		added = append(added, "corpus.load_workers")
	}
	if c.Search.MaxSkipValues == 0 {
		c.Search.MaxSkipValues = defaults.Search.MaxSkipValues
		added = append(added, "search.max_skip_values")
	}
	if c.Navigator.DefaultWindow == 0 {
		c.Navigator.DefaultWindow = defaults.Navigator.DefaultWindow
		added = append(added, "navigator.default_window")
	}
	if c.Navigator.MaxWindow == 0 {
		c.Navigator.MaxWindow = defaults.Navigator.MaxWindow
		added = append(added, "navigator.max_window")
	}
	// cache_chapters: 0 means disabled, so it is never migrated.

	return added
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
