package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// JELLYRENAME_PROVIDER_SONARR_API_KEY.
const EnvPrefix = "JELLYRENAME"

// ErrInvalidConfig is matched by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Naming      NamingConfig      `mapstructure:"naming" toml:"naming"`
	Run         RunConfig         `mapstructure:"run" toml:"run"`
	Provider    ProviderConfig    `mapstructure:"provider" toml:"provider"`
	History     HistoryConfig     `mapstructure:"history" toml:"history"`
	Watch       WatchConfig       `mapstructure:"watch" toml:"watch"`
	Logging     LoggingConfig     `mapstructure:"logging" toml:"logging"`
	Permissions PermissionsConfig `mapstructure:"permissions" toml:"permissions"`

	path string
}

// NamingConfig controls destination filenames.
type NamingConfig struct {
	Template              string   `mapstructure:"template" toml:"template"`
	TemplateWithoutSeason string   `mapstructure:"template_without_season" toml:"template_without_season"`
	WindowsSafe           bool     `mapstructure:"windows_safe" toml:"windows_safe"`
	ValidExtensions       []string `mapstructure:"valid_extensions" toml:"valid_extensions"`
}

// RunConfig holds the defaults for a rename run; flags override them.
type RunConfig struct {
	Mode                           string `mapstructure:"mode" toml:"mode"`
	SelectFirst                    bool   `mapstructure:"select_first" toml:"select_first"`
	Recursive                      bool   `mapstructure:"recursive" toml:"recursive"`
	DryRun                         bool   `mapstructure:"dry_run" toml:"dry_run"`
	FallbackRename                 bool   `mapstructure:"fallback_rename" toml:"fallback_rename"`
	MaxConsecutiveProviderFailures int    `mapstructure:"max_consecutive_provider_failures" toml:"max_consecutive_provider_failures"`
	Destination                    string `mapstructure:"destination" toml:"destination"`
}

type ProviderConfig struct {
	Name           string       `mapstructure:"name" toml:"name"`
	TimeoutSeconds int          `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
	RetryAttempts  uint         `mapstructure:"retry_attempts" toml:"retry_attempts"`
	RetryDelay     string       `mapstructure:"retry_delay" toml:"retry_delay"`
	TVMaze         TVMazeConfig `mapstructure:"tvmaze" toml:"tvmaze"`
	Sonarr         SonarrConfig `mapstructure:"sonarr" toml:"sonarr"`
}

type TVMazeConfig struct {
	URL string `mapstructure:"url" toml:"url"`
}

// SonarrConfig points at a Sonarr instance used as the metadata source.
// Get the API key from: Sonarr -> Settings -> General -> API Key
type SonarrConfig struct {
	URL    string `mapstructure:"url" toml:"url"`
	APIKey string `mapstructure:"api_key" toml:"api_key"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Path    string `mapstructure:"path" toml:"path"`
}

// WatchConfig configures `jellyrename watch`.
type WatchConfig struct {
	Paths        []string `mapstructure:"paths" toml:"paths"`
	SettleDelay  string   `mapstructure:"settle_delay" toml:"settle_delay"`
	ScanInterval string   `mapstructure:"scan_interval" toml:"scan_interval"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" toml:"level"`
	File       string `mapstructure:"file" toml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
}

type PermissionsConfig struct {
	// DirMode is an octal string (e.g. "0755" or "755") used when
	// --destination directories are created. Empty means 0755.
	DirMode string `mapstructure:"dir_mode" toml:"dir_mode"`
}

func (p *PermissionsConfig) ParseDirMode() (os.FileMode, error) {
	m := strings.TrimSpace(p.DirMode)
	if m == "" {
		return 0755, nil
	}
	if len(m) == 3 {
		m = "0" + m
	}
	v, err := strconv.ParseUint(m, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(v), nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Naming: NamingConfig{
			Template:              naming.DefaultTemplate,
			TemplateWithoutSeason: naming.DefaultTemplateWithoutSeason,
			WindowsSafe:           false,
			ValidExtensions:       []string{},
		},
		Run: RunConfig{
			Mode:                           decision.Interactive.String(),
			SelectFirst:                    false,
			Recursive:                      false,
			DryRun:                         false,
			FallbackRename:                 false,
			MaxConsecutiveProviderFailures: 0,
			Destination:                    "",
		},
		Provider: ProviderConfig{
			Name:           "tvmaze",
			TimeoutSeconds: 30,
			RetryAttempts:  3,
			RetryDelay:     "1s",
			TVMaze: TVMazeConfig{
				URL: "https://api.tvmaze.com",
			},
			Sonarr: SonarrConfig{
				URL:    "",
				APIKey: "",
			},
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "",
		},
		Watch: WatchConfig{
			Paths:        []string{},
			SettleDelay:  "10s",
			ScanInterval: "0s",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Load reads the config file at path (the default location when empty),
// then applies JELLYRENAME_* environment overrides. A .env file next to the
// config is loaded first without replacing variables already set. A missing
// config file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := paths.ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("unable to get config path: %w", err)
		}
		path = p
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("toml")

	// Seeding viper with every default key lets AutomaticEnv see them all.
	defaults, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("unable to encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("unable to load defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg.path = path

	return cfg, nil
}

func loadDotEnv(envPath string) error {
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("unable to read %s: %w", envPath, err)
	}
	return nil
}

// Path is the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration as TOML, to the loaded path or the default.
func (c *Config) Save() error {
	configFile := c.path
	if configFile == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		configFile = p
	}
	return c.SaveAs(configFile)
}

// SaveAs writes the configuration to configFile and remembers it as the path.
func (c *Config) SaveAs(configFile string) error {
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	content, err := c.ToTOML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, []byte(content), 0600); err != nil {
		return err
	}
	c.path = configFile
	return nil
}

func ConfigPath() (string, error) {
	return paths.ConfigPath()
}

func ConfigExists(path string) bool {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return false
		}
		path = p
	}
	_, err := os.Stat(path)
	return err == nil
}

const tomlHeader = `# jellyrename configuration
# Generated by: jellyrename config init
#
# Every key can be overridden with an environment variable named
# JELLYRENAME_<SECTION>_<KEY>, e.g. JELLYRENAME_PROVIDER_SONARR_API_KEY.
# Secrets may also live in a .env file next to this one.

`

func (c *Config) ToTOML() (string, error) {
	body, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("unable to encode config: %w", err)
	}
	return tomlHeader + string(body), nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Provider.Sonarr.APIKey != "" {
		cp.Provider.Sonarr.APIKey = "********"
	}
	return &cp
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error

	for _, tmpl := range []string{c.Naming.Template, c.Naming.TemplateWithoutSeason} {
		if tmpl == "" {
			continue
		}
		if err := naming.ValidateTemplate(tmpl); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Naming.TemplateWithoutSeason != "" && strings.Contains(c.Naming.TemplateWithoutSeason, "{season}") {
		errs = append(errs, errors.New("naming.template_without_season must not use {season}"))
	}

	if _, err := decision.ParseMode(c.Run.Mode); err != nil {
		errs = append(errs, fmt.Errorf("run.mode: %w", err))
	}
	if c.Run.MaxConsecutiveProviderFailures < 0 {
		errs = append(errs, errors.New("run.max_consecutive_provider_failures must be >= 0"))
	}

	switch strings.ToLower(c.Provider.Name) {
	case "tvmaze":
	case "sonarr":
		if c.Provider.Sonarr.URL == "" {
			errs = append(errs, errors.New("provider.sonarr.url is required when provider is sonarr"))
		}
		if c.Provider.Sonarr.APIKey == "" {
			errs = append(errs, errors.New("provider.sonarr.api_key is required when provider is sonarr"))
		}
	default:
		errs = append(errs, fmt.Errorf("provider.name %q is not one of tvmaze, sonarr", c.Provider.Name))
	}
	if c.Provider.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("provider.timeout_seconds must be >= 0"))
	}

	for key, value := range map[string]string{
		"provider.retry_delay": c.Provider.RetryDelay,
		"watch.settle_delay":   c.Watch.SettleDelay,
		"watch.scan_interval":  c.Watch.ScanInterval,
	} {
		if _, err := parseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if _, err := c.Permissions.ParseDirMode(); err != nil {
		errs = append(errs, fmt.Errorf("permissions.dir_mode: %w", err))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// NamingTemplate builds the renderer for destination names.
func (c *Config) NamingTemplate() naming.Template {
	return naming.Template{
		WithSeason:    c.Naming.Template,
		WithoutSeason: c.Naming.TemplateWithoutSeason,
		WindowsSafe:   c.Naming.WindowsSafe,
	}
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

func (c *Config) RetryDelay() time.Duration {
	d, _ := parseDuration(c.Provider.RetryDelay)
	return d
}

func (c *Config) SettleDelay() time.Duration {
	d, _ := parseDuration(c.Watch.SettleDelay)
	return d
}

func (c *Config) ScanInterval() time.Duration {
	d, _ := parseDuration(c.Watch.ScanInterval)
	return d
}

// LoggingConfig converts the section into the logger's own config.
func (c *Config) LoggerConfig(console bool) logging.Config {
	return logging.Config{
		Level:      c.Logging.Level,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		Console:    console,
	}
}

// HistoryPath resolves the journal location.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return paths.ExpandHome(c.History.Path)
	}
	return paths.HistoryPath()
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
