package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultServerAddress     = ":3001"
	DefaultUploadDir         = "uploads"
	DefaultPublicDir         = "public"
	DefaultProvider          = "openai"
	DefaultLogLevel          = "info"
	DefaultTranscribeTimeout = 5 * time.Minute
	DefaultSweepInterval     = 10 * time.Minute
	DefaultOrphanTTL         = time.Hour
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Provider    string                    `json:"provider"`
	Providers   map[string]ProviderConfig `json:"providers"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	UploadDir     string `json:"upload_dir"`
	PublicDir     string `json:"public_dir"`
	LogLevel      string `json:"log_level"`
	// Timeouts and intervals are whole seconds. An unset transcribe_timeout
	// uses the default; 0 leaves the remote call unbounded and turns the
	// orphan sweeper off, since no age then proves a file is abandoned.
	TranscribeTimeout *int `json:"transcribe_timeout"`
	SweepInterval     int  `json:"sweep_interval"`
	OrphanTTL         int  `json:"orphan_ttl"`
}

// Loader builds a Config from an optional JSON file plus environment overrides.
// Tests can override Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load reads configuration from the provided path (defaults to config.json when
// present) and applies environment overrides.
func Load(path string) (*Config, error) {
	return Loader{}.Load(path)
}

func (l Loader) Load(path string) (*Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	cfg := &Config{}
	explicit := path != ""
	if path == "" {
		path = "config.json"
	}
	if err := readFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	overrideString(l.Lookup, "AUDIORELAY_ADDR", &cfg.BasicConfig.ServerAddress)
	overrideString(l.Lookup, "AUDIORELAY_UPLOAD_DIR", &cfg.BasicConfig.UploadDir)
	overrideString(l.Lookup, "AUDIORELAY_PUBLIC_DIR", &cfg.BasicConfig.PublicDir)
	overrideString(l.Lookup, "AUDIORELAY_LOG_LEVEL", &cfg.BasicConfig.LogLevel)
	overrideString(l.Lookup, "AUDIORELAY_PROVIDER", &cfg.Provider)
	if err := overrideSeconds(l.Lookup, "AUDIORELAY_TRANSCRIBE_TIMEOUT", &cfg.BasicConfig.TranscribeTimeout); err != nil {
		return nil, err
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	overrideKey(l.Lookup, cfg.Providers, "openai", "OPENAI_KEY", "OPENAI_API_KEY")
	overrideKey(l.Lookup, cfg.Providers, "gemini", "GEMINI_API_KEY", "GOOGLE_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate applies defaults and rejects out-of-range values.
func (c *Config) Validate() error {
	b := &c.BasicConfig
	if b.ServerAddress == "" {
		b.ServerAddress = DefaultServerAddress
	}
	if b.UploadDir == "" {
		b.UploadDir = DefaultUploadDir
	}
	if b.PublicDir == "" {
		b.PublicDir = DefaultPublicDir
	}
	if b.LogLevel == "" {
		b.LogLevel = DefaultLogLevel
	}
	if b.TranscribeTimeout != nil && *b.TranscribeTimeout < 0 {
		return fmt.Errorf("config: transcribe_timeout must be >= 0, got %d", *b.TranscribeTimeout)
	}
	if b.SweepInterval < 0 || b.OrphanTTL < 0 {
		return fmt.Errorf("config: sweep_interval and orphan_ttl must be >= 0")
	}
	// A file younger than the longest request may still be in use.
	if timeout := b.TranscribeTimeoutDuration(); timeout > 0 && b.OrphanTTLDuration() <= timeout {
		return fmt.Errorf("config: orphan_ttl (%v) must exceed transcribe_timeout (%v)", b.OrphanTTLDuration(), timeout)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	switch c.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("config: unsupported provider %q", c.Provider)
	}
	return nil
}

// ActiveProvider returns the settings for the selected transcription backend.
func (c *Config) ActiveProvider() ProviderConfig {
	return c.Providers[c.Provider]
}

// TranscribeTimeoutDuration returns the remote call budget; zero means unbounded.
func (b BasicConfig) TranscribeTimeoutDuration() time.Duration {
	if b.TranscribeTimeout == nil {
		return DefaultTranscribeTimeout
	}
	return time.Duration(*b.TranscribeTimeout) * time.Second
}

// SweeperEnabled reports whether orphaned uploads can be aged out safely.
func (b BasicConfig) SweeperEnabled() bool {
	return b.TranscribeTimeoutDuration() > 0
}

// SweepIntervalDuration returns zero when the sweeper is disabled.
func (b BasicConfig) SweepIntervalDuration() time.Duration {
	if !b.SweeperEnabled() {
		return 0
	}
	if b.SweepInterval <= 0 {
		return DefaultSweepInterval
	}
	return time.Duration(b.SweepInterval) * time.Second
}

func (b BasicConfig) OrphanTTLDuration() time.Duration {
	if b.OrphanTTL <= 0 {
		return DefaultOrphanTTL
	}
	return time.Duration(b.OrphanTTL) * time.Second
}

func readFile(path string, cfg *Config) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	if cfg.BasicConfig.UploadDir != "" && !filepath.IsAbs(cfg.BasicConfig.UploadDir) {
		cfg.BasicConfig.UploadDir = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.UploadDir)
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

// overrideSeconds accepts a Go duration ("90s", "5m", "0") that is a whole
// number of seconds. Fractions are rejected rather than truncated.
func overrideSeconds(lookup func(string) (string, bool), key string, target **int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	if d%time.Second != 0 {
		return fmt.Errorf("config: %s must be a whole number of seconds, got %v", key, d)
	}
	seconds := int(d / time.Second)
	*target = &seconds
	return nil
}

// overrideKey fills the provider API key from the first non-empty env variable.
// A key already present in the config file wins.
func overrideKey(lookup func(string) (string, bool), providers map[string]ProviderConfig, name string, keys ...string) {
	p := providers[name]
	if p.APIKey != "" {
		return
	}
	for _, key := range keys {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			p.APIKey = strings.TrimSpace(value)
			break
		}
	}
	providers[name] = p
}
