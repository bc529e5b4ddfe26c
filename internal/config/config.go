package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides (REPLY_DRAFTER_WEBHOOK_URL, ...)
const EnvPrefix = "REPLY_DRAFTER"

// Config holds application configuration
type Config struct {
	// Server settings
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`

	// Automation endpoint settings
	WebhookURL     string        `mapstructure:"webhook_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 0 means no timeout

	// Mailbox identity used when an item carries no sender
	UserAddress string `mapstructure:"user_address"`

	// Reply formatting
	FontSize      string `mapstructure:"font_size"`
	MaxReplyChars int    `mapstructure:"max_reply_chars"`

	// Delivery settings
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	OutputDir   string        `mapstructure:"output_dir"`
	Workers     int           `mapstructure:"workers"`
}

// Default returns default configuration
func Default() *Config {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Use ~/.reply-drafter for generated messages
	dataDir := filepath.Join(homeDir, ".reply-drafter")

	return &Config{
		Host:          "localhost",
		Port:          "8080",
		WebhookURL:    "http://localhost:5678/webhook/reply-draft",
		FontSize:      "13pt",
		MaxReplyChars: 200000,
		SettleDelay:   300 * time.Millisecond,
		OutputDir:     filepath.Join(dataDir, "drafts"),
		Workers:       4,
	}
}

// Load reads configuration from an optional YAML file and REPLY_DRAFTER_* environment
// variables on top of Default. An empty path yields defaults plus env; a named file
// that cannot be read is an error.
func Load(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv picks it up during Unmarshal.
	v.SetDefault("host", def.Host)
	v.SetDefault("port", def.Port)
	v.SetDefault("webhook_url", def.WebhookURL)
	v.SetDefault("request_timeout", def.RequestTimeout)
	v.SetDefault("user_address", def.UserAddress)
	v.SetDefault("font_size", def.FontSize)
	v.SetDefault("max_reply_chars", def.MaxReplyChars)
	v.SetDefault("settle_delay", def.SettleDelay)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("workers", def.Workers)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that would make every submission fail
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return errors.New("webhook_url must be set")
	}
	if c.MaxReplyChars < 1 {
		return fmt.Errorf("max_reply_chars must be positive, got %d", c.MaxReplyChars)
	}
	if c.FontSize == "" {
		return errors.New("font_size must be set")
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}
