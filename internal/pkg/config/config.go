package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets YAML configs use Go duration strings ("60s", "1m30s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Leagues    LeaguesConfig    `yaml:"leagues"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Health     HealthConfig     `yaml:"health"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type UpstreamConfig struct {
	BaseURL      string   `yaml:"base_url"`
	LivePaths    []string `yaml:"live_paths"`
	ProxyPrefix  string   `yaml:"proxy_prefix"`
	EventURLBase string   `yaml:"event_url_base"`
	UserAgent    string   `yaml:"user_agent"`
	Timeout      Duration `yaml:"timeout"`
	ProxyTimeout Duration `yaml:"proxy_timeout"`
}

type ClassifierConfig struct {
	BreakMinute     int `yaml:"break_minute"`
	FirstHalfFrom   int `yaml:"first_half_from"`
	SecondHalfUntil int `yaml:"second_half_until"`
}

type MonitorConfig struct {
	Interval     Duration `yaml:"interval"`
	InitialDelay Duration `yaml:"initial_delay"`
}

type LeaguesConfig struct {
	// WatchAll disables league filtering entirely: every live match is
	// treated as watched.
	WatchAll bool   `yaml:"watch_all"`
	File     string `yaml:"file"`
}

type LedgerConfig struct {
	File string `yaml:"file"`
}

type HealthConfig struct {
	Port              int      `yaml:"port"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
}

// Load reads the YAML config, fills unset fields with defaults and applies
// environment overrides for secrets (TELEGRAM_TOKEN, CHAT_ID, PORT).
// A missing file is not an error: defaults plus environment are enough to run.
func Load(configPath string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://api.sofascore.com/api/v1"
	}
	if len(c.Upstream.LivePaths) == 0 {
		c.Upstream.LivePaths = []string{
			"/sport/football/events/live",
			"/events/live",
		}
	}
	if c.Upstream.EventURLBase == "" {
		c.Upstream.EventURLBase = "https://www.sofascore.com/event/"
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if c.Upstream.Timeout <= 0 {
		c.Upstream.Timeout = Duration(12 * time.Second)
	}
	if c.Upstream.ProxyTimeout <= 0 {
		c.Upstream.ProxyTimeout = Duration(18 * time.Second)
	}
	if c.Classifier.BreakMinute <= 0 {
		c.Classifier.BreakMinute = 45
	}
	if c.Classifier.FirstHalfFrom <= 0 {
		c.Classifier.FirstHalfFrom = 40
	}
	if c.Classifier.SecondHalfUntil <= 0 {
		c.Classifier.SecondHalfUntil = 50
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = Duration(60 * time.Second)
	}
	if c.Monitor.InitialDelay <= 0 {
		c.Monitor.InitialDelay = Duration(10 * time.Second)
	}
	if c.Leagues.File == "" {
		c.Leagues.File = "leagues.json"
	}
	if c.Ledger.File == "" {
		c.Ledger.File = "ledger.json"
	}
	if c.Health.Port <= 0 {
		c.Health.Port = 8080
	}
	if c.Health.ReadHeaderTimeout <= 0 {
		c.Health.ReadHeaderTimeout = Duration(5 * time.Second)
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Health.Port = port
		}
	}
	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
}
