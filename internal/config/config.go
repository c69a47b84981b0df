package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Store    StoreConfig    `yaml:"store"`
	Whois    WhoisConfig    `yaml:"whois"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Notify   NotifyConfig   `yaml:"notify"`
	Commands CommandsConfig `yaml:"commands"`
}

// ServerConfig represents the HTTP gateway configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug/release
}

// AuthConfig represents gateway authentication configuration
type AuthConfig struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	JWTSecret string `yaml:"jwt_secret"`
}

// StoreConfig represents watchlist persistence configuration
type StoreConfig struct {
	Path string `yaml:"path"`
}

// WhoisConfig represents WHOIS provider configuration. When APIURL is
// empty the port-43 fallback backend is used instead.
type WhoisConfig struct {
	APIURL        string `yaml:"api_url"`
	APIToken      string `yaml:"api_token"`
	Timeout       string `yaml:"timeout"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

// MonitorConfig represents sweep configuration. The sweep interval and
// refresh staleness are operational defaults, kept configurable.
type MonitorConfig struct {
	SweepSpec       string `yaml:"sweep_spec"`        // cron spec, e.g. "@every 12h"
	AlertWindowDays int    `yaml:"alert_window_days"` // notify within [0, N] days
	StaleAfter      string `yaml:"stale_after"`       // re-check cadence
	Concurrency     int    `yaml:"concurrency"`       // parallel per-user sends
}

// NotifyConfig represents outbound delivery configuration
type NotifyConfig struct {
	APIBase   string `yaml:"api_base"`
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"` // shared fallback channel
	Proxy     string `yaml:"proxy"`      // optional SOCKS5 host:port
	Timeout   string `yaml:"timeout"`
}

// CommandsConfig represents third-party APIs behind the proxy commands
type CommandsConfig struct {
	PricingAPIURL   string `yaml:"pricing_api_url"`
	IPDetailAPIURL  string `yaml:"ip_detail_api_url"`
	IPLocateAPIURL  string `yaml:"ip_locate_api_url"`
	ZipcodeAPIURL   string `yaml:"zipcode_api_url"`
	MinecraftAPIURL string `yaml:"minecraft_api_url"`
	BinCheckAPIURL  string `yaml:"bincheck_api_url"`
	BinCheckAPIKey  string `yaml:"bincheck_api_key"`
	Timeout         string `yaml:"timeout"`
}

// LoadConfig loads configuration from a YAML file and applies defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/domain_monitors.json"
	}
	if c.Monitor.SweepSpec == "" {
		c.Monitor.SweepSpec = "@every 12h"
	}
	if c.Monitor.AlertWindowDays == 0 {
		c.Monitor.AlertWindowDays = 7
	}
	if c.Monitor.StaleAfter == "" {
		c.Monitor.StaleAfter = "24h"
	}
	if c.Monitor.Concurrency == 0 {
		c.Monitor.Concurrency = 5
	}
	if c.Whois.RatePerMinute == 0 {
		c.Whois.RatePerMinute = 30
	}
	if c.Commands.PricingAPIURL == "" {
		c.Commands.PricingAPIURL = "https://www.nazhumi.com/api/v1"
	}
	if c.Commands.IPDetailAPIURL == "" {
		c.Commands.IPDetailAPIURL = "https://api.iplocation.net/"
	}
	if c.Commands.IPLocateAPIURL == "" {
		c.Commands.IPLocateAPIURL = "http://ip-api.com/json"
	}
	if c.Commands.ZipcodeAPIURL == "" {
		c.Commands.ZipcodeAPIURL = "https://zipcloud.ibsnet.co.jp/api/search"
	}
	if c.Commands.MinecraftAPIURL == "" {
		c.Commands.MinecraftAPIURL = "https://api.mcsrvstat.us"
	}
	if c.Commands.BinCheckAPIURL == "" {
		c.Commands.BinCheckAPIURL = "https://bin-ip-checker.p.rapidapi.com/"
	}
}

// Duration parses s, falling back to def when s is empty or malformed
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
