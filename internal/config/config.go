package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/distrobmj-cmd/julianarbitraje/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Rate     RateConfig     `mapstructure:"rate"`
	Market   MarketConfig   `mapstructure:"market"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Server   ServerConfig   `mapstructure:"server"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// MonitorConfig governs the polling cycle.
type MonitorConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	CompareLogEvery int           `mapstructure:"compare_log_every"`
}

// RateConfig covers the reference-rate source chain.
type RateConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	BanrepURL       string        `mapstructure:"banrep_url"`
	FallbackURL     string        `mapstructure:"fallback_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	StaticDefault   float64       `mapstructure:"static_default"`
}

// MarketConfig captures Binance P2P connectivity.
type MarketConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Asset          string        `mapstructure:"asset"`
	Fiat           string        `mapstructure:"fiat"`
	TradeType      string        `mapstructure:"trade_type"`
	PayTypes       []string      `mapstructure:"pay_types"`
	Rows           int           `mapstructure:"rows"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertingConfig defines threshold and dedup behaviour.
type AlertingConfig struct {
	DiscountFraction  float64       `mapstructure:"discount_fraction"`
	MinImprovement    float64       `mapstructure:"min_improvement"`
	DigestInterval    time.Duration `mapstructure:"digest_interval"`
	DigestTopK        int           `mapstructure:"digest_top_k"`
	NearDistance      float64       `mapstructure:"near_distance"`
	RateChangeEnabled bool          `mapstructure:"rate_change_enabled"`
	RateChangeMinPct  float64       `mapstructure:"rate_change_min_pct"`
}

// TelegramConfig describes the single-recipient delivery channel.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollCommands   bool          `mapstructure:"poll_commands"`
}

// ServerConfig sets the liveness endpoint behaviour.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRMWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "trmwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("monitor.poll_interval", "60s")
	v.SetDefault("monitor.startup_delay", "0s")
	v.SetDefault("monitor.compare_log_every", 10)

	v.SetDefault("rate.refresh_interval", "1h")
	v.SetDefault("rate.banrep_url", "https://www.datos.gov.co/resource/32sa-8pi3.json")
	v.SetDefault("rate.fallback_url", "https://api.exchangerate-api.com/v4/latest/USD")
	v.SetDefault("rate.request_timeout", "15s")
	v.SetDefault("rate.static_default", 4050.0)

	v.SetDefault("market.base_url", "https://p2p.binance.com")
	v.SetDefault("market.asset", "USDT")
	v.SetDefault("market.fiat", "COP")
	v.SetDefault("market.trade_type", "BUY")
	v.SetDefault("market.pay_types", []string{"Bancolombia", "NequiPay", "DaviviendaPay"})
	v.SetDefault("market.rows", 10)
	v.SetDefault("market.request_timeout", "15s")
	v.SetDefault("market.user_agent", "trmwatcher/1.0")

	v.SetDefault("alerting.discount_fraction", 0.02)
	v.SetDefault("alerting.min_improvement", 15.0)
	v.SetDefault("alerting.digest_interval", "30m")
	v.SetDefault("alerting.digest_top_k", 5)
	v.SetDefault("alerting.near_distance", 20.0)
	v.SetDefault("alerting.rate_change_enabled", true)
	v.SetDefault("alerting.rate_change_min_pct", 0.0)

	v.SetDefault("telegram.enabled", true)
	// Empty defaults so environment-only deployments bind these keys.
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.request_timeout", "15s")
	v.SetDefault("telegram.poll_commands", true)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":5000")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be greater than zero")
	}
	if c.Rate.RefreshInterval <= 0 {
		return fmt.Errorf("rate.refresh_interval must be greater than zero")
	}
	if c.Rate.StaticDefault <= 0 {
		return fmt.Errorf("rate.static_default must be greater than zero")
	}
	if c.Alerting.DiscountFraction <= 0 || c.Alerting.DiscountFraction >= 1 {
		return fmt.Errorf("alerting.discount_fraction must be within (0, 1)")
	}
	if c.Alerting.MinImprovement < 0 {
		return fmt.Errorf("alerting.min_improvement cannot be negative")
	}
	if c.Alerting.DigestInterval <= 0 {
		return fmt.Errorf("alerting.digest_interval must be greater than zero")
	}
	if c.Alerting.DigestTopK <= 0 {
		return fmt.Errorf("alerting.digest_top_k must be greater than zero")
	}
	if tt := strings.ToUpper(c.Market.TradeType); tt != "BUY" && tt != "SELL" {
		return fmt.Errorf("market.trade_type must be BUY or SELL")
	}
	if c.Market.Rows <= 0 {
		return fmt.Errorf("market.rows must be greater than zero")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when the status server is enabled")
	}
	return nil
}
