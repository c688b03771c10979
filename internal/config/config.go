// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	App       AppConfig       `yaml:"app"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Trading   TradingConfig   `yaml:"trading"`
	Audit     AuditConfig     `yaml:"audit"`
	System    SystemConfig    `yaml:"system"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Exchange string `yaml:"exchange"` // binance or mock
}

// ExchangeConfig contains exchange connection settings
type ExchangeConfig struct {
	APIKey            Secret  `yaml:"api_key"`
	SecretKey         Secret  `yaml:"secret_key"`
	Testnet           bool    `yaml:"testnet"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// TradingConfig contains trading parameters
type TradingConfig struct {
	Symbol       string `yaml:"symbol"`
	MarginAsset  string `yaml:"margin_asset"`
	Leverage     int    `yaml:"leverage"`
	CancelOnExit bool   `yaml:"cancel_on_exit"`
}

// AuditConfig contains audit trail settings
type AuditConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel string `yaml:"log_level"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	MetricsPort   int  `yaml:"metrics_port"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Exchange == "" {
		c.App.Exchange = "binance"
	}
	if c.Trading.MarginAsset == "" {
		c.Trading.MarginAsset = "USDT"
	}
	if c.Exchange.RequestsPerSecond == 0 {
		c.Exchange.RequestsPerSecond = 5
	}
	if c.Exchange.Burst == 0 {
		c.Exchange.Burst = 10
	}
	if c.Audit.DatabasePath == "" {
		c.Audit.DatabasePath = "audit.db"
	}
	if c.System.LogLevel == "" {
		c.System.LogLevel = "INFO"
	}
	if c.Telemetry.MetricsPort == 0 {
		c.Telemetry.MetricsPort = 9090
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateAppConfig(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateExchangeConfig(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateTradingConfig(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateSystemConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}
	return nil
}

func (c *Config) validateAppConfig() error {
	validExchanges := []string{"binance", "mock"}
	if !contains(validExchanges, c.App.Exchange) {
		return ValidationError{
			Field:   "app.exchange",
			Value:   c.App.Exchange,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validExchanges, ", ")),
		}
	}
	return nil
}

func (c *Config) validateExchangeConfig() error {
	// the mock exchange needs no credentials
	if c.App.Exchange == "mock" {
		return nil
	}
	if c.Exchange.APIKey.Value() == "" {
		return ValidationError{
			Field:   "exchange.api_key",
			Message: "api key is required (set BINANCE_API_KEY)",
		}
	}
	if c.Exchange.SecretKey.Value() == "" {
		return ValidationError{
			Field:   "exchange.secret_key",
			Message: "secret key is required (set BINANCE_SECRET_KEY)",
		}
	}
	if c.Exchange.RequestsPerSecond < 0 {
		return ValidationError{
			Field:   "exchange.requests_per_second",
			Value:   c.Exchange.RequestsPerSecond,
			Message: "must not be negative",
		}
	}
	return nil
}

func (c *Config) validateTradingConfig() error {
	if c.Trading.Symbol == "" {
		return ValidationError{
			Field:   "trading.symbol",
			Message: "symbol is required",
		}
	}
	if c.Trading.Leverage < 0 || c.Trading.Leverage > 125 {
		return ValidationError{
			Field:   "trading.leverage",
			Value:   c.Trading.Leverage,
			Message: "must be between 0 (leave unchanged) and 125",
		}
	}
	return nil
}

func (c *Config) validateSystemConfig() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.System.LogLevel)) {
		return ValidationError{
			Field:   "system.log_level",
			Value:   c.System.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	return nil
}

// expandEnvVars substitutes ${VAR} and $VAR references with environment values
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
