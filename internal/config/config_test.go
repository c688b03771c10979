package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{
			name:  "expand single env var",
			input: "api_key: ${TEST_API_KEY}",
			envVars: map[string]string{
				"TEST_API_KEY": "test_key_123",
			},
			expected: "api_key: test_key_123",
		},
		{
			name:  "expand multiple env vars",
			input: "api_key: ${API_KEY}\nsecret: ${SECRET_KEY}",
			envVars: map[string]string{
				"API_KEY":    "key_value",
				"SECRET_KEY": "secret_value",
			},
			expected: "api_key: key_value\nsecret: secret_value",
		},
		{
			name:     "missing env var returns empty string",
			input:    "api_key: ${MISSING_VAR}",
			envVars:  map[string]string{},
			expected: "api_key: ",
		},
		{
			name:  "mixed static and env vars",
			input: "static_value: 123\napi_key: ${TEST_KEY}",
			envVars: map[string]string{
				"TEST_KEY": "dynamic_key",
			},
			expected: "static_value: 123\napi_key: dynamic_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			result := expandEnvVars(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigWithEnvVars(t *testing.T) {
	t.Setenv("TEST_BINANCE_API_KEY", "expanded_api_key")
	t.Setenv("TEST_BINANCE_SECRET_KEY", "expanded_secret_key")

	path := writeConfig(t, `app:
  exchange: "binance"

exchange:
  api_key: "${TEST_BINANCE_API_KEY}"
  secret_key: "${TEST_BINANCE_SECRET_KEY}"
  testnet: true

trading:
  symbol: "BTCUSDT"
  leverage: 20

system:
  log_level: "INFO"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "expanded_api_key", cfg.Exchange.APIKey.Value())
	assert.Equal(t, "expanded_secret_key", cfg.Exchange.SecretKey.Value())
	assert.True(t, cfg.Exchange.Testnet)
	assert.Equal(t, "BTCUSDT", cfg.Trading.Symbol)
	assert.Equal(t, 20, cfg.Trading.Leverage)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `app:
  exchange: "mock"

trading:
  symbol: "BTCUSDT"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "USDT", cfg.Trading.MarginAsset)
	assert.Equal(t, float64(5), cfg.Exchange.RequestsPerSecond)
	assert.Equal(t, 10, cfg.Exchange.Burst)
	assert.Equal(t, "audit.db", cfg.Audit.DatabasePath)
	assert.Equal(t, "INFO", cfg.System.LogLevel)
	assert.Equal(t, 9090, cfg.Telemetry.MetricsPort)
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "unknown exchange",
			content: `app:
  exchange: "kraken"
trading:
  symbol: "BTCUSDT"
`,
			wantMsg: "app.exchange",
		},
		{
			name: "missing symbol",
			content: `app:
  exchange: "mock"
`,
			wantMsg: "trading.symbol",
		},
		{
			name: "missing credentials for binance",
			content: `app:
  exchange: "binance"
trading:
  symbol: "BTCUSDT"
`,
			wantMsg: "exchange.api_key",
		},
		{
			name: "leverage out of range",
			content: `app:
  exchange: "mock"
trading:
  symbol: "BTCUSDT"
  leverage: 300
`,
			wantMsg: "trading.leverage",
		},
		{
			name: "bad log level",
			content: `app:
  exchange: "mock"
trading:
  symbol: "BTCUSDT"
system:
  log_level: "LOUD"
`,
			wantMsg: "system.log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadConfig_MockNeedsNoCredentials(t *testing.T) {
	path := writeConfig(t, `app:
  exchange: "mock"
trading:
  symbol: "BTCUSDT"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.App.Exchange)
}
