package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/helioscrm/dynlogic/internal/types"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8480)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.auth_disabled", false)
	v.SetDefault("metadata.file", "")
	v.SetDefault("logic.validation_policy", string(types.ValidationSkipHidden))

	// Bind environment variables with DL_ prefix
	v.SetEnvPrefix("DL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:             v.GetString("server.host"),
		Port:             v.GetInt("server.port"),
		RequestTimeout:   v.GetDuration("server.request_timeout"),
		MetadataFile:     v.GetString("metadata.file"),
		ValidationPolicy: types.ValidationPolicy(v.GetString("logic.validation_policy")),
		AuthDisabled:     v.GetBool("server.auth_disabled"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, timeout, and validation policy.
func validateConfig(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	switch cfg.ValidationPolicy {
	case types.ValidationSkipHidden, types.ValidationEnforceHidden:
	default:
		return fmt.Errorf("validation_policy must be %q or %q, got %q",
			types.ValidationSkipHidden, types.ValidationEnforceHidden, cfg.ValidationPolicy)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.IsSet("hmac_secret") || v.IsSet("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use DL_HMAC_SECRET environment variable)")
	}
	return nil
}
