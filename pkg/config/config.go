package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variable.
type Config struct {
	// SMS Provider
	ProviderHost string `mapstructure:"SMS_PROVIDER_HOST"`
	SiteCode     string `mapstructure:"SMS_SITE_CODE"`
	Namespace    string `mapstructure:"SMS_NAMESPACE"` // overrides SMS_SITE_CODE

	// WinRM
	WinRMPort           int    `mapstructure:"WINRM_PORT"`
	WinRMHTTPS          bool   `mapstructure:"WINRM_HTTPS"`
	WinRMInsecure       bool   `mapstructure:"WINRM_INSECURE"`
	WinRMUser           string `mapstructure:"WINRM_USER"`
	WinRMPassword       string `mapstructure:"WINRM_PASSWORD"`
	WinRMDomain         string `mapstructure:"WINRM_DOMAIN"`
	WinRMTimeoutSeconds int    `mapstructure:"WINRM_TIMEOUT_SECONDS"`

	// Security/Encryption: when set, WINRM_PASSWORD holds a gocrypt AES ciphertext
	SecretKey string `mapstructure:"SECRET_KEY"`

	// Journal (optional postgres DSN)
	JournalDSN string `mapstructure:"JOURNAL_DSN"`

	// Logging
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Set Defaults
	v.SetDefault("SMS_PROVIDER_HOST", "")
	v.SetDefault("SMS_SITE_CODE", "")
	v.SetDefault("SMS_NAMESPACE", "")
	v.SetDefault("WINRM_PORT", 5985)
	v.SetDefault("WINRM_HTTPS", false)
	v.SetDefault("WINRM_INSECURE", true)
	v.SetDefault("WINRM_USER", "")
	v.SetDefault("WINRM_PASSWORD", "")
	v.SetDefault("WINRM_DOMAIN", "")
	v.SetDefault("WINRM_TIMEOUT_SECONDS", 60)
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("JOURNAL_DSN", "")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")

	// 2. Read app.yaml if exists
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 3. Read .env if exists (overriding app.yaml)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("Ignoring unreadable .env", "component", "Config", "error", err)
		}
	}

	// 4. Allow Viper to read Environment Variables (highest priority)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ProviderNamespace returns the SMS provider namespace of the configured site.
func (c *Config) ProviderNamespace() (string, error) {
	if c.Namespace != "" {
		return c.Namespace, nil
	}
	if c.SiteCode == "" {
		return "", fmt.Errorf("either SMS_NAMESPACE or SMS_SITE_CODE must be set")
	}
	return `root\sms\site_` + strings.ToUpper(c.SiteCode), nil
}

// WinRMTimeout returns the WinRM operation timeout.
func (c *Config) WinRMTimeout() time.Duration {
	return time.Duration(c.WinRMTimeoutSeconds) * time.Second
}
