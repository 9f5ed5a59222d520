// Package config loads the blueprint CLI configuration from
// blueprint.yml, environment variables, and flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the blueprint configuration.
type Config struct {
	// EnvironmentURL is the Dataverse environment, e.g.
	// https://org.crm.dynamics.com.
	EnvironmentURL string `mapstructure:"environment_url"`
	// AccessToken is a pre-acquired bearer token. TokenFile is read
	// instead when set.
	AccessToken string `mapstructure:"access_token"`
	TokenFile   string `mapstructure:"token_file"`

	// Solutions lists unique names of the solutions to document.
	Solutions []string `mapstructure:"solutions"`

	OutputDir string `mapstructure:"output_dir"`

	// SnapshotPath enables the SQLite snapshot store; combined with
	// Offline, queries replay from the snapshot with no network.
	SnapshotPath string `mapstructure:"snapshot_path"`
	Offline      bool   `mapstructure:"offline"`

	Verbose bool `mapstructure:"verbose"`
}

// Load loads the configuration from blueprint.yml or blueprint.yaml.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("output_dir", "docs")

	v.SetConfigName("blueprint")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BLUEPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// Token returns the access token, preferring the token file when set.
func (c *Config) Token() (string, error) {
	if c.TokenFile != "" {
		data, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return c.AccessToken, nil
}

// Validate checks that a usable configuration was assembled. Offline
// runs only need a snapshot; online runs need a reachable environment.
func (c *Config) Validate() error {
	if c.Offline {
		if c.SnapshotPath == "" {
			return fmt.Errorf("offline mode requires snapshot_path")
		}
		return nil
	}
	if c.EnvironmentURL == "" {
		return fmt.Errorf("environment_url is required")
	}
	if !strings.HasPrefix(c.EnvironmentURL, "https://") {
		return fmt.Errorf("environment_url must be an https URL")
	}
	return nil
}
