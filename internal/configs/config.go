package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// UserConfig holds the user-level settings for sops-pilot.
type UserConfig struct {
	// SopsBinary is the name or path of the sops executable.
	SopsBinary string `toml:"sops_binary"`

	// WorkingSuffix is inserted before the extension of decrypted working
	// copies when the plaintext carries no sops_unencrypted_suffix directive.
	WorkingSuffix string `toml:"working_suffix"`

	// CleanupDebounceMs is the quiescence period after a focus change
	// before unrelated working copies are torn down.
	CleanupDebounceMs int `toml:"cleanup_debounce_ms"`

	// Editor overrides $VISUAL/$EDITOR for the edit command.
	Editor string `toml:"editor"`
}

// DefaultUserConfig returns the settings used when no config file exists.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		SopsBinary:        "sops",
		WorkingSuffix:     "_decrypted",
		CleanupDebounceMs: 2000,
	}
}

// CleanupDebounce returns the debounce window as a duration.
func (c *UserConfig) CleanupDebounce() time.Duration {
	return time.Duration(c.CleanupDebounceMs) * time.Millisecond
}

func userConfigPath() string {
	return filepath.Join(UserPilotSettings.UserConfigsPath, "config.toml")
}

// LoadUserConfig loads the user configuration, falling back to defaults
// when the config file does not exist. Unset fields take default values.
func LoadUserConfig() (*UserConfig, error) {
	config := DefaultUserConfig()

	configPath := userConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if config.SopsBinary == "" {
		config.SopsBinary = "sops"
	}
	if config.WorkingSuffix == "" {
		config.WorkingSuffix = "_decrypted"
	}
	if config.CleanupDebounceMs <= 0 {
		config.CleanupDebounceMs = 2000
	}

	return config, nil
}

// SaveUserConfig writes the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	if err := SaveTOML(userConfigPath(), config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}
	return nil
}
