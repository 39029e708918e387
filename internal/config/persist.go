package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// appName names the config directories and the environment prefix.
const appName = "gridadaptor"

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (GRIDADAPTOR_*, nested keys joined by '_')
// 3. User config file (~/.config/gridadaptor/config.yaml)
// 4. System config file (/etc/gridadaptor/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	// User config (highest priority)
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, appName))
	}

	// Home directory fallback
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, "."+appName))
	}

	// System-wide config (lower priority)
	viper.AddConfigPath("/etc/" + appName)

	// Current directory (for development)
	viper.AddConfigPath(".")

	// Environment variables; templates.submit is read from GRIDADAPTOR_TEMPLATES_SUBMIT
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read config file (non-fatal if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	utils.PrintDebug("Using config file %s", viper.ConfigFileUsed())

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("backend", "gridengine")
	viper.SetDefault("prefix", "")
	viper.SetDefault("fixture_dir", "")
	viper.SetDefault("location", "")
	viper.SetDefault("output", OutputText)
	viper.SetDefault("debug", false)
	viper.SetDefault("quiet", false)
}

// TemplateKey returns the viper key of a command template override.
func TemplateKey(name string) string {
	return "templates." + name
}

// KnownKeys lists the scalar keys accepted by "config set".
func KnownKeys() []string {
	keys := []string{"backend", "prefix", "fixture_dir", "location", "output", "debug", "quiet"}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key can be stored in the config file.
func IsKnownKey(key string) bool {
	if strings.HasPrefix(key, "templates.") {
		return len(key) > len("templates.")
	}
	for _, k := range KnownKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "."+appName, ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, appName, ConfigFilename+"."+ConfigType), nil
}

// SaveConfig saves current Viper config to user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadFromViper loads config from Viper into Global struct
func LoadFromViper() error {
	if backend := viper.GetString("backend"); backend != "" {
		Global.Backend = backend
	}
	Global.Prefix = viper.GetString("prefix")
	Global.FixtureDir = viper.GetString("fixture_dir")
	Global.Location = viper.GetString("location")

	output := strings.ToLower(viper.GetString("output"))
	if output == "" {
		output = OutputText
	}
	if !IsValidOutput(output) {
		return fmt.Errorf("invalid output format %q (valid: %s, %s, %s)", output, OutputText, OutputYAML, OutputJSON)
	}
	Global.Output = output

	Global.Debug = viper.GetBool("debug")
	Global.Quiet = viper.GetBool("quiet")

	Global.Templates = map[string]string{}
	for name, tmpl := range viper.GetStringMapString("templates") {
		Global.Templates[name] = tmpl
	}
	return nil
}
