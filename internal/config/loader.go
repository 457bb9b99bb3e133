package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"migrationmcp/pkg/logging"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/migrationmcp"
	projectConfigDir = ".migrationmcp"
	configFileName   = "config.yaml"
)

// LoadConfig layers the defaults, the user file, the project file, the
// explicit file (when path is not empty) and environment overrides, then
// validates the result.
func LoadConfig(path string) (Config, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine user config path: %v", err)
	} else if err := mergeFileIfExists(&config, userConfigPath); err != nil {
		return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
	} else if err := mergeFileIfExists(&config, projectConfigPath); err != nil {
		return Config{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	if path != "" {
		if err := mergeFile(&config, path); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
	}

	if err := applyEnv(&config, newEnv()); err != nil {
		return Config{}, err
	}

	if err := Validate(config); err != nil {
		return Config{}, err
	}
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func mergeFileIfExists(config *Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}
	return mergeFile(config, filePath)
}

// mergeFile decodes filePath on top of config. Keys present in the file
// replace the current values; absent keys keep them.
func mergeFile(config *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	overlay := *config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}
	*config = overlay
	logging.Debug("Config", "Loaded %s", filePath)
	return nil
}

// newEnv returns a viper instance bound to the MCP_* environment variables.
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{"stage", "host", "port", "transport", "base_url", "log_level"} {
		_ = v.BindEnv(key)
	}
	return v
}

func applyEnv(config *Config, v *viper.Viper) error {
	if s := strings.TrimSpace(v.GetString("stage")); s != "" {
		config.Stage.Override = s
	}
	if v.IsSet("host") {
		config.Server.Host = v.GetString("host")
	}
	if v.IsSet("port") {
		raw := v.GetString("port")
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid MCP_PORT %q: %w", raw, err)
		}
		config.Server.Port = port
	}
	if v.IsSet("transport") {
		config.Server.Transport = v.GetString("transport")
	}
	if v.IsSet("base_url") {
		config.Server.BaseURL = v.GetString("base_url")
	}
	if v.IsSet("log_level") {
		config.Logging.Level = strings.ToLower(v.GetString("log_level"))
	}
	return nil
}

// Validate checks config against its field constraints.
func Validate(config Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(config)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	var details strings.Builder
	details.WriteString("configuration validation failed:")
	for _, fe := range validationErrors {
		details.WriteString(fmt.Sprintf("\n - field '%s': failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%s", details.String())
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
