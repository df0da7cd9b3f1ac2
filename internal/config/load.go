package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. SCALPEL_E2E_BROWSER_HEADLESS.
const EnvPrefix = "SCALPEL_E2E"

// ConfigFileEnv names a config file to use when none is passed explicitly.
const ConfigFileEnv = EnvPrefix + "_CONFIG"

// NewViper returns a viper instance carrying the defaults and the environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads the named .env files into the process environment. Missing files are skipped
// and variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ReadConfigFile reads configFile, or searches dirs for config.yaml when it is empty.
// Not finding a config file by search is fine; an explicit file must exist.
func ReadConfigFile(v *viper.Viper, configFile string, dirs ...string) error {
	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnv)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Load builds a validated configuration from .env files, config.yaml and the environment,
// searching dirs (the working directory when none are given) for both files.
func Load(configFile string, dirs ...string) (*Config, error) {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	envFiles := make([]string, 0, len(dirs))
	for _, d := range dirs {
		envFiles = append(envFiles, filepath.Join(d, ".env"))
	}
	if err := LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	v := NewViper()
	if err := ReadConfigFile(v, configFile, dirs...); err != nil {
		return nil, err
	}
	return NewConfigFromViper(v)
}
