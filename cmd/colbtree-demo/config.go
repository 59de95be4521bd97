package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// DemoConfig is the YAML-backed configuration for the demo binary,
// grounded on the teacher's internal.NovaSqlConfig/LoadConfig pair
// (internal/config.go): a viper.New() reader scoped to one explicit file
// rather than viper's global singleton, unmarshaled into a mapstructure
// tagged struct.
type DemoConfig struct {
	Storage struct {
		Dir      string `mapstructure:"dir"`
		Capacity int    `mapstructure:"capacity"`
	} `mapstructure:"storage"`
	Demo struct {
		Rows int `mapstructure:"rows"`
	} `mapstructure:"demo"`
}

func defaultConfig() DemoConfig {
	var cfg DemoConfig
	cfg.Storage.Dir = "./colbtree-data"
	cfg.Storage.Capacity = 128
	cfg.Demo.Rows = 25
	return cfg
}

// LoadConfig reads path if it exists, falling back to defaultConfig
// untouched when the file is absent, so the demo runs with zero setup.
func LoadConfig(path string) (DemoConfig, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		if isNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
