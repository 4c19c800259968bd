package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SearchPaths are tried in order when no explicit config path is given.
var SearchPaths = []string{"config.yml", "./configs/config.yml"}

// Load reads the configuration from path (or the first of SearchPaths when
// path is empty), applies environment overrides and validates the result.
// A missing file is not an error when path is empty: defaults are used.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	data, err := readConfigFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		return data, nil
	}
	for _, p := range SearchPaths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", p, err)
		}
	}
	return nil, nil
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("MTA_API_KEY"); v != "" {
		cfg.GTFSRT.APIKey = v
	}
	if v := os.Getenv("ORS_API_KEY"); v != "" {
		cfg.Routing.APIKey = v
	}
	if v := os.Getenv("RELAY_DATA_DIR"); v != "" {
		cfg.GTFS.DataDir = v
	}
	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RELAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RELAY_PORT must be an integer: %q", v)
		}
		cfg.Server.Port = port
	}
	return nil
}
