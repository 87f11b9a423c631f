package app

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultConfigPath is used when no configuration path is given.
const DefaultConfigPath = "branchtalk.hcl"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // hcl file or directory
	InputsPath string // directory with context.txt and channel files

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.InputsPath == "" {
		return nil, errors.New("InputsPath is a required configuration field and cannot be empty")
	}
	info, err := os.Stat(cfg.InputsPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("InputsPath must be a directory")
	}
	cfg.InputsPath = filepath.Clean(cfg.InputsPath)
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfigPath
	}
	return &cfg, nil
}
