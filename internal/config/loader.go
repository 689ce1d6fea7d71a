package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Load reads an optional .env file from the working directory and then
// the environment. Variables already set in the environment win over the file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// ToolConfig is the part of the configuration used by offline tools.
type ToolConfig struct {
	Database DatabaseConfig
	Log      LogConfig
}

// LoadTool reads the database and log settings the same way as Load,
// without requiring Telegram credentials.
func LoadTool(envFiles ...string) (*ToolConfig, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	var cfg ToolConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Database.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv(paths []string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return nil
}

// LoadFrom is Load with explicit .env paths. Missing files are skipped.
func LoadFrom(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}
