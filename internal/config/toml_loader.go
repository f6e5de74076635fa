package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ludo-technologies/dupscan/domain"
)

// ConfigFileName is the dedicated configuration file discovered by walking
// up from the scanned directory
const ConfigFileName = ".dupscan.toml"

// TomlConfigLoader handles TOML-only configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig looks for .dupscan.toml in startDir and its parents. Keys the
// file does not set keep their defaults. Without a file the defaults are
// returned and the path is empty.
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, string, error) {
	configPath, err := l.FindConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), "", nil
		}
		return nil, "", err
	}

	config, err := l.LoadFile(configPath)
	if err != nil {
		return nil, "", err
	}
	return config, configPath, nil
}

// LoadFile decodes one TOML file onto the defaults and validates the result
func (l *TomlConfigLoader) LoadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to read config file %s", configPath), err)
	}

	// go-toml leaves fields absent from the document untouched
	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, domain.NewConfigError(fmt.Sprintf("%s:%d:%d: invalid TOML", configPath, row, col), err)
		}
		return nil, domain.NewConfigError(fmt.Sprintf("failed to parse %s", configPath), err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FindConfigFile walks up the directory tree to find .dupscan.toml
func (l *TomlConfigLoader) FindConfigFile(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}
