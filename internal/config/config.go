// Package config resolves relschema.toml plus per-environment dotenv files into concrete
// connection settings (spec's ambient configuration layer), the way the teacher's
// internal/config package resolves lockplane.toml. Grounded on the teacher's
// internal/config/config.go (project-root-bounded upward search) and config.go at its
// repository root (the simpler database_url/shadow_database_url/schema_path shape, folded
// in here as the package-level defaults every named environment inherits), generalized to
// also carry the global dialect and declared schema list a relschema.toml author sets once
// for the whole project.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

// EnvironmentConfig describes one named [environments.NAME] block in relschema.toml.
type EnvironmentConfig struct {
	DatabaseURL       string `toml:"database_url"`
	ShadowDatabaseURL string `toml:"shadow_database_url"`
	SchemaPath        string `toml:"schema_path"`
	Description       string `toml:"description"`

	// PostgresURL exists for backward-compatible decoding of postgres_url-keyed blocks;
	// new configs should use the generic database_url key instead.
	PostgresURL string `toml:"postgres_url"`
}

// Config is the decoded shape of relschema.toml.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	Dialect            string                       `toml:"dialect"`
	Schemas            []string                     `toml:"schemas"`
	DatabaseURL        string                       `toml:"database_url"`
	ShadowDatabaseURL  string                       `toml:"shadow_database_url"`
	SchemaPath         string                       `toml:"schema_path"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`

	ConfigFilePath string `toml:"-"`
	configDir      string
	projectDir     string
}

// ConfigDir returns the directory containing relschema.toml, or "" if the Config wasn't
// loaded from a file.
func (c *Config) ConfigDir() string { return c.configDir }

// ProjectDir returns the nearest project-root boundary (.git, go.mod, package.json) at or
// above ConfigDir, used to locate dotenv files that live at the repo root rather than
// alongside a nested relschema.toml.
func (c *Config) ProjectDir() string {
	if c.projectDir != "" {
		return c.projectDir
	}
	return c.configDir
}

// PrintLoadConfigErrorDetails surfaces a TOML decode error's row/column to aid debugging a
// malformed relschema.toml; t may be nil to print to stdout instead of a test log.
func PrintLoadConfigErrorDetails(err error, t *testing.T) {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		if t != nil {
			t.Log(derr.String())
			row, col := derr.Position()
			t.Logf("Error occurred at row %d, column %d", row, col)
		} else {
			fmt.Println(derr.String())
			row, col := derr.Position()
			fmt.Printf("Error occurred at row %d, column %d\n", row, col)
		}
	}
}

// LoadConfig searches the current directory and its ancestors for relschema.toml, stopping
// at the first project-root boundary. It returns an empty Config, not an error, when no
// file is found.
func LoadConfig() (*Config, error) {
	configPath, projectDir, err := findConfigPath()
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing %s as toml: %w", configPath, err)
	}
	for name, env := range config.Environments {
		if env.DatabaseURL == "" && env.PostgresURL != "" {
			env.DatabaseURL = env.PostgresURL
			config.Environments[name] = env
		}
	}

	config.ConfigFilePath = configPath
	config.configDir = filepath.Dir(configPath)
	config.projectDir = projectDir
	return &config, nil
}

// findConfigPath walks up from the working directory looking for relschema.toml, and
// separately tracks the first project-root marker it crosses (.git/go.mod/package.json),
// since the two need not coincide when relschema.toml lives in a nested subdirectory.
func findConfigPath() (configPath string, projectDir string, err error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", "", err
	}

	for {
		if configPath == "" {
			candidate := filepath.Join(dir, "relschema.toml")
			if _, statErr := os.Stat(candidate); statErr == nil {
				configPath = candidate
			}
		}
		if isProjectRoot(dir) {
			projectDir = dir
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return configPath, projectDir, nil
}

// isProjectRoot reports whether dir carries one of the common project-boundary markers.
func isProjectRoot(dir string) bool {
	for _, marker := range []string{".git", "go.mod", "package.json"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// GetSchemaDir returns the schema/ directory alongside the located relschema.toml.
func GetSchemaDir() (string, error) {
	configPath, _, err := findConfigPath()
	if err != nil {
		return "", err
	}
	if configPath == "" {
		return "", fmt.Errorf("relschema.toml not found")
	}
	schemaDir := filepath.Join(filepath.Dir(configPath), "schema")
	if info, err := os.Stat(schemaDir); err == nil && info.IsDir() {
		return schemaDir, nil
	}
	return "", fmt.Errorf("schema directory not found; try creating schema/ next to relschema.toml")
}
