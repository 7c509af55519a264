package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultEnvironmentName   = "local"
	defaultDatabaseURL       = ""
	defaultShadowDatabaseURL = ""
)

// ResolvedEnvironment is a fully-resolved environment: concrete connection strings after
// the relschema.toml, per-environment dotenv, and default-value layers have all been
// applied. A relschema.toml author targets exactly one dialect per environment, but each
// dialect's drivers have their own idiomatic dotenv variable names (POSTGRES_URL,
// SQLITE_DB_PATH, LIBSQL_URL/LIBSQL_AUTH_TOKEN), so ResolveEnvironment tries the generic
// DATABASE_URL pair first and falls back through each dialect's pair in turn.
type ResolvedEnvironment struct {
	Name              string
	DatabaseURL       string
	ShadowDatabaseURL string
	ShadowSchema      string
	SchemaPath        string
	Dialect           string
	Schemas           []string
	DotenvPath        string
	FromConfig        bool
	FromDotenv        bool
	ResolvedConfigDir string
}

// ResolveEnvironment resolves the named environment (or config's default_environment, or
// "local") into concrete connection strings (spec's ambient configuration layer).
func ResolveEnvironment(config *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if config != nil && config.DefaultEnvironment != "" {
			envName = config.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if config != nil && config.Environments != nil {
		if cfg, ok := config.Environments[envName]; ok {
			envConfig = cfg
			envExists = true
		}
	}

	resolved := &ResolvedEnvironment{Name: envName}

	if config != nil {
		resolved.ResolvedConfigDir = config.ConfigDir()
		resolved.Dialect = config.Dialect
		resolved.Schemas = config.Schemas
		if config.SchemaPath != "" {
			resolved.SchemaPath = config.SchemaPath
		}
		if config.DatabaseURL != "" && envConfig.DatabaseURL == "" {
			envConfig.DatabaseURL = config.DatabaseURL
		}
		if config.ShadowDatabaseURL != "" && envConfig.ShadowDatabaseURL == "" {
			envConfig.ShadowDatabaseURL = config.ShadowDatabaseURL
		}
	}

	if envConfig.SchemaPath != "" {
		resolved.SchemaPath = envConfig.SchemaPath
	}

	resolved.DatabaseURL = envConfig.DatabaseURL
	resolved.ShadowDatabaseURL = envConfig.ShadowDatabaseURL
	if envExists {
		resolved.FromConfig = true
	}

	var baseDir, projectDir string
	dotenvFileName := ".env." + envName
	if config != nil {
		baseDir = config.ConfigDir()
		projectDir = config.ProjectDir()
	} else if cwd, err := os.Getwd(); err == nil {
		baseDir = cwd
	}

	if baseDir != "" {
		resolved.DotenvPath = filepath.Join(baseDir, dotenvFileName)
	} else {
		resolved.DotenvPath = dotenvFileName
	}

	if _, err := os.Stat(resolved.DotenvPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
		}
		if projectDir != "" && projectDir != baseDir {
			altPath := filepath.Join(projectDir, dotenvFileName)
			if altInfo, altErr := os.Stat(altPath); altErr == nil && !altInfo.IsDir() {
				resolved.DotenvPath = altPath
			}
		}
	}

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true
		applyDotenvValues(resolved, values)
	}

	if resolved.DatabaseURL == "" {
		resolved.DatabaseURL = defaultDatabaseURL
	}
	if resolved.ShadowDatabaseURL == "" {
		resolved.ShadowDatabaseURL = defaultShadowDatabaseURL
	}

	if resolved.SchemaPath != "" {
		base := resolved.ResolvedConfigDir
		if base == "" && config != nil {
			base = config.ConfigDir()
		}
		resolved.SchemaPath = resolveSchemaPath(resolved.SchemaPath, base)
	}

	if config != nil && config.Environments != nil && len(config.Environments) > 0 && !envExists {
		if !resolved.FromDotenv {
			return nil, fmt.Errorf("environment %q not defined in relschema.toml and %s not found", envName, resolved.DotenvPath)
		}
	}

	return resolved, nil
}

// applyDotenvValues layers each dialect's idiomatic connection-string variables onto
// resolved. The generic DATABASE_URL/SHADOW_DATABASE_URL pair always wins; otherwise the
// first dialect-specific pair with a non-empty value is used, in the order a relschema.toml
// author is most likely to reach for: Postgres, then SQLite, then libSQL/Turso.
func applyDotenvValues(resolved *ResolvedEnvironment, values map[string]string) {
	if v := values["DATABASE_URL"]; v != "" {
		resolved.DatabaseURL = v
	}
	if v := values["SHADOW_DATABASE_URL"]; v != "" {
		resolved.ShadowDatabaseURL = v
	}
	if resolved.SchemaPath == "" {
		if v := values["SCHEMA_PATH"]; v != "" {
			resolved.SchemaPath = v
		}
	}

	if resolved.DatabaseURL == "" {
		if v := values["POSTGRES_URL"]; v != "" {
			resolved.DatabaseURL = v
		}
	}
	if resolved.ShadowDatabaseURL == "" {
		if v := values["POSTGRES_SHADOW_URL"]; v != "" {
			resolved.ShadowDatabaseURL = v
		}
	}

	if resolved.DatabaseURL == "" {
		if v := values["SQLITE_DB_PATH"]; v != "" {
			resolved.DatabaseURL = v
		}
	}
	if resolved.ShadowDatabaseURL == "" {
		if v := values["SQLITE_SHADOW_DB_PATH"]; v != "" {
			resolved.ShadowDatabaseURL = v
		} else if v := values["SHADOW_SQLITE_DB_PATH"]; v != "" {
			resolved.ShadowDatabaseURL = v
		}
	}

	if resolved.DatabaseURL == "" {
		if v := values["LIBSQL_URL"]; v != "" {
			resolved.DatabaseURL = v
			if token := values["LIBSQL_AUTH_TOKEN"]; token != "" {
				resolved.DatabaseURL += "?authToken=" + token
			}
		}
	}
	if resolved.ShadowDatabaseURL == "" {
		if v := values["LIBSQL_SHADOW_DB_PATH"]; v != "" {
			resolved.ShadowDatabaseURL = v
		}
	}

	// A shadow schema (same database, separate namespace) is an alternative to a whole
	// separate shadow database; when declared, the shadow connection defaults to reusing
	// the primary one.
	if v := values["SHADOW_SCHEMA"]; v != "" {
		resolved.ShadowSchema = v
		if resolved.ShadowDatabaseURL == "" {
			resolved.ShadowDatabaseURL = resolved.DatabaseURL
		}
	}
}

// resolveSchemaPath joins a relative schema path against base (the directory containing
// relschema.toml); an absolute path, or a missing base, is returned unchanged.
func resolveSchemaPath(path, base string) string {
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}
