// Package config loads the YAML configuration that drives sqlyway.DB and
// the cmd/sqlyway CLI: the default dialect, the template root directory, and
// one Database entry per named environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/shibukawa/sqlyway/dialect"
)

// ErrConfigValidation is returned when a loaded Config fails validation.
var ErrConfigValidation = errors.New("configuration validation failed")

// Config is the top-level sqlyway.yaml document.
type Config struct {
	Dialect   string              `yaml:"dialect"`
	SQLDir    string              `yaml:"sql_dir"`
	Databases map[string]Database `yaml:"databases"`

	// ErrorMessageLanguage and ErrorIncludeSQL are read from the file and kept
	// on Config, but neither the CLI nor the façade consults them: a
	// *twoway.ParseError always renders the same way, snippet included.
	ErrorMessageLanguage string `yaml:"error_message_language"`
	ErrorIncludeSQL      bool   `yaml:"error_include_sql"`
}

// Database is one named connection environment.
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
}

var validDialects = map[string]bool{
	string(dialect.SQLite):     true,
	string(dialect.PostgreSQL): true,
	string(dialect.MySQL):      true,
	string(dialect.Oracle):     true,
}

// Load reads and validates the YAML file at path, first overlaying process
// environment variables from a ".env" file in the current working directory
// if one exists. A missing
// config file is not an error: Load returns Default() instead, the way the
// loader falls back to built-in defaults rather than forcing every caller
// to ship a config file.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		expandEnvVars(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Default returns the configuration Load falls back to when no file exists:
// sqlite dialect, templates under "./sql", no configured databases.
func Default() *Config {
	return &Config{
		Dialect:   string(dialect.SQLite),
		SQLDir:    "./sql",
		Databases: map[string]Database{},
	}
}

func validate(cfg *Config) error {
	if cfg.Dialect != "" && !validDialects[cfg.Dialect] {
		return fmt.Errorf("%w: dialect %q must be one of sqlite, postgresql, mysql, oracle", ErrConfigValidation, cfg.Dialect)
	}
	for name, db := range cfg.Databases {
		if db.Driver == "" {
			return fmt.Errorf("%w: databases.%s: driver is required", ErrConfigValidation, name)
		}
		if db.Connection == "" {
			return fmt.Errorf("%w: databases.%s: connection is required", ErrConfigValidation, name)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Dialect == "" {
		cfg.Dialect = string(dialect.SQLite)
	}
	if cfg.SQLDir == "" {
		cfg.SQLDir = "./sql"
	}
	if cfg.Databases == nil {
		cfg.Databases = map[string]Database{}
	}
}

func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

var (
	envBraced = regexp.MustCompile(`\$\{([^}]+)\}`)
	envBare   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

func expand(s string) string {
	s = envBraced.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
	return envBare.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(m[1:])
	})
}

// expandEnvVars expands ${VAR} / $VAR references in every connection string,
// so a checked-in config file can defer credentials to the environment.
func expandEnvVars(cfg *Config) {
	for name, db := range cfg.Databases {
		db.Connection = expand(db.Connection)
		cfg.Databases[name] = db
	}
	cfg.SQLDir = expand(cfg.SQLDir)
}

// DialectValue resolves the configured default dialect, falling back to SQLite.
func (c *Config) DialectValue() dialect.Dialect {
	return dialect.ParseID(c.Dialect)
}
