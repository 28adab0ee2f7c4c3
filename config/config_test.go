package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/sqlyway/dialect"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, string(dialect.SQLite), cfg.Dialect)
	assert.Equal(t, "./sql", cfg.SQLDir)
	assert.Equal(t, 0, len(cfg.Databases))
}

func TestLoad_ParsesDatabasesAndDialect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlyway.yaml")
	body := "dialect: postgresql\nsql_dir: ./templates\ndatabases:\n  development:\n    driver: pgx\n    connection: postgres://localhost/app\n"
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "postgresql", cfg.Dialect)
	assert.Equal(t, "./templates", cfg.SQLDir)
	assert.Equal(t, "pgx", cfg.Databases["development"].Driver)
	assert.Equal(t, dialect.PostgreSQL, cfg.DialectValue().ID())
}

func TestLoad_RejectsUnknownDialect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlyway.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("dialect: mssql\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsDatabaseMissingConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlyway.yaml")
	body := "databases:\n  development:\n    driver: sqlite3\n"
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ExpandsEnvVarsInConnection(t *testing.T) {
	t.Setenv("SQLYWAY_TEST_DSN", "postgres://env-host/app")

	path := filepath.Join(t.TempDir(), "sqlyway.yaml")
	body := "databases:\n  development:\n    driver: pgx\n    connection: \"${SQLYWAY_TEST_DSN}\"\n"
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "postgres://env-host/app", cfg.Databases["development"].Connection)
}
