package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shibukawa/sqlyway/dialect"
	"github.com/shibukawa/sqlyway/twoway"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoader_PrefersDialectSuffixedVariant(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users/find.sql", "SELECT * FROM users")
	writeFile(t, dir, "users/find.oracle.sql", "SELECT * FROM users /* oracle */")

	l := New(dir)
	text, err := l.Load("users/find.sql", dialect.Oracle)
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM users /* oracle */", text)
}

func TestLoader_FallsBackToPlainPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users/find.sql", "SELECT * FROM users")

	l := New(dir)
	text, err := l.Load("users/find.sql", dialect.Oracle)
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM users", text)
}

func TestLoader_MissingFileReturnsSqlFileNotFound(t *testing.T) {
	l := New(t.TempDir())
	_, err := l.Load("missing.sql", dialect.SQLite)
	require.ErrorIs(t, err, twoway.ErrSqlFileNotFound)
}

func TestLoader_RejectsPathEscapingBaseDir(t *testing.T) {
	l := New(t.TempDir())
	_, err := l.Load("../../etc/passwd", dialect.SQLite)
	require.Error(t, err)
}

func TestLoader_CachesSecondLoadWithoutRereading(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "q.sql", "SELECT 1")

	l := New(dir)
	first, err := l.Load("q.sql", "")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "q.sql"), []byte("SELECT 2"), 0o644))

	second, err := l.Load("q.sql", "")
	require.NoError(t, err)
	require.Equal(t, first, second, "cached load should not observe the on-disk change")
}
