package sqlyway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/sqlyway/twoway"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDetectDialect(t *testing.T) {
	require.Equal(t, "sqlite", string(DetectDialect("sqlite3").ID()))
	require.Equal(t, "postgresql", string(DetectDialect("pgx").ID()))
	require.Equal(t, "mysql", string(DetectDialect("mysql").ID()))
	require.Equal(t, "sqlite", string(DetectDialect("unknown-driver").ID()))
}

type user struct {
	ID   int64
	Name string
	Age  int64
}

func TestDB_InsertAndQuery_ViaFiles(t *testing.T) {
	sqlDir := t.TempDir()
	writeTemplate(t, sqlDir, "insert_user.sql",
		"INSERT INTO users (name, age)\nVALUES (/* $name */'x', /* $age */0)")
	writeTemplate(t, sqlDir, "find_users.sql",
		"SELECT id, name, age FROM users\nWHERE age >= /* $minAge */0")

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open("sqlite3", dbPath, sqlDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Raw().Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)
	require.NoError(t, err)

	ctx := context.Background()

	id, err := db.Insert(ctx, "insert_user.sql", twoway.Bindings{"name": "Ada", "age": 30})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	_, err = db.Insert(ctx, "insert_user.sql", twoway.Bindings{"name": "Grace", "age": 85})
	require.NoError(t, err)

	users, err := Query[user](ctx, db, "find_users.sql", twoway.Bindings{"minAge": 40})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Grace", users[0].Name)

	all, err := Query[user](ctx, db, "find_users.sql", twoway.Bindings{"minAge": 0})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestDB_QueryOne_NoRows(t *testing.T) {
	sqlDir := t.TempDir()
	writeTemplate(t, sqlDir, "find_one.sql", "SELECT id, name, age FROM users WHERE id = /* $id */0")

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open("sqlite3", dbPath, sqlDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Raw().Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)
	require.NoError(t, err)

	_, err = QueryOne[user](context.Background(), db, "find_one.sql", twoway.Bindings{"id": 999})
	require.ErrorIs(t, err, ErrNoRows)
}

func TestDB_WithTx_RollsBackOnError(t *testing.T) {
	sqlDir := t.TempDir()
	writeTemplate(t, sqlDir, "insert_user.sql",
		"INSERT INTO users (name, age)\nVALUES (/* $name */'x', /* $age */0)")
	writeTemplate(t, sqlDir, "find_users.sql", "SELECT id, name, age FROM users")

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open("sqlite3", dbPath, sqlDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Raw().Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)
	require.NoError(t, err)

	ctx := context.Background()

	err = db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.Execute(ctx, "insert_user.sql", twoway.Bindings{"name": "Temp", "age": 1})
		if err != nil {
			return err
		}
		return context.DeadlineExceeded
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	users, err := Query[user](ctx, db, "find_users.sql", twoway.Bindings{})
	require.NoError(t, err)
	require.Len(t, users, 0)
}

func TestDB_WithTx_CommitsOnSuccess(t *testing.T) {
	sqlDir := t.TempDir()
	writeTemplate(t, sqlDir, "insert_user.sql",
		"INSERT INTO users (name, age)\nVALUES (/* $name */'x', /* $age */0)")
	writeTemplate(t, sqlDir, "find_users.sql", "SELECT id, name, age FROM users")

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open("sqlite3", dbPath, sqlDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Raw().Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)
	require.NoError(t, err)

	ctx := context.Background()
	err = db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.Execute(ctx, "insert_user.sql", twoway.Bindings{"name": "Linus", "age": 55})
		return err
	})
	require.NoError(t, err)

	users, err := TxQueryViaDB(ctx, db, "find_users.sql")
	require.NoError(t, err)
	require.Len(t, users, 1)
}

// TxQueryViaDB is a small test helper that runs a read inside a fresh
// transaction via TxQuery, exercising the same function WithTx's callback
// would use, without needing a second real table mutation in the test body.
func TxQueryViaDB(ctx context.Context, db *DB, sqlPath string) ([]user, error) {
	var out []user
	err := db.WithTx(ctx, func(tx *Tx) error {
		rows, err := TxQuery[user](ctx, tx, sqlPath, twoway.Bindings{})
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}
