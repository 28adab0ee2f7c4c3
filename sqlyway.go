// Package sqlyway is the high-level façade spec.md §1 names as an external
// collaborator: it stitches the loader, the two-way SQL core, the row
// mapper, and database/sql together behind a small Query/QueryOne/Execute/
// Insert/WithTx API, grounded on original_source's sqlym.py Sqlym class.
package sqlyway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shibukawa/sqlyway/dialect"
	"github.com/shibukawa/sqlyway/loader"
	"github.com/shibukawa/sqlyway/mapper"
	"github.com/shibukawa/sqlyway/twoway"
)

// ErrNoRows is returned by QueryOne when the statement produced zero rows.
var ErrNoRows = errors.New("sqlyway: no rows")

// DB wraps a *sql.DB with the template loader and dialect needed to run
// two-way SQL templates against it. Pooling and connection lifecycle are
// entirely database/sql's; DB never inspects catalog state.
type DB struct {
	sqlDB   *sql.DB
	dialect dialect.Dialect
	loader  *loader.Loader
}

// Open opens driverName/dsn via database/sql and builds a DB that loads
// templates from sqlDir, auto-detecting the dialect from driverName the
// way original_source's _detect_dialect inspects the connection's module.
func Open(driverName, dsn, sqlDir string) (*DB, error) {
	return OpenWithDialect(driverName, dsn, DetectDialect(driverName), sqlDir)
}

// OpenWithDialect is Open with an explicit dialect, for a driver name the
// auto-detector doesn't recognize.
func OpenWithDialect(driverName, dsn string, d dialect.Dialect, sqlDir string) (*DB, error) {
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlyway: open %s: %w", driverName, err)
	}
	return &DB{sqlDB: sqlDB, dialect: d, loader: loader.New(sqlDir)}, nil
}

// DetectDialect maps a database/sql driver name to the Dialect whose
// placeholder style and LIKE-escape rules it needs, per
// original_source's Sqlym._detect_dialect.
func DetectDialect(driverName string) dialect.Dialect {
	switch driverName {
	case "sqlite3", "sqlite":
		return dialect.New(dialect.SQLite)
	case "pgx", "postgres", "pq":
		return dialect.New(dialect.PostgreSQL)
	case "mysql":
		return dialect.New(dialect.MySQL)
	case "oracle", "godror":
		return dialect.New(dialect.Oracle)
	default:
		return dialect.Default
	}
}

// Close closes the underlying *sql.DB.
func (db *DB) Close() error { return db.sqlDB.Close() }

// Raw exposes the underlying *sql.DB for callers that need it directly
// (migrations, health checks) outside this façade's scope.
func (db *DB) Raw() *sql.DB { return db.sqlDB }

// querier is satisfied by both *sql.DB and *sql.Tx, so render+execute can
// run unmodified inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// render loads sqlPath, parses it against params, and returns the bound
// SQL and positional parameter vector ready for querier.
func (db *DB) render(sqlPath string, params twoway.Bindings) (string, []any, error) {
	template, err := db.loader.Load(sqlPath, db.dialect.ID())
	if err != nil {
		return "", nil, err
	}
	result, err := twoway.Parse(template, params, twoway.Options{
		Dialect: db.dialect,
		Include: db.loader.AsResolver(),
	})
	if err != nil {
		return "", nil, err
	}
	return result.SQL, result.Params, nil
}

func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlyway: columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlyway: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func runQuery(ctx context.Context, q querier, sql string, args []any) ([]map[string]any, error) {
	rows, err := q.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlyway: query: %w", err)
	}
	return rowsToMaps(rows)
}

// QueryRaw renders sqlPath against params and returns each row as a
// column-name-keyed map, for callers (like the CLI's query command) that
// format results generically instead of mapping into a concrete type.
func (db *DB) QueryRaw(ctx context.Context, sqlPath string, params twoway.Bindings) (columns []string, rows []map[string]any, sqlText string, err error) {
	sqlText, args, err := db.render(sqlPath, params)
	if err != nil {
		return nil, nil, "", err
	}
	sqlRows, err := db.sqlDB.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, nil, sqlText, fmt.Errorf("sqlyway: query: %w", err)
	}

	columns, err = sqlRows.Columns()
	if err != nil {
		sqlRows.Close()
		return nil, nil, sqlText, fmt.Errorf("sqlyway: columns: %w", err)
	}
	rows, err = rowsToMaps(sqlRows)
	return columns, rows, sqlText, err
}

// Query renders sqlPath against params, executes it, and maps every row
// into a T, per spec.md §6's parse-entry-point contract layered over a
// real database/sql connection.
func Query[T any](ctx context.Context, db *DB, sqlPath string, params twoway.Bindings, opts ...mapper.Option) ([]T, error) {
	sqlText, args, err := db.render(sqlPath, params)
	if err != nil {
		return nil, err
	}
	rows, err := runQuery(ctx, db.sqlDB, sqlText, args)
	if err != nil {
		return nil, err
	}
	return mapper.MapRows[T](rows, opts...)
}

// QueryOne is Query restricted to the first row, returning ErrNoRows if
// the statement produced none.
func QueryOne[T any](ctx context.Context, db *DB, sqlPath string, params twoway.Bindings, opts ...mapper.Option) (T, error) {
	var zero T
	sqlText, args, err := db.render(sqlPath, params)
	if err != nil {
		return zero, err
	}
	rows, err := runQuery(ctx, db.sqlDB, sqlText, args)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrNoRows
	}
	return mapper.MapRow[T](rows[0], opts...)
}

// Execute renders sqlPath against params and runs it as a write statement,
// returning the number of affected rows.
func (db *DB) Execute(ctx context.Context, sqlPath string, params twoway.Bindings) (int64, error) {
	sqlText, args, err := db.render(sqlPath, params)
	if err != nil {
		return 0, err
	}
	result, err := db.sqlDB.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlyway: exec: %w", err)
	}
	return result.RowsAffected()
}

// Insert is Execute for an INSERT statement, returning the driver's
// auto-generated id (LastInsertId) when the driver supports it.
func (db *DB) Insert(ctx context.Context, sqlPath string, params twoway.Bindings) (int64, error) {
	sqlText, args, err := db.render(sqlPath, params)
	if err != nil {
		return 0, err
	}
	result, err := db.sqlDB.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlyway: insert: %w", err)
	}
	return result.LastInsertId()
}

// Tx is DB's render+execute API bound to one *sql.Tx, handed to the
// callback of WithTx.
type Tx struct {
	tx      *sql.Tx
	dialect dialect.Dialect
	loader  *loader.Loader
}

func (t *Tx) render(sqlPath string, params twoway.Bindings) (string, []any, error) {
	template, err := t.loader.Load(sqlPath, t.dialect.ID())
	if err != nil {
		return "", nil, err
	}
	result, err := twoway.Parse(template, params, twoway.Options{
		Dialect: t.dialect,
		Include: t.loader.AsResolver(),
	})
	if err != nil {
		return "", nil, err
	}
	return result.SQL, result.Params, nil
}

// Execute is DB.Execute run inside the transaction.
func (t *Tx) Execute(ctx context.Context, sqlPath string, params twoway.Bindings) (int64, error) {
	sqlText, args, err := t.render(sqlPath, params)
	if err != nil {
		return 0, err
	}
	result, err := t.tx.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlyway: tx exec: %w", err)
	}
	return result.RowsAffected()
}

// TxQuery is Query run inside a transaction; it cannot be a Tx method
// because Go methods may not carry their own type parameters.
func TxQuery[T any](ctx context.Context, t *Tx, sqlPath string, params twoway.Bindings, opts ...mapper.Option) ([]T, error) {
	sqlText, args, err := t.render(sqlPath, params)
	if err != nil {
		return nil, err
	}
	rows, err := runQuery(ctx, t.tx, sqlText, args)
	if err != nil {
		return nil, err
	}
	return mapper.MapRows[T](rows, opts...)
}

// WithTx runs fn inside a transaction, committing if fn returns nil and
// rolling back otherwise (including on panic, which it re-raises after
// rollback), per original_source's Sqlym context-manager commit/rollback
// behavior.
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlyway: begin tx: %w", err)
	}

	tx := &Tx{tx: sqlTx, dialect: db.dialect, loader: db.loader}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlyway: rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("sqlyway: commit: %w", err)
	}
	return nil
}
