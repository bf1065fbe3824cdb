package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"path/filepath"
	"strings"

	"git.handmade.network/hmn/tablelog/src/oops"
	"modernc.org/sqlite"
)

const MemoryPath = ":memory:"

// A LOWER that folds all of Unicode. SQLite's built-in LOWER only folds ASCII.
const SQLiteLowerFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(SQLiteLowerFunc, 1, func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case nil:
			return nil, nil
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

/*
Opens a SQLite database at the given path, or a private in-memory database if
path is ":memory:". The handle is a database/sql pool, not a pgx connection,
so the generic Query helpers in this package do not apply to it; use
QueryBuilder with QuestionPlaceholders and database/sql directly.
*/
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, oops.New(nil, "sqlite path is required")
	}

	var dsn string
	if path == MemoryPath {
		dsn = MemoryPath
	} else {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.New(err, "failed to open sqlite db")
	}
	if path == MemoryPath {
		// Every connection to :memory: is a different database.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, oops.New(err, "failed to ping sqlite db")
	}
	return sqlDB, nil
}
