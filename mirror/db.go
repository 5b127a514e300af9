package mirror

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// DB wraps the relational mirror store connection. The driver name picks
// the dialect: "sqlite" (default, serverless single-file store) or "mysql".
type DB struct {
	db      *sql.DB
	dialect dialect
}

func Open(driver, dsn string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening mirror store (%v)", driver)
	}
	db.SetConnMaxIdleTime(60 * time.Second)
	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	if driver == "sqlite" {
		// SQLite allows one writer at a time; a single connection turns
		// lock contention between concurrent replaces into queueing.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "pinging mirror store")
	}
	return &DB{db: db, dialect: d}, nil
}

// OpenDB wraps an existing connection, used by tests.
func OpenDB(db *sql.DB, driver string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return &DB{db: db, dialect: d}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

func (d *DB) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

func (d *DB) Begin(ctx context.Context) (*sql.Tx, error) {
	return d.db.BeginTx(ctx, nil)
}
