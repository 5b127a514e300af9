package mirror

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"martpub/model"
)

// dialect carries the driver-specific SQL of the atomic table replace.
type dialect interface {
	quote(ident string) string
	createTable(name string, schema model.Schema) string
	// txSwap reports whether drop+rename can run inside the same
	// transaction as the bulk insert (SQLite). If false, swap is invoked
	// after the insert transaction committed and must itself be atomic.
	txSwap() bool
	// swapStmts returns the statements replacing live with staged,
	// executed in order.
	swapStmts(ctx context.Context, db *DB, live, staged string) ([]string, error)
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite":
		return sqliteDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	}
	return nil, errors.Errorf("unsupported mirror driver %q", driver)
}

type sqliteDialect struct{}

func (sqliteDialect) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d sqliteDialect) createTable(name string, schema model.Schema) string {
	cols := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		cols[i] = d.quote(c.Name) + " " + c.Type.MirrorType()
	}
	return "CREATE TABLE " + d.quote(name) + " (" + strings.Join(cols, ", ") + ")"
}

func (sqliteDialect) txSwap() bool { return true }

// SQLite runs DDL transactionally, so the drop and rename join the insert
// transaction and the whole replace commits or rolls back as one.
func (d sqliteDialect) swapStmts(ctx context.Context, db *DB, live, staged string) ([]string, error) {
	return []string{
		"DROP TABLE IF EXISTS " + d.quote(live),
		"ALTER TABLE " + d.quote(staged) + " RENAME TO " + d.quote(live),
	}, nil
}

type mysqlDialect struct{}

func (mysqlDialect) quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d mysqlDialect) createTable(name string, schema model.Schema) string {
	cols := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		typ := c.Type.MirrorType()
		if typ == "TEXT" {
			typ = "LONGTEXT"
		}
		cols[i] = d.quote(c.Name) + " " + typ
	}
	return "CREATE TABLE " + d.quote(name) + " (" + strings.Join(cols, ", ") + ")"
}

func (mysqlDialect) txSwap() bool { return false }

// MySQL DDL commits implicitly, so the swap runs after the insert
// transaction. RENAME TABLE is atomic across both tables, which keeps the
// no-half-populated-table guarantee.
func (d mysqlDialect) swapStmts(ctx context.Context, db *DB, live, staged string) ([]string, error) {
	rows, err := db.Query(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", live)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	exists := 0
	if rows.Next() {
		if err := rows.Scan(&exists); err != nil {
			return nil, err
		}
	}
	if exists == 0 {
		return []string{"RENAME TABLE " + d.quote(staged) + " TO " + d.quote(live)}, nil
	}
	old := live + "__old"
	return []string{
		"DROP TABLE IF EXISTS " + d.quote(old),
		"RENAME TABLE " + d.quote(live) + " TO " + d.quote(old) + ", " + d.quote(staged) + " TO " + d.quote(live),
		"DROP TABLE " + d.quote(old),
	}, nil
}
