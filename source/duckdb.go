package source

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/pkg/errors"

	"martpub/model"
	"martpub/util"
)

// DuckDB reads mart tables from a DuckDB database file, opened read-only.
// Rows are selected ORDER BY every column in schema order so repeated
// exports of unchanged data return the same sequence regardless of the
// engine's internal storage layout.
type DuckDB struct {
	db       *sql.DB
	prefixes []string
}

func OpenDuckDB(path string, prefixes []string) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, errors.Wrapf(err, "opening duckdb %v", path)
	}
	return &DuckDB{db: db, prefixes: prefixes}, nil
}

func (d *DuckDB) Close() error {
	return d.db.Close()
}

func (d *DuckDB) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'main'`)
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if util.HasAnyPrefix(name, d.prefixes) {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (d *DuckDB) Schema(ctx context.Context, table string) (model.Schema, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = 'main' AND table_name = ? ORDER BY ordinal_position`, table)
	if err != nil {
		return model.Schema{}, errors.Wrapf(err, "describing table %v", table)
	}
	defer rows.Close()

	schema := model.Schema{Table: table}
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return model.Schema{}, err
		}
		schema.Columns = append(schema.Columns, model.Column{Name: name, Type: model.TypeOf(typ)})
	}
	if err := rows.Err(); err != nil {
		return model.Schema{}, err
	}
	if len(schema.Columns) == 0 {
		return model.Schema{}, errors.Errorf("table %v has no columns", table)
	}
	return schema, nil
}

func (d *DuckDB) Rows(ctx context.Context, schema model.Schema, fn func(model.Row) error) error {
	cols := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		cols[i] = quoteIdent(c.Name)
	}
	query := "SELECT " + strings.Join(cols, ", ") +
		" FROM " + quoteIdent(schema.Table) +
		" ORDER BY " + strings.Join(cols, ", ")
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return errors.Wrapf(err, "reading table %v", schema.Table)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(rows, schema)
		if err != nil {
			return errors.Wrapf(err, "scanning table %v", schema.Table)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return errors.Wrapf(rows.Err(), "reading table %v", schema.Table)
}

func scanRow(rows *sql.Rows, schema model.Schema) (model.Row, error) {
	dest := make([]interface{}, len(schema.Columns))
	for i, c := range schema.Columns {
		switch c.Type {
		case model.Bigint:
			dest[i] = &sql.NullInt64{}
		case model.Double:
			dest[i] = &sql.NullFloat64{}
		case model.Bool:
			dest[i] = &sql.NullBool{}
		default:
			dest[i] = &sql.NullString{}
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	row := make(model.Row, len(dest))
	for i, d := range dest {
		switch v := d.(type) {
		case *sql.NullInt64:
			if v.Valid {
				row[i] = model.Int64(v.Int64)
			}
		case *sql.NullFloat64:
			if v.Valid {
				row[i] = model.Float64(v.Float64)
			}
		case *sql.NullBool:
			if v.Valid {
				row[i] = model.BoolVal(v.Bool)
			}
		case *sql.NullString:
			if v.Valid {
				row[i] = model.Str(v.String)
			}
		}
	}
	return row, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
