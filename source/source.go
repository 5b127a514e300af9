// Package source reads mart tables from the upstream analytical store.
// The pipeline only assumes a name-listing capability, an ordered column
// schema and a finite row sequence per table; nothing about how the tables
// were computed.
package source

import (
	"context"

	"martpub/model"
)

type Source interface {
	// Tables lists the mart table names to publish, sorted.
	Tables(ctx context.Context) ([]string, error)
	// Schema returns the ordered column schema of one table.
	Schema(ctx context.Context, table string) (model.Schema, error)
	// Rows streams every row of the table in deterministic order,
	// invoking fn once per row. fn returning an error stops the read.
	Rows(ctx context.Context, schema model.Schema, fn func(model.Row) error) error
}
