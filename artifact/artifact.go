// Package artifact serializes mart tables to parquet snapshot artifacts
// and computes their content fingerprints. The encoding is canonical:
// fixed writer properties, fixed chunk size, dictionary encoding off, so
// identical rows always produce identical bytes.
package artifact

import (
	"io"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/pkg/errors"

	"martpub/consts"
	"martpub/model"
)

// Writer accumulates rows for one table and flushes them as a parquet
// artifact. Append order is preserved.
type Writer struct {
	schema   model.Schema
	arrow    *arrow.Schema
	mem      memory.Allocator
	builders []array.Builder
	rows     int64
}

func NewWriter(schema model.Schema) *Writer {
	mem := memory.NewGoAllocator()
	fields := make([]arrow.Field, len(schema.Columns))
	builders := make([]array.Builder, len(schema.Columns))
	for i, c := range schema.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
		switch c.Type {
		case model.Bigint:
			builders[i] = array.NewInt64Builder(mem)
		case model.Double:
			builders[i] = array.NewFloat64Builder(mem)
		case model.Bool:
			builders[i] = array.NewBooleanBuilder(mem)
		default:
			builders[i] = array.NewStringBuilder(mem)
		}
	}
	return &Writer{
		schema:   schema,
		arrow:    arrow.NewSchema(fields, nil),
		mem:      mem,
		builders: builders,
	}
}

func arrowType(t model.Type) arrow.DataType {
	switch t {
	case model.Bigint:
		return arrow.PrimitiveTypes.Int64
	case model.Double:
		return arrow.PrimitiveTypes.Float64
	case model.Bool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func (w *Writer) Append(row model.Row) error {
	if len(row) != len(w.builders) {
		return errors.Errorf("row has %d values, schema has %d columns", len(row), len(w.builders))
	}
	for i, v := range row {
		if !v.Valid {
			w.builders[i].AppendNull()
			continue
		}
		switch b := w.builders[i].(type) {
		case *array.Int64Builder:
			x, ok := v.V.(int64)
			if !ok {
				return errors.Errorf("column %v: expected int64, got %T", w.schema.Columns[i].Name, v.V)
			}
			b.Append(x)
		case *array.Float64Builder:
			x, ok := v.V.(float64)
			if !ok {
				return errors.Errorf("column %v: expected float64, got %T", w.schema.Columns[i].Name, v.V)
			}
			b.Append(x)
		case *array.BooleanBuilder:
			x, ok := v.V.(bool)
			if !ok {
				return errors.Errorf("column %v: expected bool, got %T", w.schema.Columns[i].Name, v.V)
			}
			b.Append(x)
		case *array.StringBuilder:
			x, ok := v.V.(string)
			if !ok {
				return errors.Errorf("column %v: expected string, got %T", w.schema.Columns[i].Name, v.V)
			}
			b.Append(x)
		}
	}
	w.rows++
	return nil
}

// RowCount returns the number of rows appended so far.
func (w *Writer) RowCount() int64 {
	return w.rows
}

// Flush writes the accumulated rows to out as a parquet file. Zero rows is
// a valid artifact: the file carries only the schema.
func (w *Writer) Flush(out io.Writer) error {
	parts := make([]arrow.Array, len(w.builders))
	for i, b := range w.builders {
		parts[i] = b.NewArray()
	}
	rec := array.NewRecord(w.arrow, parts, w.rows)
	table := array.NewTableFromRecords(w.arrow, []arrow.Record{rec})
	defer table.Release()
	defer rec.Release()
	for _, p := range parts {
		defer p.Release()
	}

	props := parquet.NewWriterProperties(
		parquet.WithDictionaryDefault(false),
		parquet.WithCreatedBy("martpub"),
	)
	arrProps := pqarrow.DefaultWriterProps()
	if err := pqarrow.WriteTable(table, out, consts.ParquetChunkSize, props, arrProps); err != nil {
		return errors.Wrapf(err, "writing parquet for %v", w.schema.Table)
	}
	return nil
}
