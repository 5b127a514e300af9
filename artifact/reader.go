package artifact

import (
	"context"
	"os"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/pkg/errors"

	"martpub/model"
)

// Read loads a staged artifact back into memory. The mirror updater feeds
// from artifacts rather than re-querying upstream, so the rows it applies
// are exactly the fingerprinted bytes the manifest references.
func Read(ctx context.Context, path, table string) (model.Schema, []model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Schema{}, nil, errors.Wrapf(err, "opening artifact %v", path)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return model.Schema{}, nil, errors.Wrapf(err, "reading parquet %v", path)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return model.Schema{}, nil, err
	}
	tbl, err := reader.ReadTable(ctx)
	if err != nil {
		return model.Schema{}, nil, err
	}
	defer tbl.Release()

	schema := model.Schema{Table: table}
	for _, field := range tbl.Schema().Fields() {
		schema.Columns = append(schema.Columns, model.Column{
			Name: field.Name,
			Type: modelType(field.Type),
		})
	}

	rows := make([]model.Row, tbl.NumRows())
	for i := range rows {
		rows[i] = make(model.Row, len(schema.Columns))
	}
	for j := range schema.Columns {
		vals, err := columnValues(tbl.Column(j))
		if err != nil {
			return model.Schema{}, nil, errors.Wrapf(err, "column %v of %v", schema.Columns[j].Name, path)
		}
		for i, v := range vals {
			rows[i][j] = v
		}
	}
	return schema, rows, nil
}

func modelType(t arrow.DataType) model.Type {
	switch t.ID() {
	case arrow.INT64:
		return model.Bigint
	case arrow.FLOAT64:
		return model.Double
	case arrow.BOOL:
		return model.Bool
	default:
		return model.Char
	}
}

func columnValues(col *arrow.Column) ([]model.Value, error) {
	vals := make([]model.Value, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				vals = append(vals, model.Null())
				continue
			}
			switch a := chunk.(type) {
			case *array.Int64:
				vals = append(vals, model.Int64(a.Value(i)))
			case *array.Float64:
				vals = append(vals, model.Float64(a.Value(i)))
			case *array.Boolean:
				vals = append(vals, model.BoolVal(a.Value(i)))
			case *array.String:
				vals = append(vals, model.Str(a.Value(i)))
			default:
				return nil, errors.Errorf("unsupported array type %T", chunk)
			}
		}
	}
	return vals, nil
}
