package model

import (
	"strconv"
	"strings"
)

type Type int

const (
	_ Type = iota
	Bigint
	Double
	Bool
	Char
)

// TypeOf maps an upstream column type name to the pipeline's type system.
// Anything unrecognized is carried as text, matching how the mirror store
// ultimately represents it.
func TypeOf(upstream string) Type {
	dt := strings.ToLower(upstream)
	switch {
	case strings.Contains(dt, "int"):
		return Bigint
	case strings.Contains(dt, "double"),
		strings.Contains(dt, "float"),
		strings.Contains(dt, "decimal"),
		strings.Contains(dt, "numeric"),
		strings.Contains(dt, "real"):
		return Double
	case strings.Contains(dt, "bool"):
		return Bool
	default:
		return Char
	}
}

// MirrorType returns the column type used in mirror store DDL.
func (t Type) MirrorType() string {
	switch t {
	case Bigint, Bool:
		return "INTEGER"
	case Double:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (t Type) String() string {
	switch t {
	case Bigint:
		return "bigint"
	case Double:
		return "double"
	case Bool:
		return "bool"
	case Char:
		return "char"
	}
	return "unknown"
}

type Column struct {
	Name string
	Type Type
}

// Schema is the ordered column list of one mart table. Column order is
// fixed by the upstream read and must not be reordered anywhere in the
// pipeline, or fingerprints stop being reproducible.
type Schema struct {
	Table   string
	Columns []Column
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Value is one cell. V holds int64, float64, bool or string according to
// the column type; Valid is false for NULL.
type Value struct {
	V     interface{}
	Valid bool
}

type Row []Value

// Arg returns the value as a database/sql argument, nil for NULL.
func (v Value) Arg() interface{} {
	if !v.Valid {
		return nil
	}
	return v.V
}

func (v Value) String() string {
	if !v.Valid {
		return "NULL"
	}
	switch x := v.V.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		return x
	}
	return ""
}

func Int64(v int64) Value     { return Value{V: v, Valid: true} }
func Float64(v float64) Value { return Value{V: v, Valid: true} }
func BoolVal(v bool) Value    { return Value{V: v, Valid: true} }
func Str(v string) Value      { return Value{V: v, Valid: true} }
func Null() Value             { return Value{} }
