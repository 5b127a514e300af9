package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	assert.Equal(t, Bigint, TypeOf("BIGINT"))
	assert.Equal(t, Bigint, TypeOf("INTEGER"))
	assert.Equal(t, Bigint, TypeOf("UINTEGER"))
	assert.Equal(t, Double, TypeOf("DOUBLE"))
	assert.Equal(t, Double, TypeOf("DECIMAL(18,3)"))
	assert.Equal(t, Double, TypeOf("FLOAT"))
	assert.Equal(t, Bool, TypeOf("BOOLEAN"))
	assert.Equal(t, Char, TypeOf("VARCHAR"))
	assert.Equal(t, Char, TypeOf("DATE"))
	assert.Equal(t, Char, TypeOf("TIMESTAMP"))
}

func TestMirrorType(t *testing.T) {
	assert.Equal(t, "INTEGER", Bigint.MirrorType())
	assert.Equal(t, "INTEGER", Bool.MirrorType())
	assert.Equal(t, "REAL", Double.MirrorType())
	assert.Equal(t, "TEXT", Char.MirrorType())
}

func TestValueArg(t *testing.T) {
	assert.Equal(t, int64(42), Int64(42).Arg())
	assert.Equal(t, 3.14, Float64(3.14).Arg())
	assert.Equal(t, "x", Str("x").Arg())
	assert.Nil(t, Null().Arg())
}

func TestManifestEncodeDeterministic(t *testing.T) {
	build := func() *Manifest {
		m := NewManifest()
		m.Tables["fct_b"] = Artifact{Fingerprint: "fb", Size: 2, RowCount: 1, Key: "fct_b.parquet"}
		m.Tables["dim_a"] = Artifact{Fingerprint: "fa", Size: 1, RowCount: 1, Key: "dim_a.parquet"}
		return m
	}
	first, err := build().Encode()
	assert.NoError(t, err)
	second, err := build().Encode()
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	decoded, err := DecodeManifest(first)
	assert.NoError(t, err)
	assert.Equal(t, []string{"dim_a", "fct_b"}, decoded.TableNames())
}

func TestChangeSetHelpers(t *testing.T) {
	cs := &ChangeSet{Added: []string{"b"}, Modified: []string{"a"}}
	assert.Equal(t, []string{"a", "b"}, cs.Changed())
	assert.False(t, cs.Empty())
	assert.True(t, (&ChangeSet{Unchanged: []string{"x"}}).Empty())
}
