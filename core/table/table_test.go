package table

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

func sample() *Table {
	return MustNew(
		NewNumeric("GrLivArea", []float64{1000, 1500, math.NaN()}),
		NewCategorical("Alley", []string{"Grvl", "", "Pave"}, []bool{true, false, true}),
		NewNumeric("SalePrice", []float64{100000, 150000, 120000}),
	)
}

func TestNewRejectsInvalidShapes(t *testing.T) {
	_, err := New(NewNumeric("a", []float64{1, 2}), NewNumeric("b", []float64{1}))
	var invalid *errors.InvalidInputError
	require.ErrorAs(t, err, &invalid)

	_, err = New(NewNumeric("a", []float64{1}), NewCategorical("a", []string{"x"}, nil))
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), "duplicate column name")
}

func TestTableAccessors(t *testing.T) {
	tbl := sample()

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 3, tbl.Width())
	assert.Equal(t, []string{"GrLivArea", "Alley", "SalePrice"}, tbl.Names())
	assert.Equal(t, []string{"GrLivArea", "SalePrice"}, tbl.NumericNames())
	assert.True(t, tbl.Has("Alley"))
	assert.False(t, tbl.Has("Nope"))
	assert.Nil(t, tbl.Column("Nope"))
	assert.False(t, tbl.Empty())

	var nilTable *Table
	assert.True(t, nilTable.Empty())

	alley := tbl.Column("Alley")
	v, ok := alley.Str(1)
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, 1, alley.MissingCount())
	assert.Equal(t, 1, tbl.Column("GrLivArea").MissingCount())
}

func TestNumeric(t *testing.T) {
	tbl := sample()

	got, err := tbl.Numeric("SalePrice")
	require.NoError(t, err)
	got[0] = -1
	again, _ := tbl.Numeric("SalePrice")
	assert.Equal(t, 100000.0, again[0], "Numeric must return a copy")

	_, err = tbl.Numeric("Missing")
	var missing *errors.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"Missing"}, missing.Columns)

	_, err = tbl.Numeric("Alley")
	var invalid *errors.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestColumnsAreImmutable(t *testing.T) {
	values := []float64{1, 2, 3}
	c := NewNumeric("x", values)
	values[0] = 99
	assert.Equal(t, 1.0, c.Float(0))
}

func TestWithColumn(t *testing.T) {
	tbl := sample()

	added, err := tbl.WithColumn(NewNumeric("Cluster", []float64{0, 1, 0}))
	require.NoError(t, err)
	assert.Equal(t, 4, added.Width())
	assert.Equal(t, 3, tbl.Width(), "input table must be untouched")

	replaced, err := added.WithColumn(NewNumeric("Cluster", []float64{2, 2, 2}))
	require.NoError(t, err)
	assert.Equal(t, added.Names(), replaced.Names())
	assert.Equal(t, 2.0, replaced.Column("Cluster").Float(0))

	_, err = tbl.WithColumn(NewNumeric("Short", []float64{1}))
	var invalid *errors.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestSubsetAndRowKey(t *testing.T) {
	tbl := MustNew(
		NewNumeric("x", []float64{1, math.NaN(), 1, math.NaN()}),
		NewCategorical("c", []string{"a", "", "a", "NA"}, []bool{true, false, true, true}),
	)

	assert.Equal(t, tbl.RowKey(0), tbl.RowKey(2))
	assert.NotEqual(t, tbl.RowKey(1), tbl.RowKey(3), "missing must differ from the literal NA")

	sub := tbl.Subset([]int{2, 0})
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, tbl.Names(), sub.Names())
	s, ok := sub.Column("c").Str(0)
	assert.True(t, ok)
	assert.Equal(t, "a", s)
}

func TestResolveFeatures(t *testing.T) {
	tbl := sample()

	valid, invalid := ResolveFeatures(tbl, []string{"GrLivArea", "Nonexistent", "GrLivArea", "Alley"})
	if diff := cmp.Diff([]string{"GrLivArea", "Alley"}, valid); diff != "" {
		t.Errorf("valid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Nonexistent"}, invalid); diff != "" {
		t.Errorf("invalid mismatch (-want +got):\n%s", diff)
	}

	valid, invalid = ResolveFeatures(tbl, nil)
	assert.Empty(t, valid)
	assert.Empty(t, invalid)
}
