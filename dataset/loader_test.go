package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func quietLoader() (*Loader, *log.TestLogger) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return NewLoader(WithLogger(logger)), logger
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "train.csv",
		"Id,GrLivArea,Alley,SalePrice\n"+
			"1,1710,NA,208500\n"+
			"2,1262,Grvl,181500\n"+
			"3,,Pave,223500\n")

	loader, logger := quietLoader()
	tbl, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"Id", "GrLivArea", "Alley", "SalePrice"}, tbl.Names())
	assert.Equal(t, table.Numeric, tbl.Column("GrLivArea").Kind())
	assert.Equal(t, table.Categorical, tbl.Column("Alley").Kind())

	area, err := tbl.Numeric("GrLivArea")
	require.NoError(t, err)
	assert.Equal(t, 1710.0, area[0])
	assert.True(t, math.IsNaN(area[2]), "empty cell must be missing")

	_, ok := tbl.Column("Alley").Str(0)
	assert.False(t, ok, "NA token must be missing")

	assert.True(t, logger.ContainsMessage("Successfully loaded data"))
	assert.True(t, logger.ContainsField(log.RowsKey, 3.0))
	assert.True(t, logger.ContainsField(log.ColumnsKey, 4.0))
}

func TestLoadExtensionIsCaseInsensitive(t *testing.T) {
	path := writeFile(t, "TRAIN.CSV", "a,b\n1,2\n")
	loader, _ := quietLoader()
	tbl, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"GrLivArea", "Fence", "SalePrice"},
		{1710, "MnPrv", 208500},
		{1262},
		{1786, "GdWo", 223500},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	loader, _ := quietLoader()
	tbl, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, table.Numeric, tbl.Column("SalePrice").Kind())
	price, _ := tbl.Numeric("SalePrice")
	assert.True(t, math.IsNaN(price[1]), "short row must be padded with missing values")
	assert.Equal(t, 1, tbl.Column("Fence").MissingCount())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		path  string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing file",
			path: filepath.Join(dir, "nope.csv"),
			check: func(t *testing.T, err error) {
				var target *errors.NotFoundError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "directory",
			path: dir,
			check: func(t *testing.T, err error) {
				var target *errors.NotFoundError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "unsupported extension",
			path: writeFile(t, "data.json", "{}"),
			check: func(t *testing.T, err error) {
				var target *errors.UnsupportedFormatError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, ".json", target.Ext)
			},
		},
		{
			name: "empty file",
			path: writeFile(t, "empty.csv", ""),
			check: func(t *testing.T, err error) {
				var target *errors.EmptyDataError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "header only",
			path: writeFile(t, "header.csv", "a,b,c\n"),
			check: func(t *testing.T, err error) {
				var target *errors.EmptyDataError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "ragged rows",
			path: writeFile(t, "ragged.csv", "a,b\n1,2\n3\n"),
			check: func(t *testing.T, err error) {
				var target *errors.LoadError
				require.ErrorAs(t, err, &target)
				assert.Error(t, target.Unwrap())
			},
		},
		{
			name: "corrupt workbook",
			path: writeFile(t, "broken.xlsx", "not a zip"),
			check: func(t *testing.T, err error) {
				var target *errors.LoadError
				require.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := quietLoader()
			tbl, err := loader.Load(tt.path)
			assert.Nil(t, tbl)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestPadRows(t *testing.T) {
	got := padRows([][]string{{"a", "b", "c"}, {"1"}, {}})
	for _, r := range got {
		assert.Len(t, r, 3)
	}
	assert.Equal(t, []string{"1", "", ""}, got[1])
}
