package dataset

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

// readXLSX reads the first sheet of a workbook. The first row is the header.
func (l *Loader) readXLSX(path string) (dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.NewLoadError(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.DataFrame{}, errors.NewEmptyDataError(opLoad, path, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return dataframe.DataFrame{}, errors.NewLoadError(path, err)
	}
	if len(rows) < 2 {
		return dataframe.DataFrame{}, errors.NewEmptyDataError(opLoad, path, "sheet "+sheets[0]+" has no data rows")
	}

	df := dataframe.LoadRecords(padRows(rows), l.loadOptions()...)
	if df.Err != nil {
		return dataframe.DataFrame{}, dataFrameErr(path, df.Err)
	}
	return df, nil
}

// padRows makes every row as wide as the widest one. GetRows drops trailing
// empty cells, so short rows are common.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		padded := make([]string, width)
		copy(padded, r)
		out[i] = padded
	}
	return out
}
