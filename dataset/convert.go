package dataset

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/housingeda/core/table"
)

// fromDataFrame converts a gota DataFrame into a Table. Int and float series
// become numeric columns; string and bool series become categorical.
func fromDataFrame(df dataframe.DataFrame) (*table.Table, error) {
	names := df.Names()
	cols := make([]*table.Column, 0, len(names))
	for _, name := range names {
		s := df.Col(name)
		if s.Err != nil {
			return nil, s.Err
		}
		switch s.Type() {
		case series.Int, series.Float:
			cols = append(cols, table.NewNumeric(name, s.Float()))
		default:
			records := s.Records()
			missing := s.IsNaN()
			valid := make([]bool, len(records))
			for i := range records {
				valid[i] = !missing[i]
				if missing[i] {
					records[i] = ""
				}
			}
			cols = append(cols, table.NewCategorical(name, records, valid))
		}
	}
	return table.New(cols...)
}
