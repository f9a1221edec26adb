package dataset

import (
	"os"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

func (l *Loader) readCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.NewLoadError(path, err)
	}
	defer f.Close()

	opts := append(l.loadOptions(), dataframe.WithDelimiter(l.delimiter))
	df := dataframe.ReadCSV(f, opts...)
	if df.Err != nil {
		return dataframe.DataFrame{}, dataFrameErr(path, df.Err)
	}
	return df, nil
}
