// Package dataset reads housing data files into a table.Table.
//
// Two formats are supported, chosen by file extension: delimited text (.csv)
// parsed with gota, and spreadsheets (.xlsx) read with excelize. Both paths
// share gota's type detection, so a column of integers or floats becomes a
// numeric column and anything else becomes categorical.
package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
)

const opLoad = "load_data"

// Format identifies a supported input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SupportedExtensions lists the accepted file extensions.
var SupportedExtensions = []string{".csv", ".xlsx"}

// DefaultNAValues are the tokens read as missing values.
var DefaultNAValues = []string{"", "NA", "NaN", "N/A", "null", "<nil>"}

// Loader reads data files into tables.
type Loader struct {
	logger    log.Logger
	naValues  []string
	delimiter rune
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load messages.
func WithLogger(logger log.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithNAValues replaces the tokens read as missing values.
func WithNAValues(values []string) Option {
	return func(l *Loader) {
		l.naValues = append([]string(nil), values...)
	}
}

// WithDelimiter sets the field delimiter of delimited text files.
func WithDelimiter(r rune) Option {
	return func(l *Loader) {
		l.delimiter = r
	}
}

// NewLoader creates a Loader with the default NA tokens and a comma delimiter.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		naValues:  DefaultNAValues,
		delimiter: ',',
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.GetLoggerWithName("Loader")
	}
	return l
}

// Load reads the file at path with the default Loader.
func Load(path string) (*table.Table, error) {
	return NewLoader().Load(path)
}

// DetectFormat maps a file extension, case-insensitively, to a Format.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", errors.NewUnsupportedFormatError(opLoad, path, ext, SupportedExtensions)
	}
}

// Load reads the file at path.
func (l *Loader) Load(path string) (*table.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(opLoad, path)
		}
		return nil, errors.NewLoadError(path, err)
	}
	if info.IsDir() {
		return nil, errors.NewNotFoundError(opLoad, path)
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Loading data", log.PathKey, path, log.FormatKey, string(format))

	var df dataframe.DataFrame
	switch format {
	case FormatCSV:
		df, err = l.readCSV(path)
	case FormatXLSX:
		df, err = l.readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	t, err := fromDataFrame(df)
	if err != nil {
		return nil, errors.NewLoadError(path, err)
	}
	if t.Empty() {
		return nil, errors.NewEmptyDataError(opLoad, path, "no data rows")
	}

	l.logger.Info("Successfully loaded data",
		log.PathKey, path,
		log.RowsKey, t.Len(),
		log.ColumnsKey, t.Width(),
	)
	return t, nil
}

func (l *Loader) loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(l.naValues),
	}
}

// dataFrameErr classifies a gota load failure.
func dataFrameErr(path string, err error) error {
	if strings.Contains(err.Error(), "empty DataFrame") {
		return errors.NewEmptyDataError(opLoad, path, "file has no data rows")
	}
	return errors.NewLoadError(path, err)
}
