package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
)

const opClean = "clean_data"

// AbsenceToken is the category written into absence columns where a value is missing.
const AbsenceToken = "NA"

// AbsenceColumns are categorical columns where a missing value means the
// house lacks the feature (no alley, no basement, no pool, ...).
var AbsenceColumns = []string{
	"Alley", "BsmtQual", "BsmtCond", "BsmtExposure", "BsmtFinType1",
	"BsmtFinType2", "FireplaceQu", "GarageType", "GarageFinish",
	"GarageQual", "GarageCond", "PoolQC", "Fence", "MiscFeature",
}

// CleanReport summarizes what a Clean call changed.
type CleanReport struct {
	DuplicatesRemoved int
	CategoricalFilled int
	NumericFilled     int
}

// Cleaner removes duplicate rows and fills missing values.
type Cleaner struct {
	logger         log.Logger
	absenceToken   string
	absenceColumns []string
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) CleanerOption {
	return func(c *Cleaner) {
		c.logger = logger
	}
}

// WithAbsenceToken replaces the category used for absent features.
func WithAbsenceToken(token string) CleanerOption {
	return func(c *Cleaner) {
		c.absenceToken = token
	}
}

// WithAbsenceColumns replaces the list of absence columns.
func WithAbsenceColumns(columns []string) CleanerOption {
	return func(c *Cleaner) {
		c.absenceColumns = append([]string(nil), columns...)
	}
}

// NewCleaner creates a Cleaner with the default absence columns and token.
func NewCleaner(opts ...CleanerOption) *Cleaner {
	c := &Cleaner{
		absenceToken:   AbsenceToken,
		absenceColumns: AbsenceColumns,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("Cleaner")
	}
	return c
}

// Clean cleans t with the default Cleaner.
func Clean(t *table.Table) (*table.Table, error) {
	return NewCleaner().Clean(t)
}

// Clean returns a cleaned copy of t. See CleanWithReport.
func (c *Cleaner) Clean(t *table.Table) (*table.Table, error) {
	out, _, err := c.CleanWithReport(t)
	return out, err
}

// CleanWithReport returns a cleaned copy of t:
//
//  1. duplicate rows are dropped, keeping the first occurrence;
//  2. missing values in absence columns become the absence token;
//  3. missing values in numeric columns become the column median.
//
// Numeric columns without any observed value are left as they are. Rows that
// only become identical through filling are dropped afterwards, so cleaning
// a cleaned table changes nothing. The row count can therefore be lower than
// that of a cleaner that deduplicates only before filling.
func (c *Cleaner) CleanWithReport(t *table.Table) (*table.Table, CleanReport, error) {
	var report CleanReport
	if t == nil {
		return nil, report, errors.NewInvalidInputError(opClean, "table is nil")
	}
	if t.Empty() {
		return nil, report, errors.NewInvalidInputError(opClean, "table is empty")
	}

	out, removed := dropDuplicates(t)
	report.DuplicatesRemoved = removed

	cols := out.Columns()
	for i, col := range cols {
		if !c.isAbsenceColumn(col.Name()) || col.MissingCount() == 0 {
			continue
		}
		cols[i] = fillCategorical(col, c.absenceToken)
		report.CategoricalFilled++
	}

	for i, col := range cols {
		if col.Kind() != table.Numeric || col.MissingCount() == 0 {
			continue
		}
		values := col.Floats()
		med, ok := Median(values)
		if !ok {
			continue
		}
		for j, v := range values {
			if math.IsNaN(v) {
				values[j] = med
			}
		}
		cols[i] = table.NewNumeric(col.Name(), values)
		report.NumericFilled++
	}

	filled, err := table.New(cols...)
	if err != nil {
		return nil, report, errors.NewOperationError("cleaning", err)
	}
	filled, removed = dropDuplicates(filled)
	report.DuplicatesRemoved += removed

	if report.DuplicatesRemoved > 0 {
		c.logger.Info("Removed duplicate rows", log.DuplicatesKey, report.DuplicatesRemoved)
	}
	c.logger.Info("Data cleaned",
		"categorical_filled", report.CategoricalFilled,
		"numeric_filled", report.NumericFilled,
		log.RowsKey, filled.Len(),
		log.ColumnsKey, filled.Width(),
	)
	return filled, report, nil
}

func (c *Cleaner) isAbsenceColumn(name string) bool {
	for _, n := range c.absenceColumns {
		if n == name {
			return true
		}
	}
	return false
}

// dropDuplicates keeps the first row of every distinct RowKey.
func dropDuplicates(t *table.Table) (*table.Table, int) {
	seen := make(map[string]struct{}, t.Len())
	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	removed := t.Len() - len(keep)
	if removed == 0 {
		return t, 0
	}
	return t.Subset(keep), removed
}

// fillCategorical returns col as a categorical column with missing values
// replaced by token. Numeric columns are converted value by value.
func fillCategorical(col *table.Column, token string) *table.Column {
	n := col.Len()
	values := make([]string, n)
	for i := 0; i < n; i++ {
		s, ok := col.Str(i)
		if !ok {
			s = token
		}
		values[i] = s
	}
	return table.NewCategorical(col.Name(), values, nil)
}
