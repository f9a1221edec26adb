// Package features derives housing-specific numeric columns from raw ones.
//
// Every derived column is optional: it is created only when all of its input
// columns are present and numeric, and missing inputs propagate as NaN.
package features

import (
	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
)

const opEngineer = "engineer_features"

// Names of derived columns.
const (
	PricePerSF = "PricePerSF"
	AgeAtSale  = "AgeAtSale"
	RemodelAge = "RemodelAge"
	BathsTotal = "BathsTotal"
)

// Names of raw columns the derivations read.
const (
	SalePrice    = "SalePrice"
	GrLivArea    = "GrLivArea"
	YrSold       = "YrSold"
	YearBuilt    = "YearBuilt"
	YearRemodAdd = "YearRemodAdd"
	FullBath     = "FullBath"
	HalfBath     = "HalfBath"
)

// derivation computes one output value from its inputs, in input order.
type derivation struct {
	name   string
	inputs []string
	fn     func(in []float64) float64
}

func (e *FeatureEngineer) derivations() []derivation {
	return []derivation{
		{
			name:   PricePerSF,
			inputs: []string{e.target, GrLivArea},
			fn: func(in []float64) float64 {
				// NaN area is not > 0 either.
				if !(in[1] > 0) {
					return 0
				}
				return in[0] / in[1]
			},
		},
		{
			name:   AgeAtSale,
			inputs: []string{YrSold, YearBuilt},
			fn:     func(in []float64) float64 { return in[0] - in[1] },
		},
		{
			name:   RemodelAge,
			inputs: []string{YrSold, YearRemodAdd},
			fn:     func(in []float64) float64 { return in[0] - in[1] },
		},
		{
			name:   BathsTotal,
			inputs: []string{FullBath, HalfBath},
			fn:     func(in []float64) float64 { return in[0] + 0.5*in[1] },
		},
	}
}

// FeatureEngineer adds derived columns to a table.
type FeatureEngineer struct {
	logger log.Logger
	target string
}

// Option configures a FeatureEngineer.
type Option func(*FeatureEngineer)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(e *FeatureEngineer) {
		e.logger = logger
	}
}

// WithTarget sets the price column used for PricePerSF. Defaults to SalePrice.
func WithTarget(target string) Option {
	return func(e *FeatureEngineer) {
		e.target = target
	}
}

// NewEngineer creates a FeatureEngineer.
func NewEngineer(opts ...Option) *FeatureEngineer {
	e := &FeatureEngineer{target: SalePrice}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName("FeatureEngineer")
	}
	return e
}

// Engineer derives features with the default FeatureEngineer.
func Engineer(t *table.Table) (*table.Table, error) {
	out, _, err := NewEngineer().Derive(t)
	return out, err
}

// Engineer returns a copy of t with every derivable feature added.
func (e *FeatureEngineer) Engineer(t *table.Table) (*table.Table, error) {
	out, _, err := e.Derive(t)
	return out, err
}

// Derive returns a copy of t with every derivable feature added, and the
// names of the features it created. A feature whose inputs are absent or
// categorical is skipped. Only a nil or empty table is an error.
func (e *FeatureEngineer) Derive(t *table.Table) (*table.Table, []string, error) {
	if t == nil {
		return nil, nil, errors.NewInvalidInputError(opEngineer, "table is nil")
	}
	if t.Empty() {
		return nil, nil, errors.NewInvalidInputError(opEngineer, "table is empty")
	}

	out := t
	var created []string
	for _, d := range e.derivations() {
		inputs, ok := numericInputs(t, d.inputs)
		if !ok {
			e.logger.Debug("Skipping feature with missing inputs", "feature", d.name, "inputs", d.inputs)
			continue
		}

		values := make([]float64, t.Len())
		row := make([]float64, len(inputs))
		for i := range values {
			for j, in := range inputs {
				row[j] = in[i]
			}
			values[i] = d.fn(row)
		}

		next, err := out.WithColumn(table.NewNumeric(d.name, values))
		if err != nil {
			return nil, nil, errors.NewOperationError("feature engineering", err)
		}
		out = next
		created = append(created, d.name)
	}

	if len(created) == 0 {
		e.logger.Warn("No derived features could be created", log.ColumnsKey, t.Width())
	} else {
		e.logger.Info("Created features", log.FeaturesAddedKey, created)
	}
	return out, created, nil
}

func numericInputs(t *table.Table, names []string) ([][]float64, bool) {
	inputs := make([][]float64, len(names))
	for i, name := range names {
		if !t.IsNumeric(name) {
			return nil, false
		}
		inputs[i], _ = t.Numeric(name)
	}
	return inputs, true
}
