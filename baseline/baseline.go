// Package baseline fits and evaluates the ordinary least-squares sale price
// model that later models are compared against.
package baseline

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/linear"
	"github.com/YuminosukeSato/housingeda/metrics"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
	"github.com/YuminosukeSato/housingeda/preprocessing"
	"github.com/YuminosukeSato/housingeda/sklearn/model_selection"
)

const opBaseline = "train_baseline"

// Defaults.
const (
	DefaultRandomState int64 = 42
	DefaultTestSize          = 0.2
)

// Result holds the evaluation of one baseline fit. Scores are rounded to 4
// decimals; errors, coefficients and the intercept to 2.
type Result struct {
	R2Train         float64            `json:"R2_train"`
	R2Test          float64            `json:"R2_test"`
	MAE             float64            `json:"MAE"`
	RMSE            float64            `json:"RMSE"`
	Intercept       float64            `json:"Intercept"`
	Coefficients    map[string]float64 `json:"Feature_Coefficients"`
	FeaturesUsed    []string           `json:"Features_Used"`
	FeaturesIgnored []string           `json:"Features_Ignored,omitempty"`
	TrainingSamples int                `json:"Training_Samples"`
	TestSamples     int                `json:"Test_Samples"`
}

// Trainer fits the baseline model.
type Trainer struct {
	logger      log.Logger
	randomState int64
	testSize    float64
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(tr *Trainer) {
		tr.logger = logger
	}
}

// WithRandomState sets the seed of the holdout split.
func WithRandomState(seed int64) Option {
	return func(tr *Trainer) {
		tr.randomState = seed
	}
}

// WithTestSize sets the fraction of rows held out for evaluation.
func WithTestSize(size float64) Option {
	return func(tr *Trainer) {
		tr.testSize = size
	}
}

// NewTrainer creates a Trainer with an 80/20 split seeded with 42.
func NewTrainer(opts ...Option) *Trainer {
	tr := &Trainer{
		randomState: DefaultRandomState,
		testSize:    DefaultTestSize,
	}
	for _, opt := range opts {
		opt(tr)
	}
	if tr.logger == nil {
		tr.logger = log.GetLoggerWithName("BaselineRegressor")
	}
	return tr
}

// TrainBaseline trains with the default Trainer.
func TrainBaseline(t *table.Table, features []string, target string) (*Result, error) {
	return NewTrainer().TrainBaseline(t, features, target)
}

// TrainBaseline fits target on features and evaluates the fit on a seeded
// holdout. Rows with a missing target are dropped; missing feature values are
// filled with the column median over the remaining rows, or 0 when a column
// has no observations. Requested features missing from t are ignored with a
// warning.
func (tr *Trainer) TrainBaseline(t *table.Table, features []string, target string) (*Result, error) {
	if t == nil {
		return nil, errors.NewInvalidInputError(opBaseline, "table is nil")
	}
	if t.Empty() {
		return nil, errors.NewInvalidInputError(opBaseline, "cannot train model on an empty table")
	}
	if len(features) == 0 {
		return nil, errors.NewInvalidParameterError(opBaseline, "features", "must be a non-empty list", features)
	}
	if !t.Has(target) {
		return nil, errors.NewMissingColumnError(opBaseline, []string{target}, t.Names())
	}

	valid, invalid := table.ResolveFeatures(t, features)
	if len(invalid) > 0 {
		log.Warning(tr.logger, errors.NewIgnoredFeaturesWarning(opBaseline, invalid))
	}
	if len(valid) == 0 {
		return nil, errors.NewNoValidFeaturesError(opBaseline, features, t.Names())
	}
	if !t.IsNumeric(target) {
		return nil, errors.NewInvalidParameterError(opBaseline, "target",
			fmt.Sprintf("target %q is categorical", target), target)
	}
	for _, f := range valid {
		if !t.IsNumeric(f) {
			return nil, errors.NewInvalidParameterError(opBaseline, "features",
				fmt.Sprintf("feature %q is categorical", f), f)
		}
	}

	X, y, err := designMatrix(t, valid, target)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := model_selection.TrainTestSplit(y.Len(), tr.testSize, tr.randomState)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := takeRows(X, y, trainIdx)
	xTest, yTest := takeRows(X, y, testIdx)

	start := time.Now()
	var result *Result
	err = errors.SafeExecute("baseline fit", func() error {
		var ferr error
		result, ferr = fitAndEvaluate(xTrain, yTrain, xTest, yTest, valid)
		return ferr
	})
	if err != nil {
		return nil, errors.NewTrainingError(opBaseline, valid, err)
	}
	result.FeaturesIgnored = invalid
	result.TrainingSamples = len(trainIdx)
	result.TestSamples = len(testIdx)

	tr.logger.Info("Baseline model training complete",
		log.FeaturesUsedKey, valid,
		log.R2ScoreKey, result.R2Test,
		"metrics.r2_train", result.R2Train,
		log.MAEKey, result.MAE,
		log.RMSEKey, result.RMSE,
		log.SamplesKey, result.TrainingSamples+result.TestSamples,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// designMatrix returns the imputed feature matrix and target vector over the
// rows whose target is present.
func designMatrix(t *table.Table, features []string, target string) (*mat.Dense, *mat.VecDense, error) {
	yAll, err := t.Numeric(target)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]int, 0, len(yAll))
	for i, v := range yAll {
		if !math.IsNaN(v) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, nil, errors.NewEmptyDataError(opBaseline, target, "No valid target values found")
	}

	raw := mat.NewDense(len(rows), len(features), nil)
	for j, f := range features {
		values, err := t.Numeric(f)
		if err != nil {
			return nil, nil, err
		}
		for i, r := range rows {
			raw.Set(i, j, values[r])
		}
	}
	y := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		y.SetVec(i, yAll[r])
	}

	X, err := preprocessing.NewMedianImputer(0).FitTransform(raw)
	if err != nil {
		return nil, nil, errors.NewTrainingError(opBaseline, features, err)
	}
	if missing := preprocessing.MissingColumns(X, features); len(missing) > 0 {
		return nil, nil, errors.NewImputationError(opBaseline, missing)
	}
	return X, y, nil
}

func takeRows(X *mat.Dense, y *mat.VecDense, idx []int) (*mat.Dense, *mat.VecDense) {
	_, c := X.Dims()
	xs := mat.NewDense(len(idx), c, nil)
	ys := mat.NewVecDense(len(idx), nil)
	for i, r := range idx {
		xs.SetRow(i, X.RawRowView(r))
		ys.SetVec(i, y.AtVec(r))
	}
	return xs, ys
}

func fitAndEvaluate(xTrain *mat.Dense, yTrain *mat.VecDense, xTest *mat.Dense, yTest *mat.VecDense, features []string) (*Result, error) {
	lr := linear.NewLinearRegression()
	if err := lr.Fit(xTrain, yTrain); err != nil {
		return nil, err
	}

	predTrain, err := lr.Predict(xTrain)
	if err != nil {
		return nil, err
	}
	predTest, err := lr.Predict(xTest)
	if err != nil {
		return nil, err
	}

	r2Train, err := metrics.R2Score(yTrain, predTrain)
	if err != nil {
		return nil, err
	}
	test, err := metrics.Evaluate(yTest, predTest)
	if err != nil {
		return nil, err
	}

	coef := lr.Coefficients()
	coefficients := make(map[string]float64, len(features))
	for j, f := range features {
		coefficients[f] = metrics.Round(coef[j], 2)
	}

	return &Result{
		R2Train:      metrics.Round(r2Train, 4),
		R2Test:       metrics.Round(test.R2, 4),
		MAE:          metrics.Round(test.MAE, 2),
		RMSE:         metrics.Round(test.RMSE, 2),
		Intercept:    metrics.Round(lr.Intercept(), 2),
		Coefficients: coefficients,
		FeaturesUsed: features,
	}, nil
}
