// Package clustering groups homes into market segments with k-means and
// appends the segment label to the table.
package clustering

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
	"github.com/YuminosukeSato/housingeda/preprocessing"
	"github.com/YuminosukeSato/housingeda/sklearn/cluster"
)

const opCluster = "cluster_homes"

// Defaults.
const (
	DefaultRandomState int64 = 42
	DefaultMaxIter           = 300
	DefaultNInit             = 1
	DefaultLabelColumn       = "Cluster"
	MinClusters              = 2
)

// Summary describes a finished partition.
type Summary struct {
	K           int
	LabelColumn string
	Features    []string
	Ignored     []string
	// Sizes maps cluster label to the number of rows in it.
	Sizes map[int]int
	// TargetMedian maps cluster label to the median target value of its rows.
	TargetMedian map[int]float64
	Centers      [][]float64
	Inertia      float64
	Iterations   int
	// Standardized reports whether features were scaled to unit variance
	// before clustering. Centers are always in the original units.
	Standardized bool
}

// Labels returns the cluster labels in ascending order.
func (s *Summary) Labels() []int {
	labels := make([]int, 0, len(s.Sizes))
	for l := range s.Sizes {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}

// Partitioner assigns every row of a table to one of k clusters.
type Partitioner struct {
	logger      log.Logger
	randomState int64
	maxIter     int
	nInit       int
	labelColumn string
	standardize bool
}

// Option configures a Partitioner.
type Option func(*Partitioner)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Partitioner) {
		p.logger = logger
	}
}

// WithRandomState sets the k-means seed.
func WithRandomState(seed int64) Option {
	return func(p *Partitioner) {
		p.randomState = seed
	}
}

// WithMaxIter sets the iteration limit of one k-means run.
func WithMaxIter(n int) Option {
	return func(p *Partitioner) {
		p.maxIter = n
	}
}

// WithNInit sets how many seeded initialisations are tried.
func WithNInit(n int) Option {
	return func(p *Partitioner) {
		p.nInit = n
	}
}

// WithLabelColumn sets the name of the appended label column.
func WithLabelColumn(name string) Option {
	return func(p *Partitioner) {
		p.labelColumn = name
	}
}

// WithStandardize scales every feature to zero mean and unit variance before
// clustering, so large-valued features such as areas do not dominate.
func WithStandardize(on bool) Option {
	return func(p *Partitioner) {
		p.standardize = on
	}
}

// NewPartitioner creates a Partitioner.
func NewPartitioner(opts ...Option) *Partitioner {
	p := &Partitioner{
		randomState: DefaultRandomState,
		maxIter:     DefaultMaxIter,
		nInit:       DefaultNInit,
		labelColumn: DefaultLabelColumn,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("ClusterPartitioner")
	}
	return p
}

// ClusterHomes partitions t with the default Partitioner.
func ClusterHomes(t *table.Table, features []string, target string, k int) (*table.Table, error) {
	return NewPartitioner().ClusterHomes(t, features, target, k)
}

// ClusterHomes returns a copy of t with a cluster label column appended.
func (p *Partitioner) ClusterHomes(t *table.Table, features []string, target string, k int) (*table.Table, error) {
	out, _, err := p.Partition(t, features, target, k)
	return out, err
}

// Partition returns a copy of t with a numeric cluster label column
// (replacing one of the same name) and a summary of the clusters.
// Requested features missing from t are ignored with a warning.
func (p *Partitioner) Partition(t *table.Table, features []string, target string, k int) (*table.Table, *Summary, error) {
	if t == nil {
		return nil, nil, errors.NewInvalidInputError(opCluster, "table is nil")
	}
	if t.Empty() {
		return nil, nil, errors.NewInvalidInputError(opCluster, "cannot cluster an empty table")
	}
	if len(features) == 0 {
		return nil, nil, errors.NewInvalidParameterError(opCluster, "features", "must be a non-empty list", features)
	}
	if k < MinClusters {
		return nil, nil, errors.NewInvalidParameterError(opCluster, "k",
			fmt.Sprintf("number of clusters must be at least %d", MinClusters), k)
	}
	if t.Len() < k {
		return nil, nil, errors.NewInvalidParameterError(opCluster, "k",
			fmt.Sprintf("cannot create %d clusters with only %d data points", k, t.Len()), k)
	}

	valid, invalid := table.ResolveFeatures(t, features)
	if len(invalid) > 0 {
		log.Warning(p.logger, errors.NewIgnoredFeaturesWarning(opCluster, invalid))
	}
	if len(valid) == 0 {
		return nil, nil, errors.NewNoValidFeaturesError(opCluster, features, t.Names())
	}
	if !t.Has(target) {
		return nil, nil, errors.NewMissingColumnError(opCluster, []string{target}, t.Names())
	}
	for _, f := range valid {
		if !t.IsNumeric(f) {
			return nil, nil, errors.NewInvalidParameterError(opCluster, "features",
				fmt.Sprintf("feature %q is categorical", f), f)
		}
	}

	X, err := p.featureMatrix(t, valid)
	if err != nil {
		return nil, nil, err
	}
	var scaler *preprocessing.StandardScaler
	if p.standardize {
		scaler = preprocessing.NewStandardScaler()
		if X, err = scaler.FitTransform(X); err != nil {
			return nil, nil, errors.NewOperationError("clustering", err)
		}
	}

	km := cluster.NewKMeans(
		cluster.WithNClusters(k),
		cluster.WithRandomState(p.randomState),
		cluster.WithMaxIter(p.maxIter),
		cluster.WithNInit(p.nInit),
		cluster.WithWarningHandler(func(w error) { log.Warning(p.logger, w) }),
	)
	err = errors.SafeExecute("k-means fit", func() error {
		return km.Fit(X)
	})
	if err != nil {
		if errors.IsClassified(err) {
			return nil, nil, err
		}
		return nil, nil, errors.NewOperationError("clustering", err)
	}

	labels := km.Labels()
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = float64(l)
	}
	out, err := t.WithColumn(table.NewNumeric(p.labelColumn, values))
	if err != nil {
		return nil, nil, errors.NewOperationError("clustering", err)
	}

	summary := &Summary{
		K:            k,
		LabelColumn:  p.labelColumn,
		Features:     valid,
		Ignored:      invalid,
		Sizes:        make(map[int]int, k),
		TargetMedian: targetMedians(t, target, labels),
		Centers:      km.ClusterCenters(),
		Inertia:      km.Inertia(),
		Iterations:   km.NIterations(),
		Standardized: scaler != nil,
	}
	if scaler != nil {
		if summary.Centers, err = originalUnits(scaler, summary.Centers); err != nil {
			return nil, nil, errors.NewOperationError("clustering", err)
		}
	}
	for _, l := range labels {
		summary.Sizes[l]++
	}

	p.logger.Info("Clustering complete",
		log.ClustersKey, k,
		log.FeaturesUsedKey, valid,
		log.ClusterSizesKey, summary.Sizes,
		log.InertiaKey, summary.Inertia,
		log.IterationKey, summary.Iterations,
	)
	return out, summary, nil
}

// featureMatrix builds the n×f matrix of the features with missing values
// replaced by the column median, or 0 when a column has no observations.
func (p *Partitioner) featureMatrix(t *table.Table, features []string) (*mat.Dense, error) {
	raw := mat.NewDense(t.Len(), len(features), nil)
	for j, f := range features {
		values, err := t.Numeric(f)
		if err != nil {
			return nil, err
		}
		raw.SetCol(j, values)
	}

	X, err := preprocessing.NewMedianImputer(0).FitTransform(raw)
	if err != nil {
		return nil, errors.NewOperationError("clustering", err)
	}
	if missing := preprocessing.MissingColumns(X, features); len(missing) > 0 {
		return nil, errors.NewImputationError(opCluster, missing)
	}
	return X, nil
}

func originalUnits(scaler *preprocessing.StandardScaler, centers [][]float64) ([][]float64, error) {
	if len(centers) == 0 {
		return centers, nil
	}
	scaled := mat.NewDense(len(centers), len(centers[0]), nil)
	for i, c := range centers {
		scaled.SetRow(i, c)
	}
	orig, err := scaler.InverseTransform(scaled)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(centers))
	for i := range out {
		out[i] = mat.Row(nil, i, orig)
	}
	return out, nil
}

func targetMedians(t *table.Table, target string, labels []int) map[int]float64 {
	if !t.IsNumeric(target) {
		return nil
	}
	values, _ := t.Numeric(target)
	groups := make(map[int][]float64)
	for i, l := range labels {
		groups[l] = append(groups[l], values[i])
	}
	medians := make(map[int]float64, len(groups))
	for l, vs := range groups {
		if m, ok := preprocessing.Median(vs); ok {
			medians[l] = m
		}
	}
	return medians
}
