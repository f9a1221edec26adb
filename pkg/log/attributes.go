// Package log defines standard attribute keys for pipeline logging.
//
// Keys follow a hierarchical naming convention (e.g. "data.rows",
// "pipeline.stage") so that a run can be filtered by stage or metric.

package log

// Run and Stage Context
const (
	// RunIDKey identifies one execution of the pipeline.
	RunIDKey = "run.id"

	// StageKey names the pipeline stage emitting the record.
	// Standard values are the Stage* constants below.
	StageKey = "pipeline.stage"

	// ComponentKey identifies which component is logging.
	// Set automatically by GetLoggerWithName.
	ComponentKey = "component"

	// ModelNameKey identifies the estimator type.
	// Examples: "KMeans", "LinearRegression"
	ModelNameKey = "model.name"

	// OperationKey specifies the estimator operation being performed.
	OperationKey = "ml.operation"
)

// Data Shape and Characteristics
const (
	// PathKey records the data file being read or the artifact being written.
	PathKey = "data.path"

	// FormatKey records the detected input format ("csv" or "xlsx").
	FormatKey = "data.format"

	// RowsKey indicates the number of rows in a table.
	RowsKey = "data.rows"

	// ColumnsKey indicates the number of columns in a table.
	ColumnsKey = "data.columns"

	// SamplesKey indicates the number of samples handed to an estimator.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features handed to an estimator.
	FeaturesKey = "data.features"

	// TargetKey names the target column.
	TargetKey = "data.target"

	// DuplicatesKey records how many duplicate rows were removed.
	DuplicatesKey = "data.duplicates_removed"

	// FeaturesUsedKey lists the features a stage actually used.
	FeaturesUsedKey = "features.used"

	// FeaturesIgnoredKey lists requested features that were not present.
	FeaturesIgnoredKey = "features.ignored"

	// FeaturesAddedKey lists derived features added by feature engineering.
	FeaturesAddedKey = "features.added"
)

// Performance and Model Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// MAEKey records mean absolute error.
	MAEKey = "metrics.mae"

	// RMSEKey records root mean squared error.
	RMSEKey = "metrics.rmse"

	// ClustersKey records the requested number of clusters.
	ClustersKey = "clusters.k"

	// ClusterSizesKey records the number of rows in each cluster.
	ClusterSizesKey = "clusters.sizes"

	// InertiaKey records the k-means objective of the selected run.
	InertiaKey = "clusters.inertia"

	// IterationKey records the number of iterations an iterative algorithm ran.
	IterationKey = "training.iteration"

	// ArtifactKey records a rendered report artifact.
	ArtifactKey = "report.artifact"
)

// Error and Warning Context
const (
	// ErrorKey holds the error value itself.
	ErrorKey = "error"

	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Values are the Code* constants of pkg/errors.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information for debugging.
	// Automatically populated when an error field is logged.
	StacktraceKey = "error.stacktrace"

	// WarningTypeKey records the Go type of a warning routed through errors.Warn.
	WarningTypeKey = "warning.type"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// TestSizeKey records the held-out fraction of the train/test split.
	TestSizeKey = "config.test_size"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"

	StageLoad     = "load"
	StageClean    = "clean"
	StageFeatures = "features"
	StageReport   = "report"
	StageCluster  = "cluster"
	StageBaseline = "baseline"
)
