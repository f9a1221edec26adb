// Package pipeline runs the housing analysis end to end:
// load, clean, engineer, plot, cluster and fit the baseline.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/housingeda/baseline"
	"github.com/YuminosukeSato/housingeda/clustering"
	"github.com/YuminosukeSato/housingeda/config"
	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/dataset"
	"github.com/YuminosukeSato/housingeda/features"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
	"github.com/YuminosukeSato/housingeda/preprocessing"
	"github.com/YuminosukeSato/housingeda/report"
)

// Outcome is everything a successful run produced.
type Outcome struct {
	RunID     string
	Table     *table.Table
	Cleaning  preprocessing.CleanReport
	Derived   []string
	Clusters  *clustering.Summary
	Baseline  *baseline.Result
	Artifacts []string
	Duration  time.Duration
}

// Option configures a run.
type Option func(*runner)

// WithProvider sets the logger provider stages obtain their loggers from.
func WithProvider(p log.LoggerProvider) Option {
	return func(r *runner) {
		r.provider = p
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *runner) {
		r.runID = id
	}
}

type runner struct {
	cfg      *config.Config
	provider log.LoggerProvider
	runID    string
	logger   log.Logger
}

// Run executes every stage in order and stops at the first failure. Errors
// from a stage are returned as the stage produced them. ctx is consulted
// between stages; a running stage is never interrupted.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Outcome, error) {
	if cfg == nil {
		return nil, errors.NewInvalidInputError("pipeline", "config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.provider == nil {
		r.provider = log.GetProvider()
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	r.logger = r.provider.GetLoggerWithName("Pipeline").With(log.RunIDKey, r.runID)

	start := time.Now()
	r.logger.Info("Pipeline started",
		log.PathKey, cfg.DataPath,
		log.TargetKey, cfg.Target,
		log.ClustersKey, cfg.Clusters,
		log.RandomSeedKey, cfg.RandomState,
		log.TestSizeKey, cfg.TestSize,
	)

	out, err := r.run(ctx)
	if err != nil {
		r.logger.Error("Pipeline failed", err, log.DurationMsKey, time.Since(start).Milliseconds())
		return nil, err
	}
	out.RunID = r.runID
	out.Duration = time.Since(start)
	r.logger.Info("Pipeline complete",
		log.RowsKey, out.Table.Len(),
		log.ColumnsKey, out.Table.Width(),
		log.R2ScoreKey, out.Baseline.R2Test,
		log.DurationMsKey, out.Duration.Milliseconds(),
	)
	return out, nil
}

func (r *runner) run(ctx context.Context) (*Outcome, error) {
	cfg := r.cfg
	out := &Outcome{}

	if err := r.checkpoint(ctx, log.StageLoad); err != nil {
		return nil, err
	}
	t, err := dataset.NewLoader(dataset.WithLogger(r.stageLogger("Loader", log.StageLoad))).Load(cfg.DataPath)
	if err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx, log.StageClean); err != nil {
		return nil, err
	}
	t, out.Cleaning, err = preprocessing.NewCleaner(
		preprocessing.WithLogger(r.stageLogger("Cleaner", log.StageClean)),
	).CleanWithReport(t)
	if err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx, log.StageFeatures); err != nil {
		return nil, err
	}
	t, out.Derived, err = features.NewEngineer(
		features.WithLogger(r.stageLogger("FeatureEngineer", log.StageFeatures)),
		features.WithTarget(cfg.Target),
	).Derive(t)
	if err != nil {
		return nil, err
	}

	var renderer *report.Renderer
	if cfg.ReportDir != "" {
		if err := r.checkpoint(ctx, log.StageReport); err != nil {
			return nil, err
		}
		renderer = report.NewRenderer(cfg.ReportDir, report.WithLogger(r.stageLogger("ReportRenderer", log.StageReport)))
		artifacts, err := renderer.RenderAll(ctx, t, cfg.Target)
		if err != nil {
			return nil, err
		}
		out.Artifacts = append(out.Artifacts, artifacts...)
	}

	if err := r.checkpoint(ctx, log.StageCluster); err != nil {
		return nil, err
	}
	t, out.Clusters, err = clustering.NewPartitioner(
		clustering.WithLogger(r.stageLogger("ClusterPartitioner", log.StageCluster)),
		clustering.WithRandomState(cfg.RandomState),
		clustering.WithStandardize(cfg.StandardizeClusters),
	).Partition(t, cfg.ClusterFeatures, cfg.Target, cfg.Clusters)
	if err != nil {
		return nil, err
	}
	if renderer != nil {
		path, err := renderer.ClusterPrices(t, out.Clusters.LabelColumn, cfg.Target)
		if err != nil {
			return nil, err
		}
		out.Artifacts = append(out.Artifacts, path)
	}

	if err := r.checkpoint(ctx, log.StageBaseline); err != nil {
		return nil, err
	}
	out.Baseline, err = baseline.NewTrainer(
		baseline.WithLogger(r.stageLogger("BaselineRegressor", log.StageBaseline)),
		baseline.WithRandomState(cfg.RandomState),
		baseline.WithTestSize(cfg.TestSize),
	).TrainBaseline(t, cfg.BaselineFeatures, cfg.Target)
	if err != nil {
		return nil, err
	}

	out.Table = t
	return out, nil
}

func (r *runner) stageLogger(component, stage string) log.Logger {
	return r.provider.GetLoggerWithName(component).With(log.RunIDKey, r.runID, log.StageKey, stage)
}

// checkpoint returns the context error, if any, before stage starts.
func (r *runner) checkpoint(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		r.logger.Warn("Pipeline canceled", log.StageKey, stage)
		return errors.NewOperationError("pipeline "+stage, err)
	}
	return nil
}
