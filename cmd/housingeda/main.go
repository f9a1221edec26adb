// Command housingeda runs the housing analysis pipeline on one data file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/housingeda/baseline"
	"github.com/YuminosukeSato/housingeda/config"
	"github.com/YuminosukeSato/housingeda/pipeline"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
)

var (
	configFile  string
	reportDir   string
	target      string
	clusters    int
	seed        int64
	testSize    float64
	standardize bool
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "housingeda",
	Short: "Exploratory analysis and baseline pricing for housing sales",
	Long: `housingeda loads a table of housing sales (CSV or XLSX), cleans it,
derives features, segments homes with k-means and fits a linear baseline
model of the sale price.

Settings come from an optional YAML file, HOUSING_* environment variables
and the flags below, in increasing order of precedence.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run [data-file]",
	Short: "Run the full pipeline and print the results as JSON",
	Long: `Runs load, clean, feature engineering, optional plotting, clustering and
the baseline regression. The cluster summary and the baseline metrics are
written to stdout as JSON; logs go to stderr.

Example:
  housingeda run data/train.csv --report-dir plots --clusters 4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipeline,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "log format (json, console)")

	runFlags := runCmd.Flags()
	runFlags.StringVar(&reportDir, "report-dir", "", "directory for plots; empty disables plotting")
	runFlags.StringVar(&target, "target", "", "target column")
	runFlags.IntVarP(&clusters, "clusters", "k", 0, "number of clusters")
	runFlags.Int64Var(&seed, "seed", 0, "random seed for clustering and the holdout split")
	runFlags.Float64Var(&testSize, "test-size", 0, "fraction of rows held out for evaluation")
	runFlags.BoolVar(&standardize, "standardize", false, "scale cluster features to unit variance")

	rootCmd.AddCommand(runCmd)
}

// loadConfig resolves the configuration, letting the data file argument and
// explicitly set flags take precedence.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()
	return config.Load(configFile, func(cfg *config.Config) {
		if len(args) > 0 {
			cfg.DataPath = args[0]
		}
		if flags.Changed("report-dir") {
			cfg.ReportDir = reportDir
		}
		if flags.Changed("target") {
			cfg.Target = target
		}
		if flags.Changed("clusters") {
			cfg.Clusters = clusters
		}
		if flags.Changed("seed") {
			cfg.RandomState = seed
		}
		if flags.Changed("test-size") {
			cfg.TestSize = testSize
		}
		if flags.Changed("standardize") {
			cfg.StandardizeClusters = standardize
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-format") {
			cfg.LogFormat = logFormat
		}
	})
}

func newProvider(cfg *config.Config, w io.Writer) (log.LoggerProvider, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := []log.ProviderOption{log.WithWriter(w)}
	if cfg.LogFormat == "console" {
		opts = append(opts, log.WithConsoleFormat())
	}
	return log.NewZerologProvider(level, opts...), nil
}

// summary is the JSON document printed by the run command.
type summary struct {
	RunID     string           `json:"run_id"`
	Rows      int              `json:"rows"`
	Columns   int              `json:"columns"`
	Clusters  []clusterSummary `json:"clusters"`
	Baseline  *baseline.Result `json:"baseline"`
	Artifacts []string         `json:"artifacts,omitempty"`
}

type clusterSummary struct {
	Label       int     `json:"label"`
	Size        int     `json:"size"`
	MedianPrice float64 `json:"median_target"`
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log.SetProvider(provider)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out, err := pipeline.Run(ctx, cfg, pipeline.WithProvider(provider))
	if err != nil {
		return err
	}

	doc := summary{
		RunID:     out.RunID,
		Rows:      out.Table.Len(),
		Columns:   out.Table.Width(),
		Baseline:  out.Baseline,
		Artifacts: out.Artifacts,
	}
	for _, l := range out.Clusters.Labels() {
		doc.Clusters = append(doc.Clusters, clusterSummary{
			Label:       l,
			Size:        out.Clusters.Sizes[l],
			MedianPrice: out.Clusters.TargetMedian[l],
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.Code(err), err)
		os.Exit(1)
	}
}
