// Package housingeda is a data-preparation and modeling pipeline for tabular
// housing sale records.
//
// A run loads a CSV or XLSX file, cleans it, derives features, optionally
// renders exploratory plots, segments homes with k-means and fits an ordinary
// least-squares baseline of the sale price. Every stage takes a table and
// returns a new one; randomized steps are seeded so repeated runs on the same
// input give identical results.
//
// # Installation
//
//	go install github.com/YuminosukeSato/housingeda/cmd/housingeda@latest
//
// # Quick Start
//
// Running the whole pipeline from code:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/housingeda/config"
//	    "github.com/YuminosukeSato/housingeda/pipeline"
//	)
//
//	func main() {
//	    cfg := config.Default()
//	    cfg.DataPath = "data/train.csv"
//
//	    out, err := pipeline.Run(context.Background(), cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("R² (test):", out.Baseline.R2Test)
//	}
//
// Stages can also be used on their own:
//
//	t, err := dataset.Load("data/train.csv")
//	t, err = preprocessing.Clean(t)
//	t, err = features.Engineer(t)
//	t, err = clustering.ClusterHomes(t, []string{"GrLivArea", "BathsTotal"}, "SalePrice", 4)
//	res, err := baseline.TrainBaseline(t, []string{"GrLivArea", "BathsTotal", "GarageCars"}, "SalePrice")
//
// # Packages
//
//   - dataset: CSV and XLSX loading into a table
//   - preprocessing: duplicate removal, absence tokens, median imputation
//   - features: derived columns (PricePerSF, AgeAtSale, RemodelAge, BathsTotal)
//   - clustering: k-means market segments
//   - baseline: linear baseline with holdout evaluation
//   - report: exploratory plots
//   - pipeline: end-to-end orchestration
//   - config: YAML and environment configuration
//   - linear, metrics, sklearn/cluster, sklearn/model_selection: estimators and evaluation
//   - core/table, core/model, core/parallel: data model and shared building blocks
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// # Errors
//
// Every failure belongs to a documented kind (InvalidInputError,
// MissingColumnError, NoValidFeaturesError, ...). Use errors.As to inspect it,
// or errors.Code for a stable string code.
package housingeda
