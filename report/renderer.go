// Package report renders exploratory plots of a housing table.
//
// Every plot is a read-only consumer: it validates its inputs, writes one PNG
// into the output directory and returns the file path. Nothing it computes
// flows back into the pipeline.
package report

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/pkg/log"
)

// Default plot settings.
const (
	DefaultTarget      = "SalePrice"
	DefaultSizeFeature = "GrLivArea"
	DefaultWidth       = 8 * vg.Inch
	DefaultHeight      = 5 * vg.Inch
	DefaultBins        = 30
)

// Renderer writes plots into a directory.
type Renderer struct {
	dir    string
	logger log.Logger
	width  vg.Length
	height vg.Length
	bins   int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithSize sets the size of every rendered image.
func WithSize(width, height vg.Length) Option {
	return func(r *Renderer) {
		r.width = width
		r.height = height
	}
}

// WithBins sets the number of histogram bins.
func WithBins(n int) Option {
	return func(r *Renderer) {
		r.bins = n
	}
}

// NewRenderer creates a Renderer writing into dir.
func NewRenderer(dir string, opts ...Option) *Renderer {
	r := &Renderer{
		dir:    dir,
		width:  DefaultWidth,
		height: DefaultHeight,
		bins:   DefaultBins,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("ReportRenderer")
	}
	return r
}

// Dir returns the output directory.
func (r *Renderer) Dir() string { return r.dir }

// RenderAll renders the standard exploratory set for target concurrently and
// returns the written files in sorted order. Plots whose columns are absent
// from t are skipped; the first failing plot cancels the rest.
func (r *Renderer) RenderAll(ctx context.Context, t *table.Table, target string) ([]string, error) {
	if err := checkTable("render_reports", t); err != nil {
		return nil, err
	}

	jobs := []func() ([]string, error){
		func() ([]string, error) { return one(r.Distribution(t, target)) },
		func() ([]string, error) { return one(r.CorrelationWithTarget(t, target)) },
	}
	if t.Has(DefaultSizeFeature) {
		jobs = append(jobs, func() ([]string, error) { return one(r.SizeVsPrice(t, DefaultSizeFeature, target)) })
	}
	if t.Has(YrSold) && t.Has(MoSold) && target == DefaultTarget {
		jobs = append(jobs, func() ([]string, error) { return r.MarketTrends(t) })
	}

	results := make([][]string, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			paths, err := job()
			if err != nil {
				return err
			}
			results[i] = paths
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var artifacts []string
	for _, paths := range results {
		artifacts = append(artifacts, paths...)
	}
	sort.Strings(artifacts)
	return artifacts, nil
}

func one(path string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// save writes p to name inside the output directory.
func (r *Renderer) save(op string, p *plot.Plot, name string) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", errors.NewOperationError(op, err)
	}
	path := filepath.Join(r.dir, fileName(name))
	err := errors.SafeExecute(op, func() error {
		return p.Save(r.width, r.height, path)
	})
	if err != nil {
		return "", errors.NewOperationError(op, err)
	}
	r.logger.Info("Plot rendered", log.ArtifactKey, path)
	return path, nil
}

func fileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	return name + ".png"
}

func checkTable(op string, t *table.Table) error {
	if t == nil {
		return errors.NewInvalidInputError(op, "table is nil")
	}
	if t.Empty() {
		return errors.NewInvalidInputError(op, "cannot plot an empty table")
	}
	return nil
}

// numericColumn returns the values of a numeric column of t.
func numericColumn(op string, t *table.Table, name string) ([]float64, error) {
	if !t.Has(name) {
		return nil, errors.NewMissingColumnError(op, []string{name}, t.Names())
	}
	if !t.IsNumeric(name) {
		return nil, errors.NewInvalidParameterError(op, "column", "column must be numeric", name)
	}
	return t.Numeric(name)
}
