package report

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/linear"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

// Distribution draws a histogram of the non-missing values of column.
func (r *Renderer) Distribution(t *table.Table, column string) (string, error) {
	const op = "plot_distribution"
	if err := checkTable(op, t); err != nil {
		return "", err
	}
	values, err := numericColumn(op, t, column)
	if err != nil {
		return "", err
	}
	observed := dropNaN(values)
	if len(observed) == 0 {
		return "", errors.NewEmptyDataError(op, column, "no values to plot")
	}

	p := plot.New()
	p.Title.Text = column + " Distribution"
	p.X.Label.Text = column
	p.Y.Label.Text = "Frequency"

	h, err := plotter.NewHist(plotter.Values(observed), r.bins)
	if err != nil {
		return "", errors.NewOperationError(op, err)
	}
	p.Add(h)
	return r.save(op, p, column+"_distribution")
}

// Correlation is the Pearson correlation of one column with the target.
type Correlation struct {
	Column string
	Value  float64
}

// Correlations returns the Pearson correlation of every numeric column of t
// with target, computed over rows where both values are present, sorted in
// descending order. Columns with fewer than two such rows or zero variance
// are left out.
func Correlations(t *table.Table, target string) ([]Correlation, error) {
	const op = "correlation_with_target"
	if err := checkTable(op, t); err != nil {
		return nil, err
	}
	numeric := t.NumericNames()
	if len(numeric) == 0 {
		return nil, errors.NewMissingColumnError(op, []string{target}, t.Names())
	}
	if !t.Has(target) {
		return nil, errors.NewMissingColumnError(op, []string{target}, numeric)
	}
	if !t.IsNumeric(target) {
		return nil, errors.NewInvalidParameterError(op, "target", "target must be numeric", target)
	}

	y, _ := t.Numeric(target)
	var out []Correlation
	for _, name := range numeric {
		x, _ := t.Numeric(name)
		xs, ys := pairwise(x, y)
		if len(xs) < 2 {
			continue
		}
		c := stat.Correlation(xs, ys, nil)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		out = append(out, Correlation{Column: name, Value: c})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out, nil
}

// CorrelationWithTarget draws the correlations returned by Correlations as a
// bar chart.
func (r *Renderer) CorrelationWithTarget(t *table.Table, target string) (string, error) {
	const op = "correlation_with_target"
	corr, err := Correlations(t, target)
	if err != nil {
		return "", err
	}
	if len(corr) == 0 {
		return "", errors.NewEmptyDataError(op, target, "no column has a defined correlation with the target")
	}

	values := make(plotter.Values, len(corr))
	names := make([]string, len(corr))
	for i, c := range corr {
		values[i] = c.Value
		names[i] = c.Column
	}

	p := plot.New()
	p.Title.Text = "Correlations with " + target
	p.Y.Label.Text = "Pearson r"
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return "", errors.NewOperationError(op, err)
	}
	bars.Color = color.RGBA{R: 68, G: 1, B: 84, A: 255}
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = -1
	return r.save(op, p, "correlation_"+target)
}

// SizeVsPrice draws a scatter of target against feature with the least
// squares line through it. Rows missing either value are left out.
func (r *Renderer) SizeVsPrice(t *table.Table, feature, target string) (string, error) {
	op := fmt.Sprintf("plot_%s_vs_%s", feature, target)
	if err := checkTable(op, t); err != nil {
		return "", err
	}
	x, err := numericColumn(op, t, feature)
	if err != nil {
		return "", err
	}
	y, err := numericColumn(op, t, target)
	if err != nil {
		return "", err
	}
	xs, ys := pairwise(x, y)
	if len(xs) == 0 {
		return "", errors.NewEmptyDataError(op, feature, "no valid data points to plot after removing missing values")
	}

	p := plot.New()
	p.Title.Text = feature + " vs " + target
	p.X.Label.Text = feature
	p.Y.Label.Text = target

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return "", errors.NewOperationError(op, err)
	}
	s.Color = color.RGBA{R: 50, G: 50, B: 255, A: 100}
	p.Add(s)

	if len(xs) > 1 {
		lr := linear.NewLinearRegression()
		if err := lr.Fit(mat.NewDense(len(xs), 1, xs), mat.NewVecDense(len(ys), ys)); err != nil {
			return "", errors.NewOperationError(op, err)
		}
		lo, hi := minMax(xs)
		w, b := lr.Coefficients()[0], lr.Intercept()
		l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: w*lo + b}, {X: hi, Y: w*hi + b}})
		if err != nil {
			return "", errors.NewOperationError(op, err)
		}
		l.Color = color.RGBA{R: 255, A: 255}
		l.LineStyle.Width = vg.Points(2)
		p.Add(l)
	}
	return r.save(op, p, feature+"_vs_"+target)
}

// ClusterPrices draws one box of target values per cluster label.
func (r *Renderer) ClusterPrices(t *table.Table, labelColumn, target string) (string, error) {
	const op = "plot_cluster_prices"
	if err := checkTable(op, t); err != nil {
		return "", err
	}
	labels, err := numericColumn(op, t, labelColumn)
	if err != nil {
		return "", err
	}
	y, err := numericColumn(op, t, target)
	if err != nil {
		return "", err
	}

	groups := make(map[int]plotter.Values)
	for i, l := range labels {
		if math.IsNaN(l) || math.IsNaN(y[i]) {
			continue
		}
		groups[int(l)] = append(groups[int(l)], y[i])
	}
	if len(groups) == 0 {
		return "", errors.NewEmptyDataError(op, target, "no labelled rows with a target value")
	}
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	p := plot.New()
	p.Title.Text = target + " by " + labelColumn
	p.Y.Label.Text = target
	names := make([]string, len(keys))
	for i, k := range keys {
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(i), groups[k])
		if err != nil {
			return "", errors.NewOperationError(op, err)
		}
		p.Add(box)
		names[i] = strconv.Itoa(k)
	}
	p.NominalX(names...)
	return r.save(op, p, target+"_by_"+labelColumn)
}

// pairwise returns the values of x and y at rows where both are present.
func pairwise(x, y []float64) (xs, ys []float64) {
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
