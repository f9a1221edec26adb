package report

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/housingeda/core/table"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
	"github.com/YuminosukeSato/housingeda/preprocessing"
)

// Column names used by the market trend plots.
const (
	YrSold   = "YrSold"
	MoSold   = "MoSold"
	SoldDate = "SoldDate"
)

// SoldDateLayout is the format of the SoldDate column.
const SoldDateLayout = "2006-01-02"

const opSoldDate = "build_sold_date"

// BuildSoldDate returns a copy of t with MoSold converted to month numbers
// and a SoldDate column holding the first day of the sale month. MoSold may be
// numeric or a month name, abbreviated ("Jan") or full ("January").
func BuildSoldDate(t *table.Table) (*table.Table, error) {
	if err := checkTable(opSoldDate, t); err != nil {
		return nil, err
	}
	dates, months, err := soldDates(t)
	if err != nil {
		return nil, err
	}

	text := make([]string, len(dates))
	for i, d := range dates {
		text[i] = d.Format(SoldDateLayout)
	}
	out, err := t.WithColumn(table.NewNumeric(MoSold, months))
	if err != nil {
		return nil, errors.NewOperationError(opSoldDate, err)
	}
	out, err = out.WithColumn(table.NewCategorical(SoldDate, text, nil))
	if err != nil {
		return nil, errors.NewOperationError(opSoldDate, err)
	}
	return out, nil
}

func soldDates(t *table.Table) ([]time.Time, []float64, error) {
	var missing []string
	for _, name := range []string{YrSold, MoSold} {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, errors.NewMissingColumnError(opSoldDate, missing, t.Names())
	}
	if !t.IsNumeric(YrSold) {
		return nil, nil, errors.NewInvalidParameterError(opSoldDate, YrSold, "year must be numeric", nil)
	}
	years, _ := t.Numeric(YrSold)
	months, err := monthNumbers(t.Column(MoSold))
	if err != nil {
		return nil, nil, err
	}

	dates := make([]time.Time, len(years))
	for i := range years {
		y, m := years[i], months[i]
		if math.IsNaN(y) || y != math.Trunc(y) {
			return nil, nil, errors.NewInvalidParameterError(opSoldDate, YrSold, "year must be a whole number", y)
		}
		if math.IsNaN(m) || m != math.Trunc(m) || m < 1 || m > 12 {
			return nil, nil, errors.NewInvalidParameterError(opSoldDate, MoSold, "MoSold values must be between 1 and 12", m)
		}
		dates[i] = time.Date(int(y), time.Month(int(m)), 1, 0, 0, 0, 0, time.UTC)
	}
	return dates, months, nil
}

// monthNumbers converts a MoSold column to month numbers. Unparseable or
// missing entries become NaN.
func monthNumbers(col *table.Column) ([]float64, error) {
	if col.Kind() == table.Numeric {
		return col.Floats(), nil
	}
	values, valid := col.Strings()
	months := make([]float64, len(values))
	for i, s := range values {
		months[i] = math.NaN()
		if !valid[i] {
			continue
		}
		s = strings.TrimSpace(s)
		if m, ok := parseMonth(s); ok {
			months[i] = float64(m)
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			months[i] = f
		}
	}
	return months, nil
}

func parseMonth(s string) (time.Month, bool) {
	for _, layout := range []string{"Jan", "January"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Month(), true
		}
	}
	return 0, false
}

// MarketTrends draws the monthly and the yearly median sale price and returns
// both files.
func (r *Renderer) MarketTrends(t *table.Table) ([]string, error) {
	const op = "plot_market_trends"
	if err := checkTable(op, t); err != nil {
		return nil, err
	}
	var missing []string
	for _, name := range []string{YrSold, MoSold, DefaultTarget} {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingColumnError(op, missing, t.Names())
	}
	price, err := numericColumn(op, t, DefaultTarget)
	if err != nil {
		return nil, err
	}
	dates, _, err := soldDates(t)
	if err != nil {
		return nil, err
	}

	monthly := medianBy(len(price), func(i int) float64 { return float64(dates[i].Unix()) }, price)
	if len(monthly) == 0 {
		return nil, errors.NewEmptyDataError(op, DefaultTarget, "no data available for trend plotting")
	}
	yearly := medianBy(len(price), func(i int) float64 { return float64(dates[i].Year()) }, price)

	p := plot.New()
	p.Title.Text = "Median SalePrice Over Time (Monthly)"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Median Sale Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())
	if err := addLine(p, monthly, false); err != nil {
		return nil, errors.NewOperationError(op, err)
	}
	monthlyPath, err := r.save(op, p, "market_trends_monthly")
	if err != nil {
		return nil, err
	}

	p = plot.New()
	p.Title.Text = "Yearly Median SalePrice"
	p.X.Label.Text = "Year Sold"
	p.Y.Label.Text = "Median Price"
	p.Add(plotter.NewGrid())
	if err := addLine(p, yearly, true); err != nil {
		return nil, errors.NewOperationError(op, err)
	}
	yearlyPath, err := r.save(op, p, "market_trends_yearly")
	if err != nil {
		return nil, err
	}
	return []string{monthlyPath, yearlyPath}, nil
}

// medianBy groups the non-missing values by key and returns the median of
// each group ordered by key.
func medianBy(n int, key func(i int) float64, values []float64) plotter.XYs {
	groups := make(map[float64][]float64)
	for i := 0; i < n; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		k := key(i)
		groups[k] = append(groups[k], values[i])
	}
	keys := make([]float64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	xys := make(plotter.XYs, len(keys))
	for i, k := range keys {
		m, _ := preprocessing.Median(groups[k])
		xys[i] = plotter.XY{X: k, Y: m}
	}
	return xys
}

func addLine(p *plot.Plot, xys plotter.XYs, markers bool) error {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	p.Add(l)
	if markers {
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		s.Shape = draw.CircleGlyph{}
		p.Add(s)
	}
	return nil
}
