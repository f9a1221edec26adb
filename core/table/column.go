package table

import (
	"math"
	"strconv"
)

// Kind is the value kind of a column.
type Kind int

const (
	// Numeric columns hold float64 values; a missing value is NaN.
	Numeric Kind = iota
	// Categorical columns hold strings with a validity mask.
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is a named, immutable sequence of values of one Kind.
// Constructors copy their input, so a Column may be shared between tables.
type Column struct {
	name  string
	kind  Kind
	nums  []float64
	strs  []string
	valid []bool
}

// NewNumeric creates a numeric column. NaN marks a missing value.
func NewNumeric(name string, values []float64) *Column {
	return &Column{
		name: name,
		kind: Numeric,
		nums: append([]float64(nil), values...),
	}
}

// NewCategorical creates a categorical column. A nil valid mask means every
// value is present; otherwise valid must have the same length as values.
func NewCategorical(name string, values []string, valid []bool) *Column {
	c := &Column{
		name:  name,
		kind:  Categorical,
		strs:  append([]string(nil), values...),
		valid: make([]bool, len(values)),
	}
	for i := range c.valid {
		c.valid[i] = valid == nil || (i < len(valid) && valid[i])
	}
	return c
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the value kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of values.
func (c *Column) Len() int {
	if c.kind == Numeric {
		return len(c.nums)
	}
	return len(c.strs)
}

// Float returns the i-th value of a numeric column.
// It returns NaN for categorical columns.
func (c *Column) Float(i int) float64 {
	if c.kind != Numeric {
		return math.NaN()
	}
	return c.nums[i]
}

// Str returns the i-th value of a categorical column and whether it is present.
// Numeric values are formatted; NaN reports false.
func (c *Column) Str(i int) (string, bool) {
	if c.kind == Numeric {
		v := c.nums[i]
		if math.IsNaN(v) {
			return "", false
		}
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	return c.strs[i], c.valid[i]
}

// IsMissing reports whether the i-th value is missing.
func (c *Column) IsMissing(i int) bool {
	if c.kind == Numeric {
		return math.IsNaN(c.nums[i])
	}
	return !c.valid[i]
}

// MissingCount returns the number of missing values.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Floats returns a copy of the values of a numeric column, or nil for categorical columns.
func (c *Column) Floats() []float64 {
	if c.kind != Numeric {
		return nil
	}
	return append([]float64(nil), c.nums...)
}

// Strings returns copies of the values and validity mask of a categorical column.
func (c *Column) Strings() ([]string, []bool) {
	if c.kind != Categorical {
		return nil, nil
	}
	return append([]string(nil), c.strs...), append([]bool(nil), c.valid...)
}

// Subset returns a new column holding the values at rows, in that order.
func (c *Column) Subset(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind}
	if c.kind == Numeric {
		out.nums = make([]float64, len(rows))
		for j, i := range rows {
			out.nums[j] = c.nums[i]
		}
		return out
	}
	out.strs = make([]string, len(rows))
	out.valid = make([]bool, len(rows))
	for j, i := range rows {
		out.strs[j] = c.strs[i]
		out.valid[j] = c.valid[i]
	}
	return out
}

// key encodes the i-th value for row identity. All NaNs share one key and a
// missing categorical value never collides with a present string.
func (c *Column) key(i int) string {
	if c.kind == Numeric {
		v := c.nums[i]
		if math.IsNaN(v) {
			return "NaN"
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if !c.valid[i] {
		return "\x00"
	}
	return "s" + c.strs[i]
}
