package linear

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// WithRCond sets the relative cutoff for small singular values.
// Singular values below rcond * largest singular value are treated as zero.
// A non-positive value selects machine epsilon times max(n_samples, n_features).
func WithRCond(rcond float64) Option {
	return func(lr *LinearRegression) {
		lr.rcond = rcond
	}
}
