// Package indicator provides the numeric routines consumed by the strategy
// layer. They are pure functions over price series and hold no state.
package indicator

// EMA computes the exponential moving average series for the given period
// over a chronological price series. The result has length
// max(0, len(series)-period+1): the first output is the simple average of
// the first period samples, and each subsequent output applies the standard
// smoothing recurrence with alpha = 2/(period+1).
func EMA(period int, series []float64) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}

	out := make([]float64, 0, len(series)-period+1)

	var sum float64
	for _, v := range series[:period] {
		sum += v
	}
	prev := sum / float64(period)
	out = append(out, prev)

	alpha := 2.0 / (float64(period) + 1)
	for _, v := range series[period:] {
		prev = alpha*v + (1-alpha)*prev
		out = append(out, prev)
	}
	return out
}

// LastTwo returns the second-to-last and last elements of a series. The
// second return value is false when the series has fewer than two elements.
func LastTwo(series []float64) (prev, last float64, ok bool) {
	if len(series) < 2 {
		return 0, 0, false
	}
	return series[len(series)-2], series[len(series)-1], true
}
