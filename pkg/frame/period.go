package frame

import (
	"fmt"
	"time"
)

// NormalizePeriod converts an interval period given in any accepted form to a
// time.Duration. Accepted forms: an int or int64 counting whole seconds, a
// duration string in the standard grammar ("900s", "15m", "1h30m"), or a
// time.Duration passed through unchanged. Periods are compared as durations,
// so NormalizePeriod(900), NormalizePeriod("900s") and
// NormalizePeriod(15*time.Minute) all denote the same period. Any other type,
// or a string the grammar rejects, fails with ErrInvalidPeriod.
func NormalizePeriod(period any) (time.Duration, error) {
	switch v := period.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, newError(CodeInvalidPeriod, err)
		}
		return d, nil
	case time.Duration:
		return v, nil
	default:
		return 0, newError(CodeInvalidPeriod, fmt.Errorf("unsupported type %T", period))
	}
}
