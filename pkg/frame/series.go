package frame

import (
	"fmt"
	"time"

	"github.com/gridframe/gridframe/pkg/dtype"
)

// Series is a single typed column vector. Storage is by kind class: signed
// integers share an int64 buffer, unsigned integers a uint64 buffer, floats a
// float64 buffer; the declared width lives in the dtype tag, not the buffer.
// Nullable series carry a validity slice alongside the values.
type Series struct {
	dt    dtype.DType
	data  any
	valid []bool
}

// NewSeries creates an empty series for the tag.
func NewSeries(dt dtype.DType) *Series {
	s := &Series{dt: dt}
	switch dt.Kind {
	case dtype.Bool:
		s.data = []bool{}
	case dtype.Int8, dtype.Int16, dtype.Int32, dtype.Int64:
		s.data = []int64{}
	case dtype.Uint8, dtype.Uint16, dtype.Uint32, dtype.Uint64:
		s.data = []uint64{}
	case dtype.Float32, dtype.Float64:
		s.data = []float64{}
	case dtype.Object:
		s.data = []string{}
	case dtype.Datetime, dtype.DatetimeTZ:
		s.data = []time.Time{}
	}
	return s
}

// DType returns the column type tag.
func (s *Series) DType() dtype.DType {
	return s.dt
}

// Len returns the number of values.
func (s *Series) Len() int {
	switch data := s.data.(type) {
	case []bool:
		return len(data)
	case []int64:
		return len(data)
	case []uint64:
		return len(data)
	case []float64:
		return len(data)
	case []string:
		return len(data)
	case []time.Time:
		return len(data)
	}
	return 0
}

// Append adds a value to the series. The value must suit the kind class: bool
// for boolean series, int/int64 for signed integers, uint/uint64 (or a
// non-negative int) for unsigned integers, float32/float64/int for floats,
// string for object, time.Time for timestamps. nil appends a missing value
// and is accepted only by nullable series.
func (s *Series) Append(v any) error {
	if v == nil {
		if !s.dt.Nullable {
			return fmt.Errorf("frame: series %s does not accept missing values", s.dt)
		}
		return s.appendNull()
	}
	switch data := s.data.(type) {
	case []bool:
		b, ok := v.(bool)
		if !ok {
			return s.typeError(v)
		}
		s.data = append(data, b)
	case []int64:
		var n int64
		switch x := v.(type) {
		case int:
			n = int64(x)
		case int64:
			n = x
		default:
			return s.typeError(v)
		}
		s.data = append(data, n)
	case []uint64:
		var n uint64
		switch x := v.(type) {
		case uint:
			n = uint64(x)
		case uint64:
			n = x
		case int:
			if x < 0 {
				return s.typeError(v)
			}
			n = uint64(x)
		default:
			return s.typeError(v)
		}
		s.data = append(data, n)
	case []float64:
		var f float64
		switch x := v.(type) {
		case float64:
			f = x
		case float32:
			f = float64(x)
		case int:
			f = float64(x)
		default:
			return s.typeError(v)
		}
		s.data = append(data, f)
	case []string:
		str, ok := v.(string)
		if !ok {
			return s.typeError(v)
		}
		s.data = append(data, str)
	case []time.Time:
		ts, ok := v.(time.Time)
		if !ok {
			return s.typeError(v)
		}
		s.data = append(data, ts)
	default:
		return fmt.Errorf("frame: series has invalid dtype %s", s.dt)
	}
	if s.dt.Nullable {
		s.valid = append(s.valid, true)
	}
	return nil
}

func (s *Series) appendNull() error {
	switch data := s.data.(type) {
	case []bool:
		s.data = append(data, false)
	case []int64:
		s.data = append(data, 0)
	case []uint64:
		s.data = append(data, 0)
	case []float64:
		s.data = append(data, 0)
	default:
		return fmt.Errorf("frame: series %s does not accept missing values", s.dt)
	}
	s.valid = append(s.valid, false)
	return nil
}

func (s *Series) typeError(v any) error {
	return fmt.Errorf("frame: cannot append %T to %s series", v, s.dt)
}

// Value returns the value at i, or nil when it is missing.
func (s *Series) Value(i int) any {
	if s.IsNull(i) {
		return nil
	}
	switch data := s.data.(type) {
	case []bool:
		return data[i]
	case []int64:
		return data[i]
	case []uint64:
		return data[i]
	case []float64:
		return data[i]
	case []string:
		return data[i]
	case []time.Time:
		return data[i]
	}
	return nil
}

// IsNull reports whether the value at i is missing.
func (s *Series) IsNull(i int) bool {
	return s.valid != nil && !s.valid[i]
}

// Values returns the backing slice: []bool, []int64, []uint64, []float64,
// []string or []time.Time depending on the kind class. The slice is shared,
// not copied.
func (s *Series) Values() any {
	return s.data
}

// Validity returns the validity slice for nullable series, nil otherwise.
// True marks a present value. The slice is shared, not copied.
func (s *Series) Validity() []bool {
	return s.valid
}
