package frame

import "time"

// Index is a timezone-aware timestamp row index with a declared fixed
// frequency. The frequency is metadata carried by the index, matching the
// convention of columnar tools where an index declares its freq; periodic
// validation compares the declaration against the expected period rather than
// inspecting the spacing of the values.
type Index struct {
	name  string
	zone  *time.Location
	freq  time.Duration
	times []time.Time
}

// NewIndex creates an index with the given name, zone, declared frequency and
// timestamp values.
func NewIndex(name string, zone *time.Location, freq time.Duration, times ...time.Time) *Index {
	ix := &Index{name: name, zone: zone, freq: freq}
	ix.times = append(ix.times, times...)
	return ix
}

// Name returns the index name.
func (ix *Index) Name() string {
	return ix.name
}

// Zone returns the index timezone, nil for a naive index.
func (ix *Index) Zone() *time.Location {
	return ix.zone
}

// Freq returns the declared fixed frequency.
func (ix *Index) Freq() time.Duration {
	return ix.freq
}

// Len returns the number of timestamps.
func (ix *Index) Len() int {
	return len(ix.times)
}

// Time returns the timestamp at i.
func (ix *Index) Time(i int) time.Time {
	return ix.times[i]
}

// Times returns the backing timestamp slice. The slice is shared, not copied.
func (ix *Index) Times() []time.Time {
	return ix.times
}
