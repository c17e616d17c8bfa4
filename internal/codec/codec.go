// Package codec implements the columnar container format for frame tables.
//
// A file is self-describing: a fixed header, a schema block naming every
// column with its canonical dtype string, then one value block per column and
// an optional index block. The layout (all integers little-endian):
//   - 4 bytes:  magic "GFRM"
//   - 2 bytes:  format version (uint16, currently 1)
//   - 1 byte:   index present flag
//   - 1 byte:   reserved, zero
//   - 4 bytes:  column count (uint32)
//   - 8 bytes:  row count (uint64)
//   - schema block (JSON)
//   - one value block per column, in schema order
//   - index value block, only when the flag is set
//
// Every block is Snappy-compressed and framed as:
//   - 8 bytes: compressed length (uint64)
//   - 8 bytes: murmur3-64 checksum of the compressed bytes
//   - compressed bytes
//
// Value encoding by kind class: bools one byte per value, signed and unsigned
// integers fixed 64-bit, floats IEEE 754 bits, strings length-prefixed
// (uint32), timestamps UTC Unix nanoseconds rematerialized in the schema zone
// on read. Nullable columns carry a validity bitmap ahead of the values, one
// bit per row, set for present values.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"

	"github.com/gridframe/gridframe/pkg/dtype"
	"github.com/gridframe/gridframe/pkg/frame"
)

const (
	magic         = "GFRM"
	formatVersion = 1
	headerSize    = 4 + 2 + 1 + 1 + 4 + 8
	blockHeader   = 8 + 8

	// maxRows bounds the row count a header may declare, keeping a corrupt
	// header from driving huge allocations before block checks run.
	maxRows = math.MaxInt32
)

// Decode errors.
var (
	ErrBadMagic   = errors.New("bad magic")
	ErrBadVersion = errors.New("unsupported format version")
	ErrChecksum   = errors.New("checksum mismatch")
	ErrTruncated  = errors.New("truncated data")
	ErrCorrupted  = errors.New("corrupted file")
)

// fileSchema is the JSON schema block.
type fileSchema struct {
	Columns []fileColumn `json:"columns"`
	Index   *fileIndex   `json:"index,omitempty"`
}

type fileColumn struct {
	Name  string `json:"name"`
	DType string `json:"dtype_str"`
}

type fileIndex struct {
	Name      string `json:"name"`
	Zone      string `json:"zone,omitempty"`
	FreqNanos int64  `json:"freq_ns"`
}

// Encode serializes a table into the container format.
func Encode(t *frame.Table) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("codec: nil table")
	}

	names := t.ColumnNames()
	ix := t.Index()

	var buf bytes.Buffer
	buf.WriteString(magic)
	putUint16(&buf, formatVersion)
	if ix != nil {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.WriteByte(0)
	putUint32(&buf, uint32(len(names)))
	putUint64(&buf, uint64(t.NumRows()))

	fs := fileSchema{Columns: make([]fileColumn, 0, len(names))}
	for _, name := range names {
		fs.Columns = append(fs.Columns, fileColumn{Name: name, DType: t.Column(name).DType().String()})
	}
	if ix != nil {
		zone := ""
		if ix.Zone() != nil {
			zone = ix.Zone().String()
		}
		fs.Index = &fileIndex{Name: ix.Name(), Zone: zone, FreqNanos: int64(ix.Freq())}
	}

	schemaJSON, err := json.Marshal(fs)
	if err != nil {
		return nil, fmt.Errorf("codec: failed to marshal schema: %w", err)
	}
	writeBlock(&buf, schemaJSON)

	for _, name := range names {
		raw, err := encodeSeries(t.Column(name))
		if err != nil {
			return nil, fmt.Errorf("codec: column %q: %w", name, err)
		}
		writeBlock(&buf, raw)
	}

	if ix != nil {
		writeBlock(&buf, encodeTimes(ix.Times()))
	}

	return buf.Bytes(), nil
}

// Decode reconstructs a table from the container format.
func Decode(data []byte) (*frame.Table, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("codec: header: %w", ErrTruncated)
	}
	if string(data[:4]) != magic {
		return nil, fmt.Errorf("codec: %w", ErrBadMagic)
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != formatVersion {
		return nil, fmt.Errorf("codec: %w: %d", ErrBadVersion, v)
	}
	hasIndex := data[6] == 1
	ncols := int(binary.LittleEndian.Uint32(data[8:12]))
	rows := binary.LittleEndian.Uint64(data[12:20])
	if rows > maxRows {
		return nil, fmt.Errorf("codec: row count %d: %w", rows, ErrCorrupted)
	}
	nrows := int(rows)

	off := headerSize
	schemaJSON, off, err := readBlock(data, off)
	if err != nil {
		return nil, fmt.Errorf("codec: schema block: %w", err)
	}
	var fs fileSchema
	if err := json.Unmarshal(schemaJSON, &fs); err != nil {
		return nil, fmt.Errorf("codec: schema block: %w: %v", ErrCorrupted, err)
	}
	if len(fs.Columns) != ncols {
		return nil, fmt.Errorf("codec: schema declares %d columns, header %d: %w", len(fs.Columns), ncols, ErrCorrupted)
	}
	if hasIndex != (fs.Index != nil) {
		return nil, fmt.Errorf("codec: index flag and schema disagree: %w", ErrCorrupted)
	}

	t := frame.NewTable()
	for _, col := range fs.Columns {
		dt, err := dtype.Parse(col.DType)
		if err != nil {
			return nil, fmt.Errorf("codec: column %q: %w: %v", col.Name, ErrCorrupted, err)
		}
		var raw []byte
		raw, off, err = readBlock(data, off)
		if err != nil {
			return nil, fmt.Errorf("codec: column %q: %w", col.Name, err)
		}
		s, err := decodeSeries(dt, raw, nrows)
		if err != nil {
			return nil, fmt.Errorf("codec: column %q: %w", col.Name, err)
		}
		if err := t.AddColumn(col.Name, s); err != nil {
			return nil, fmt.Errorf("codec: %w: %v", ErrCorrupted, err)
		}
	}

	if hasIndex {
		var raw []byte
		raw, off, err = readBlock(data, off)
		if err != nil {
			return nil, fmt.Errorf("codec: index block: %w", err)
		}
		var zone *time.Location
		if fs.Index.Zone != "" {
			zone, err = time.LoadLocation(fs.Index.Zone)
			if err != nil {
				return nil, fmt.Errorf("codec: index zone %q: %w: %v", fs.Index.Zone, ErrCorrupted, err)
			}
		}
		times, err := decodeTimes(raw, nrows, zone)
		if err != nil {
			return nil, fmt.Errorf("codec: index block: %w", err)
		}
		ix := frame.NewIndex(fs.Index.Name, zone, time.Duration(fs.Index.FreqNanos), times...)
		if err := t.SetIndex(ix); err != nil {
			return nil, fmt.Errorf("codec: %w: %v", ErrCorrupted, err)
		}
	}

	if off != len(data) {
		return nil, fmt.Errorf("codec: %d trailing bytes: %w", len(data)-off, ErrCorrupted)
	}

	return t, nil
}

// writeBlock frames raw as a compressed, checksummed block.
func writeBlock(buf *bytes.Buffer, raw []byte) {
	compressed := snappy.Encode(nil, raw)
	putUint64(buf, uint64(len(compressed)))
	putUint64(buf, murmur3.Sum64(compressed))
	buf.Write(compressed)
}

// readBlock verifies and decompresses the block at off, returning the raw
// bytes and the offset past the block.
func readBlock(data []byte, off int) ([]byte, int, error) {
	if off+blockHeader > len(data) {
		return nil, 0, ErrTruncated
	}
	length := binary.LittleEndian.Uint64(data[off : off+8])
	sum := binary.LittleEndian.Uint64(data[off+8 : off+16])
	off += blockHeader
	if length > uint64(len(data)-off) {
		return nil, 0, ErrTruncated
	}
	compressed := data[off : off+int(length)]
	if murmur3.Sum64(compressed) != sum {
		return nil, 0, ErrChecksum
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return raw, off + int(length), nil
}

// encodeSeries renders the series values, validity bitmap first for nullable
// series.
func encodeSeries(s *frame.Series) ([]byte, error) {
	var raw bytes.Buffer
	if validity := s.Validity(); validity != nil {
		raw.Write(packBits(validity))
	}
	switch values := s.Values().(type) {
	case []bool:
		for _, v := range values {
			if v {
				raw.WriteByte(1)
			} else {
				raw.WriteByte(0)
			}
		}
	case []int64:
		for _, v := range values {
			putUint64(&raw, uint64(v))
		}
	case []uint64:
		for _, v := range values {
			putUint64(&raw, v)
		}
	case []float64:
		for _, v := range values {
			putUint64(&raw, math.Float64bits(v))
		}
	case []string:
		for _, v := range values {
			putUint32(&raw, uint32(len(v)))
			raw.WriteString(v)
		}
	case []time.Time:
		raw.Write(encodeTimes(values))
	default:
		return nil, fmt.Errorf("unsupported series storage %T", values)
	}
	return raw.Bytes(), nil
}

// decodeSeries rebuilds a series of n values from raw bytes.
func decodeSeries(dt dtype.DType, raw []byte, n int) (*frame.Series, error) {
	s := frame.NewSeries(dt)
	off := 0

	var validity []bool
	if dt.Nullable {
		bitmapLen := (n + 7) / 8
		if len(raw) < bitmapLen {
			return nil, ErrTruncated
		}
		validity = unpackBits(raw[:bitmapLen], n)
		off = bitmapLen
	}

	appendValue := func(i int, v any) error {
		if validity != nil && !validity[i] {
			return s.Append(nil)
		}
		return s.Append(v)
	}

	switch dt.Kind {
	case dtype.Bool:
		if len(raw)-off < n {
			return nil, ErrTruncated
		}
		for i := 0; i < n; i++ {
			if err := appendValue(i, raw[off+i] == 1); err != nil {
				return nil, err
			}
		}
	case dtype.Int8, dtype.Int16, dtype.Int32, dtype.Int64:
		if len(raw)-off < n*8 {
			return nil, ErrTruncated
		}
		for i := 0; i < n; i++ {
			v := int64(binary.LittleEndian.Uint64(raw[off+i*8:]))
			if err := appendValue(i, v); err != nil {
				return nil, err
			}
		}
	case dtype.Uint8, dtype.Uint16, dtype.Uint32, dtype.Uint64:
		if len(raw)-off < n*8 {
			return nil, ErrTruncated
		}
		for i := 0; i < n; i++ {
			v := binary.LittleEndian.Uint64(raw[off+i*8:])
			if err := appendValue(i, v); err != nil {
				return nil, err
			}
		}
	case dtype.Float32, dtype.Float64:
		if len(raw)-off < n*8 {
			return nil, ErrTruncated
		}
		for i := 0; i < n; i++ {
			v := math.Float64frombits(binary.LittleEndian.Uint64(raw[off+i*8:]))
			if err := appendValue(i, v); err != nil {
				return nil, err
			}
		}
	case dtype.Object:
		for i := 0; i < n; i++ {
			if len(raw)-off < 4 {
				return nil, ErrTruncated
			}
			strLen := int(binary.LittleEndian.Uint32(raw[off:]))
			off += 4
			if len(raw)-off < strLen {
				return nil, ErrTruncated
			}
			if err := appendValue(i, string(raw[off:off+strLen])); err != nil {
				return nil, err
			}
			off += strLen
		}
	case dtype.Datetime, dtype.DatetimeTZ:
		zone := time.UTC
		if dt.Kind == dtype.DatetimeTZ {
			loc, err := dt.Location()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
			}
			zone = loc
		}
		times, err := decodeTimes(raw[off:], n, zone)
		if err != nil {
			return nil, err
		}
		for i, ts := range times {
			if err := appendValue(i, ts); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: dtype %s", ErrCorrupted, dt)
	}

	return s, nil
}

// encodeTimes renders timestamps as UTC Unix nanoseconds.
func encodeTimes(times []time.Time) []byte {
	raw := make([]byte, len(times)*8)
	for i, ts := range times {
		binary.LittleEndian.PutUint64(raw[i*8:], uint64(ts.UnixNano()))
	}
	return raw
}

// decodeTimes rebuilds n timestamps, materialized in zone (UTC when nil).
func decodeTimes(raw []byte, n int, zone *time.Location) ([]time.Time, error) {
	if len(raw) < n*8 {
		return nil, ErrTruncated
	}
	if zone == nil {
		zone = time.UTC
	}
	times := make([]time.Time, n)
	for i := 0; i < n; i++ {
		nanos := int64(binary.LittleEndian.Uint64(raw[i*8:]))
		times[i] = time.Unix(0, nanos).In(zone)
	}
	return times, nil
}

// packBits packs a validity slice into a bitmap, LSB first.
func packBits(valid []bool) []byte {
	bitmap := make([]byte, (len(valid)+7)/8)
	for i, v := range valid {
		if v {
			bitmap[i/8] |= 1 << (i % 8)
		}
	}
	return bitmap
}

// unpackBits expands a bitmap into n validity flags.
func unpackBits(bitmap []byte, n int) []bool {
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		valid[i] = bitmap[i/8]&(1<<(i%8)) != 0
	}
	return valid
}

func putUint16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func putUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}
