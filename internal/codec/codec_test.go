package codec

import (
	"errors"
	"reflect"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/gridframe/gridframe/pkg/dtype"
	"github.com/gridframe/gridframe/pkg/frame"
)

func mustSeries(t *testing.T, dtypeStr string, values ...any) *frame.Series {
	t.Helper()
	dt, err := dtype.Parse(dtypeStr)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", dtypeStr, err)
	}
	s := frame.NewSeries(dt)
	for _, v := range values {
		if err := s.Append(v); err != nil {
			t.Fatalf("Append(%v) returned error: %v", v, err)
		}
	}
	return s
}

// sampleTable builds a three-row table exercising every kind class, with a
// periodic US/Pacific index.
func sampleTable(t *testing.T) *frame.Table {
	t.Helper()
	zone, err := time.LoadLocation("US/Pacific")
	if err != nil {
		t.Fatalf("LoadLocation returned error: %v", err)
	}
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, zone)

	tbl := frame.NewTable()
	cols := []struct {
		name   string
		series *frame.Series
	}{
		{"power", mustSeries(t, "float", 1500.0, 0.0, -42.5)},
		{"customer_id", mustSeries(t, "UInt64", uint64(7), nil, uint64(9))},
		{"count", mustSeries(t, "int32", int64(-5), int64(0), int64(12))},
		{"active", mustSeries(t, "bool", true, false, true)},
		{"site", mustSeries(t, "object", "alpha", "", "gamma")},
		{"reading_at", mustSeries(t, "datetime64[ns, US/Pacific]", start, start.Add(900*time.Second), start.Add(1800*time.Second))},
	}
	for _, c := range cols {
		if err := tbl.AddColumn(c.name, c.series); err != nil {
			t.Fatalf("AddColumn(%q) returned error: %v", c.name, err)
		}
	}

	ix := frame.NewIndex("timestamp", zone, 900*time.Second,
		start, start.Add(900*time.Second), start.Add(1800*time.Second))
	if err := tbl.SetIndex(ix); err != nil {
		t.Fatalf("SetIndex returned error: %v", err)
	}
	return tbl
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tbl := sampleTable(t)

	data, err := Encode(tbl)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	if !reflect.DeepEqual(back.ColumnNames(), tbl.ColumnNames()) {
		t.Errorf("Expected columns %v, got %v", tbl.ColumnNames(), back.ColumnNames())
	}
	if back.NumRows() != tbl.NumRows() {
		t.Errorf("Expected %d rows, got %d", tbl.NumRows(), back.NumRows())
	}

	for _, name := range tbl.ColumnNames() {
		orig := tbl.Column(name)
		got := back.Column(name)
		if got == nil {
			t.Fatalf("Expected column %q after decode", name)
		}
		if !got.DType().Equal(orig.DType()) {
			t.Errorf("Column %q: expected dtype %s, got %s", name, orig.DType(), got.DType())
		}
		for i := 0; i < orig.Len(); i++ {
			if orig.IsNull(i) != got.IsNull(i) {
				t.Errorf("Column %q row %d: validity mismatch", name, i)
				continue
			}
			ov, gv := orig.Value(i), got.Value(i)
			if ots, ok := ov.(time.Time); ok {
				if !gv.(time.Time).Equal(ots) {
					t.Errorf("Column %q row %d: expected %v, got %v", name, i, ov, gv)
				}
				continue
			}
			if ov != gv {
				t.Errorf("Column %q row %d: expected %v, got %v", name, i, ov, gv)
			}
		}
	}

	ix := back.Index()
	if ix == nil {
		t.Fatal("Expected index after decode")
	}
	if ix.Name() != "timestamp" {
		t.Errorf("Expected index name timestamp, got %q", ix.Name())
	}
	if ix.Zone() == nil || ix.Zone().String() != "US/Pacific" {
		t.Errorf("Expected zone US/Pacific, got %v", ix.Zone())
	}
	if ix.Freq() != 900*time.Second {
		t.Errorf("Expected freq 900s, got %v", ix.Freq())
	}
	for i, want := range tbl.Index().Times() {
		if !ix.Time(i).Equal(want) {
			t.Errorf("Index entry %d: expected %v, got %v", i, want, ix.Time(i))
		}
	}
}

func TestRoundTripValidatesAgainstDefinition(t *testing.T) {
	d, err := frame.NewDef(
		frame.InputColumn("power", "float"),
		frame.InputColumn("customer_id", "UInt64"),
		frame.ResultColumn("energy", "float"),
	)
	if err != nil {
		t.Fatalf("NewDef returned error: %v", err)
	}

	data, err := Encode(d.EmptyTable())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !d.Validate(back) {
		t.Error("Expected decoded empty table to validate against its definition")
	}
}

func TestRoundTripPeriodicEmpty(t *testing.T) {
	d, err := frame.NewDef(frame.InputColumn("power", "float"))
	if err != nil {
		t.Fatalf("NewDef returned error: %v", err)
	}
	p, err := frame.NewPeriodicTable(900, "US/Pacific", d, nil)
	if err != nil {
		t.Fatalf("NewPeriodicTable returned error: %v", err)
	}

	data, err := Encode(p.Table())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !p.Validate(back) {
		t.Error("Expected decoded empty table to pass the periodic check")
	}
}

func TestDecodeBadMagic(t *testing.T) {
	data, err := Encode(sampleTable(t))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	data[0] = 'X'
	if _, err := Decode(data); !errors.Is(err, ErrBadMagic) {
		t.Errorf("Expected ErrBadMagic, got %v", err)
	}
}

func TestDecodeBadVersion(t *testing.T) {
	data, err := Encode(sampleTable(t))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	data[4] = 0xFF
	if _, err := Decode(data); !errors.Is(err, ErrBadVersion) {
		t.Errorf("Expected ErrBadVersion, got %v", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode(sampleTable(t))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	if _, err := Decode(data[:10]); !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated for cut header, got %v", err)
	}
	if _, err := Decode(data[:len(data)-5]); err == nil {
		t.Error("Expected error for cut tail")
	}
}

func TestDecodeChecksumMismatch(t *testing.T) {
	data, err := Encode(sampleTable(t))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	// Flip a byte inside the first block's payload.
	data[headerSize+blockHeader] ^= 0xFF
	if _, err := Decode(data); !errors.Is(err, ErrChecksum) {
		t.Errorf("Expected ErrChecksum, got %v", err)
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	data, err := Encode(sampleTable(t))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	data = append(data, 0xAA)
	if _, err := Decode(data); !errors.Is(err, ErrCorrupted) {
		t.Errorf("Expected ErrCorrupted for trailing bytes, got %v", err)
	}
}

func TestEncodeNilTable(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Error("Expected error for nil table")
	}
}

func TestRoundTripNaiveDatetime(t *testing.T) {
	ts := time.Date(2026, 8, 24, 12, 30, 0, 0, time.UTC)
	tbl := frame.NewTable()
	if err := tbl.AddColumn("observed", mustSeries(t, "datetime64[ns]", ts)); err != nil {
		t.Fatalf("AddColumn returned error: %v", err)
	}

	data, err := Encode(tbl)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	got := back.Column("observed").Value(0).(time.Time)
	if !got.Equal(ts) {
		t.Errorf("Expected %v, got %v", ts, got)
	}
}
