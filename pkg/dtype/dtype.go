// Package dtype provides the column type registry for gridframe schemas.
//
// Column types are identified by dtype strings in the vocabulary shared with
// columnar tools: lowercase names ("float64", "int32", "bool", "object"),
// capitalized nullable extension names ("Int64", "UInt64", "boolean"), and
// timestamp types ("datetime64[ns]", "datetime64[ns, US/Pacific]"). Parse
// resolves a string to a DType tag; String renders the canonical form, so
// Parse(d.String()) round-trips for every valid tag. Equality between tags is
// plain value comparison.
package dtype

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies the scalar kind of a column type.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Datetime   // naive nanosecond timestamp
	DatetimeTZ // zone-carrying nanosecond timestamp
	Object     // generic object/string
)

// ErrUnknownType is returned by Parse for strings outside the registry.
var ErrUnknownType = errors.New("dtype: unknown type string")

// kindNames holds the canonical non-nullable name per kind.
var kindNames = map[Kind]string{
	Bool:     "bool",
	Int8:     "int8",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	Uint8:    "uint8",
	Uint16:   "uint16",
	Uint32:   "uint32",
	Uint64:   "uint64",
	Float32:  "float32",
	Float64:  "float64",
	Datetime: "datetime64[ns]",
	Object:   "object",
}

// nullableNames holds the canonical nullable extension name per kind.
var nullableNames = map[Kind]string{
	Bool:    "boolean",
	Int8:    "Int8",
	Int16:   "Int16",
	Int32:   "Int32",
	Int64:   "Int64",
	Uint8:   "UInt8",
	Uint16:  "UInt16",
	Uint32:  "UInt32",
	Uint64:  "UInt64",
	Float32: "Float32",
	Float64: "Float64",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if k == DatetimeTZ {
		return "datetime64[ns, tz]"
	}
	return "invalid"
}

// Numeric reports whether the kind holds numeric values.
func (k Kind) Numeric() bool {
	return k >= Int8 && k <= Float64
}

// DType is a column type tag: the scalar kind, whether missing values are
// representable, and for DatetimeTZ the IANA zone name. Two tags are the same
// type exactly when all three fields are equal; == is the comparison.
type DType struct {
	Kind     Kind
	Nullable bool
	Zone     string
}

// registry maps every accepted dtype string, canonical or alias, to its tag.
// Zone-carrying timestamp strings are handled separately by Parse.
var registry = map[string]DType{
	"bool":           {Kind: Bool},
	"boolean":        {Kind: Bool, Nullable: true},
	"int":            {Kind: Int64},
	"int8":           {Kind: Int8},
	"int16":          {Kind: Int16},
	"int32":          {Kind: Int32},
	"int64":          {Kind: Int64},
	"uint":           {Kind: Uint64},
	"uint8":          {Kind: Uint8},
	"uint16":         {Kind: Uint16},
	"uint32":         {Kind: Uint32},
	"uint64":         {Kind: Uint64},
	"Int8":           {Kind: Int8, Nullable: true},
	"Int16":          {Kind: Int16, Nullable: true},
	"Int32":          {Kind: Int32, Nullable: true},
	"Int64":          {Kind: Int64, Nullable: true},
	"UInt8":          {Kind: Uint8, Nullable: true},
	"UInt16":         {Kind: Uint16, Nullable: true},
	"UInt32":         {Kind: Uint32, Nullable: true},
	"UInt64":         {Kind: Uint64, Nullable: true},
	"float":          {Kind: Float64},
	"float32":        {Kind: Float32},
	"float64":        {Kind: Float64},
	"Float32":        {Kind: Float32, Nullable: true},
	"Float64":        {Kind: Float64, Nullable: true},
	"object":         {Kind: Object},
	"str":            {Kind: Object},
	"string":         {Kind: Object},
	"datetime64[ns]": {Kind: Datetime},
}

const (
	tzPrefix = "datetime64[ns, "
	tzSuffix = "]"
)

// Parse resolves a dtype string to its tag. Aliases resolve to the same tag
// as their canonical form ("float" and "float64" are one type). Zone names in
// "datetime64[ns, <zone>]" strings are checked against the IANA database on
// the host; the spelling from the input is retained on the tag so that later
// comparisons are string comparisons. Unrecognized strings fail with
// ErrUnknownType.
func Parse(s string) (DType, error) {
	if d, ok := registry[s]; ok {
		return d, nil
	}
	if strings.HasPrefix(s, tzPrefix) && strings.HasSuffix(s, tzSuffix) {
		zone := s[len(tzPrefix) : len(s)-len(tzSuffix)]
		if zone == "" {
			return DType{}, fmt.Errorf("%w: %q", ErrUnknownType, s)
		}
		if _, err := time.LoadLocation(zone); err != nil {
			return DType{}, fmt.Errorf("%w: %q: %v", ErrUnknownType, s, err)
		}
		return DType{Kind: DatetimeTZ, Zone: zone}, nil
	}
	return DType{}, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// String renders the canonical dtype string for the tag.
func (d DType) String() string {
	if d.Kind == DatetimeTZ {
		return tzPrefix + d.Zone + tzSuffix
	}
	if d.Nullable {
		if name, ok := nullableNames[d.Kind]; ok {
			return name
		}
	}
	if name, ok := kindNames[d.Kind]; ok {
		return name
	}
	return "invalid"
}

// Equal reports whether two tags denote the same column type.
func (d DType) Equal(other DType) bool {
	return d == other
}

// Valid reports whether the tag denotes a registered type.
func (d DType) Valid() bool {
	return d.Kind != Invalid
}

// Location resolves the tag's zone name. It returns nil for tags without a
// zone.
func (d DType) Location() (*time.Location, error) {
	if d.Kind != DatetimeTZ {
		return nil, nil
	}
	return time.LoadLocation(d.Zone)
}
