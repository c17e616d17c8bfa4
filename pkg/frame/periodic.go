package frame

import (
	"fmt"
	"time"
)

// DefaultIndexName is the name given to the timestamp index of synthesized
// periodic empty tables. Validation does not compare index names.
const DefaultIndexName = "timestamp"

// PeriodicTable is a ValidatedTable whose tables must additionally carry a
// timestamp index in a fixed timezone with a fixed frequency. Zone and period
// are set at construction and immutable afterwards.
type PeriodicTable struct {
	ValidatedTable
	zone   *time.Location
	period time.Duration
}

// NewPeriodicTable creates a periodic wrapper. The timezone is an IANA zone
// name or a *time.Location; the period takes any form NormalizePeriod
// accepts. Nil def and table default the same way as in NewValidatedTable,
// and the initial table must pass the full periodic check, index included.
func NewPeriodicTable(period, timezone any, def *Def, table *Table) (*PeriodicTable, error) {
	zone, err := resolveZone(timezone)
	if err != nil {
		return nil, err
	}
	dur, err := NormalizePeriod(period)
	if err != nil {
		return nil, err
	}
	if def == nil {
		def = &Def{}
	}
	p := &PeriodicTable{
		ValidatedTable: ValidatedTable{def: def},
		zone:           zone,
		period:         dur,
	}
	if table == nil {
		table = p.EmptyTable()
	}
	if !p.Validate(table) {
		return nil, ErrInvalidTable
	}
	p.table = table
	return p, nil
}

// resolveZone accepts an IANA zone name or an existing *time.Location.
func resolveZone(timezone any) (*time.Location, error) {
	switch v := timezone.(type) {
	case *time.Location:
		if v == nil {
			return nil, fmt.Errorf("frame: timezone location is nil")
		}
		return v, nil
	case string:
		zone, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("frame: unknown timezone %q: %w", v, err)
		}
		return zone, nil
	default:
		return nil, fmt.Errorf("frame: unsupported timezone type %T", timezone)
	}
}

// Zone returns the required index timezone.
func (p *PeriodicTable) Zone() *time.Location {
	return p.zone
}

// Period returns the required index frequency.
func (p *PeriodicTable) Period() time.Duration {
	return p.period
}

// Validate reports whether the table conforms to the definition and carries a
// timestamp index in the required timezone with the required frequency. The
// column check runs first and a failure short-circuits the index check. Zones
// are compared by name, so two loads of the same IANA zone match.
func (p *PeriodicTable) Validate(t *Table) bool {
	if !p.ValidatedTable.Validate(t) {
		return false
	}
	ix := t.Index()
	if ix == nil || ix.Zone() == nil {
		return false
	}
	if ix.Zone().String() != p.zone.String() {
		return false
	}
	return ix.Freq() == p.period
}

// EmptyTable synthesizes a conforming zero-row table: the definition's
// columns plus an empty timestamp index named DefaultIndexName carrying the
// required zone and frequency.
func (p *PeriodicTable) EmptyTable() *Table {
	t := p.ValidatedTable.EmptyTable()
	// A zero-length index always fits a zero-row table.
	_ = t.SetIndex(NewIndex(DefaultIndexName, p.zone, p.period))
	return t
}

// SetTable replaces the held table after the full periodic check. A
// non-conforming table fails with ErrInvalidTable and leaves the current
// table unchanged.
func (p *PeriodicTable) SetTable(t *Table) error {
	if !p.Validate(t) {
		return ErrInvalidTable
	}
	p.table = t
	return nil
}
