// Package frame provides schema definitions and validated tables for
// fixed-shape columnar data.
//
// A Def declares the expected shape of a Table: ordered named columns, each
// with an exact dtype tag and an input/result role flag. Validation is
// closed-world — a table conforms only when it carries exactly the defined
// columns, no more and no fewer, each with the exact declared dtype.
// ValidatedTable couples a Def with a Table and refuses to hold a
// non-conforming value; PeriodicTable extends the check to a fixed-frequency
// timezone-aware timestamp index. Definitions serialize as ordered column
// record lists, and deserialization re-runs full construction, so a persisted
// definition round-trips or fails loudly.
package frame

import (
	"encoding/json"
	"fmt"

	"github.com/gridframe/gridframe/pkg/dtype"
)

// ColumnDef is one column declaration inside a Def: a unique non-empty name,
// a resolved dtype tag, and a flag marking the column as externally supplied
// input rather than computed output. ColumnDefs are immutable and created
// only through Def insertion.
type ColumnDef struct {
	name    string
	dt      dtype.DType
	isInput bool
}

// Name returns the column name.
func (c *ColumnDef) Name() string {
	return c.name
}

// DType returns the resolved column type tag.
func (c *ColumnDef) DType() dtype.DType {
	return c.dt
}

// IsInput reports whether the column holds externally supplied input.
func (c *ColumnDef) IsInput() bool {
	return c.isInput
}

// Record returns the serializable form of the declaration with the canonical
// dtype string.
func (c *ColumnDef) Record() ColumnRecord {
	return ColumnRecord{Name: c.name, DType: c.dt.String(), IsInput: c.isInput}
}

// ColumnRecord is the wire form of a column declaration. A record list is
// ordered; round-tripping a Def through records preserves column order and
// every field.
type ColumnRecord struct {
	Name    string `json:"name"`
	DType   string `json:"dtype_str"`
	IsInput bool   `json:"is_input"`
}

// UnmarshalJSON decodes a record, defaulting is_input to true when the field
// is absent.
func (r *ColumnRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string `json:"name"`
		DType   string `json:"dtype_str"`
		IsInput *bool  `json:"is_input"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = raw.Name
	r.DType = raw.DType
	r.IsInput = raw.IsInput == nil || *raw.IsInput
	return nil
}

// InputColumn builds a record for an externally supplied column.
func InputColumn(name, dtypeStr string) ColumnRecord {
	return ColumnRecord{Name: name, DType: dtypeStr, IsInput: true}
}

// ResultColumn builds a record for a computed column.
func ResultColumn(name, dtypeStr string) ColumnRecord {
	return ColumnRecord{Name: name, DType: dtypeStr, IsInput: false}
}

// Def is a frame definition: the ordered set of column declarations a
// conforming table must carry. The zero value is a valid empty definition.
type Def struct {
	cols []*ColumnDef
}

// NewDef creates a definition from column records, in order. Construction is
// atomic: the first bad record aborts with the corresponding error and no
// partial definition is returned.
func NewDef(records ...ColumnRecord) (*Def, error) {
	d := &Def{}
	for _, r := range records {
		if err := d.AddColumn(r.Name, r.DType, r.IsInput); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddColumn declares a column. It fails with ErrMissingOwner on a nil
// receiver, ErrMissingName on an empty name, ErrDuplicateName when the name
// is already declared, and ErrUnknownType when the dtype string does not
// resolve. The declaration is linked only after every check passes.
func (d *Def) AddColumn(name, dtypeStr string, isInput bool) error {
	if d == nil {
		return ErrMissingOwner
	}
	if name == "" {
		return ErrMissingName
	}
	if d.Column(name) != nil {
		return ErrDuplicateName.WithMessage(fmt.Sprintf("column name %q is already in use", name))
	}
	dt, err := dtype.Parse(dtypeStr)
	if err != nil {
		return newError(CodeUnknownType, err)
	}
	d.cols = append(d.cols, &ColumnDef{name: name, dt: dt, isInput: isInput})
	return nil
}

// RemoveColumn deletes the named declaration. Removing an absent name is a
// silent no-op.
func (d *Def) RemoveColumn(name string) {
	for i, c := range d.cols {
		if c.name == name {
			d.cols = append(d.cols[:i], d.cols[i+1:]...)
			return
		}
	}
}

// Column returns the declaration for name, nil when the definition has no
// such column.
func (d *Def) Column(name string) *ColumnDef {
	for _, c := range d.cols {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Columns returns the declarations in definition order.
func (d *Def) Columns() []*ColumnDef {
	cols := make([]*ColumnDef, len(d.cols))
	copy(cols, d.cols)
	return cols
}

// NumColumns returns the number of declared columns.
func (d *Def) NumColumns() int {
	return len(d.cols)
}

// ColumnNames returns the set of declared names.
func (d *Def) ColumnNames() map[string]bool {
	names := make(map[string]bool, len(d.cols))
	for _, c := range d.cols {
		names[c.name] = true
	}
	return names
}

// Records returns the serializable form of the definition, in order, with
// canonical dtype strings.
func (d *Def) Records() []ColumnRecord {
	records := make([]ColumnRecord, len(d.cols))
	for i, c := range d.cols {
		records[i] = c.Record()
	}
	return records
}

// EmptyTable synthesizes a zero-row table with exactly the defined columns in
// definition order, each typed per its declaration, and no index. The result
// always passes Validate.
func (d *Def) EmptyTable() *Table {
	t := NewTable()
	for _, c := range d.cols {
		// Names are unique by construction, so this cannot fail.
		_ = t.AddColumn(c.name, NewSeries(c.dt))
	}
	return t
}

// Validate reports whether the table conforms to the definition: the same
// number of columns, every declared name present, and every dtype tag exactly
// equal. A nil table does not conform. Validate never fails with an error; a
// structurally wrong table is simply non-conforming.
func (d *Def) Validate(t *Table) bool {
	if t == nil {
		return false
	}
	if t.NumColumns() != len(d.cols) {
		return false
	}
	for _, c := range d.cols {
		s := t.Column(c.name)
		if s == nil {
			return false
		}
		if !s.DType().Equal(c.dt) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the definition as its ordered record list.
func (d *Def) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Records())
}

// UnmarshalJSON decodes a record list and re-runs full construction, so a
// stored definition with duplicate names or unknown dtypes fails here the
// same way it would in NewDef.
func (d *Def) UnmarshalJSON(data []byte) error {
	var records []ColumnRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	nd, err := NewDef(records...)
	if err != nil {
		return err
	}
	*d = *nd
	return nil
}
