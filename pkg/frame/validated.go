package frame

// Validator is the validation capability a table holder relies on:
// conformance checking and synthesis of a conforming empty table. Def,
// ValidatedTable and PeriodicTable all provide it; persistence code accepts a
// Validator rather than a concrete wrapper.
type Validator interface {
	Validate(t *Table) bool
	EmptyTable() *Table
}

var (
	_ Validator = (*Def)(nil)
	_ Validator = (*ValidatedTable)(nil)
	_ Validator = (*PeriodicTable)(nil)
)

// ValidatedTable couples a frame definition with a table and never holds a
// non-conforming value: the initial table and every later assignment go
// through Validate, and a failed check leaves the previous table in place.
type ValidatedTable struct {
	def   *Def
	table *Table
}

// NewValidatedTable creates a wrapper for def holding table. A nil def is
// replaced with an empty definition; a nil table is replaced with the
// definition's empty table, which conforms by construction. A non-conforming
// table fails with ErrInvalidTable.
func NewValidatedTable(def *Def, table *Table) (*ValidatedTable, error) {
	if def == nil {
		def = &Def{}
	}
	v := &ValidatedTable{def: def}
	if table == nil {
		table = v.EmptyTable()
	}
	if !v.Validate(table) {
		return nil, ErrInvalidTable
	}
	v.table = table
	return v, nil
}

// Def returns the frame definition.
func (v *ValidatedTable) Def() *Def {
	return v.def
}

// Table returns the held table.
func (v *ValidatedTable) Table() *Table {
	return v.table
}

// SetTable replaces the held table. A non-conforming table fails with
// ErrInvalidTable and leaves the current table unchanged.
func (v *ValidatedTable) SetTable(t *Table) error {
	if !v.Validate(t) {
		return ErrInvalidTable
	}
	v.table = t
	return nil
}

// Validate reports whether the table conforms to the definition.
func (v *ValidatedTable) Validate(t *Table) bool {
	return v.def.Validate(t)
}

// EmptyTable synthesizes a conforming zero-row table.
func (v *ValidatedTable) EmptyTable() *Table {
	return v.def.EmptyTable()
}
