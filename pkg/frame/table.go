package frame

import "fmt"

// column pairs a name with its series inside a table.
type column struct {
	name   string
	series *Series
}

// Table is an ordered collection of named series with an optional timestamp
// index. All columns hold the same number of rows. Table itself enforces only
// structural consistency (unique names, equal lengths); conformance to a
// declared schema is the business of Def.Validate and the table wrappers.
type Table struct {
	cols  []column
	index *Index
}

// NewTable creates an empty table with no columns and no index.
func NewTable() *Table {
	return &Table{}
}

// AddColumn appends a named series. The name must be non-empty and unused,
// and the series length must match the table's current row count.
func (t *Table) AddColumn(name string, s *Series) error {
	if name == "" {
		return fmt.Errorf("frame: table column name must not be empty")
	}
	if s == nil {
		return fmt.Errorf("frame: table column %q has no series", name)
	}
	if t.Column(name) != nil {
		return fmt.Errorf("frame: table already has column %q", name)
	}
	if (len(t.cols) > 0 || t.index != nil) && s.Len() != t.NumRows() {
		return fmt.Errorf("frame: column %q has %d rows, table has %d", name, s.Len(), t.NumRows())
	}
	t.cols = append(t.cols, column{name: name, series: s})
	return nil
}

// Column returns the series for name, or nil when the table has no such
// column.
func (t *Table) Column(name string) *Series {
	for _, c := range t.cols {
		if c.name == name {
			return c.series
		}
	}
	return nil
}

// DropColumn removes the named column and reports whether it was present.
func (t *Table) DropColumn(name string) bool {
	for i, c := range t.cols {
		if c.name == name {
			t.cols = append(t.cols[:i], t.cols[i+1:]...)
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.cols)
}

// NumRows returns the row count: the length of the columns, or of the index
// when the table has no columns yet.
func (t *Table) NumRows() int {
	if len(t.cols) > 0 {
		return t.cols[0].series.Len()
	}
	if t.index != nil {
		return t.index.Len()
	}
	return 0
}

// SetIndex attaches a timestamp index, replacing any existing one. A nil
// index detaches. The index length must match the table's row count.
func (t *Table) SetIndex(ix *Index) error {
	if ix != nil && len(t.cols) > 0 && ix.Len() != t.NumRows() {
		return fmt.Errorf("frame: index has %d entries, table has %d rows", ix.Len(), t.NumRows())
	}
	t.index = ix
	return nil
}

// Index returns the attached index, nil when the table has none.
func (t *Table) Index() *Index {
	return t.index
}
