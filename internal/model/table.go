package model

// Row maps a column name to a scalar cell value: string, int64, float64, bool or nil.
type Row map[string]any

// Table is an ordered sequence of rows sharing one schema.
type Table struct {
	Columns []string          `json:"columns"`
	Types   map[string]string `json:"col_types"`
	Rows    []Row             `json:"rows"`
}

// WithRows returns a table with the same schema and the given rows.
func (t *Table) WithRows(rows []Row) *Table {
	if t == nil {
		return &Table{Rows: rows}
	}
	return &Table{
		Columns: t.Columns,
		Types:   t.Types,
		Rows:    rows,
	}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
