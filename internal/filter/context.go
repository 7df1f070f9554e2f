// Package filter holds the cross-filter predicate set shared by every
// component of an open dashboard.
package filter

import (
	"encoding/json"
	"sort"

	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
)

// Context maps a column to the one value rows must equal. The zero value is
// the empty context. A Context is never mutated; Toggle returns a copy.
type Context struct {
	columns []string
	values  map[string]string
}

type Tag struct {
	Column string `json:"column"`
	Value  string `json:"value"`
	Label  string `json:"label"`
}

// FromMap builds a context from a plain map, ordering columns by name.
func FromMap(m map[string]string) Context {
	columns := make([]string, 0, len(m))
	for c := range m {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	ctx := Context{columns: columns, values: make(map[string]string, len(m))}
	for c, v := range m {
		ctx.values[c] = v
	}
	return ctx
}

func (c Context) Len() int {
	return len(c.columns)
}

func (c Context) IsEmpty() bool {
	return len(c.columns) == 0
}

func (c Context) Get(column string) (string, bool) {
	v, ok := c.values[column]
	return v, ok
}

// Toggle removes column when it already holds value; otherwise it sets or
// replaces the value for column.
func (c Context) Toggle(column, value string) Context {
	next := c.clone()
	if current, ok := next.values[column]; ok && current == value {
		delete(next.values, column)
		for i, col := range next.columns {
			if col == column {
				next.columns = append(next.columns[:i], next.columns[i+1:]...)
				break
			}
		}
		return next
	}
	if _, ok := next.values[column]; !ok {
		next.columns = append(next.columns, column)
	}
	next.values[column] = value
	return next
}

// Equal compares predicate sets, ignoring insertion order.
func (c Context) Equal(other Context) bool {
	if c.Len() != other.Len() {
		return false
	}
	for col, v := range c.values {
		if ov, ok := other.values[col]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Match reports whether row satisfies every predicate.
func (c Context) Match(row model.Row) bool {
	for _, col := range c.columns {
		if aggregator.Stringify(aggregator.Lookup(row, col)) != c.values[col] {
			return false
		}
	}
	return true
}

// Apply returns the rows matching every predicate. An empty context returns
// rows unchanged.
func (c Context) Apply(rows []model.Row) []model.Row {
	if c.IsEmpty() {
		return rows
	}
	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if c.Match(row) {
			out = append(out, row)
		}
	}
	return out
}

// Tags lists the active predicates in the order they were first set.
func (c Context) Tags() []Tag {
	tags := make([]Tag, 0, len(c.columns))
	for _, col := range c.columns {
		v := c.values[col]
		tags = append(tags, Tag{Column: col, Value: v, Label: col + ": " + v})
	}
	return tags
}

func (c Context) Map() map[string]string {
	m := make(map[string]string, len(c.columns))
	for col, v := range c.values {
		m[col] = v
	}
	return m
}

func (c Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

func (c *Context) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = FromMap(m)
	return nil
}

func (c Context) clone() Context {
	next := Context{
		columns: make([]string, len(c.columns), len(c.columns)+1),
		values:  make(map[string]string, len(c.values)+1),
	}
	copy(next.columns, c.columns)
	for col, v := range c.values {
		next.values[col] = v
	}
	return next
}

// Apply is the package-level form of Context.Apply.
func Apply(rows []model.Row, ctx Context) []model.Row {
	return ctx.Apply(rows)
}
