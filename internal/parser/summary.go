package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"dashgen-backend/internal/model"
)

const sampleSize = 3

// Summary is the dataset description handed to the planner.
type Summary struct {
	Text     string
	ColTypes map[string]string
}

// Summarize lists the row count and, per column, its type and up to three
// non-null sample values.
func Summarize(t *model.Table) Summary {
	lines := []string{fmt.Sprintf("Rows: %d", len(t.Rows))}
	types := make(map[string]string, len(t.Columns))

	for _, col := range t.Columns {
		typ := t.Types[col]
		if typ == "" {
			typ = TypeObject
		}
		types[col] = typ

		samples := make([]string, 0, sampleSize)
		for _, row := range t.Rows {
			if len(samples) == sampleSize {
				break
			}
			if v := row[col]; v != nil {
				samples = append(samples, repr(v))
			}
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): [%s]", col, typ, strings.Join(samples, ", ")))
	}
	return Summary{Text: strings.Join(lines, "\n"), ColTypes: types}
}

func repr(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return cast.ToString(v)
}
