package aggregator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"dashgen-backend/internal/model"
)

// MissingKey is the bucket used for null dimension values.
const MissingKey = "N/A"

// Lookup returns the row value for column. An exact key wins; otherwise the
// lexicographically smallest key equal to column ignoring case is used. A
// column with no match yields nil.
func Lookup(row model.Row, column string) any {
	if v, ok := row[column]; ok {
		return v
	}
	var (
		match string
		found bool
	)
	for key := range row {
		if !strings.EqualFold(key, column) {
			continue
		}
		if !found || key < match {
			match, found = key, true
		}
	}
	if !found {
		return nil
	}
	return row[match]
}

// Stringify renders a cell as a grouping key.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return MissingKey
	case string:
		return t
	case float64:
		if math.IsNaN(t) {
			return MissingKey
		}
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// ToNumber coerces a cell to a number. Text is reduced to digits, '.' and '-'
// and its leading numeric prefix parsed; anything unparsable is 0.
func ToNumber(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		f = parseLeadingFloat(stripNonNumeric(t))
	default:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return 0
		}
		f = n
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseLeadingFloat(s string) float64 {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := i - start
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracDigits = j - i - 1
		if fracDigits > 0 {
			i = j
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0
	}
	return f
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
