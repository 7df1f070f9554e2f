package aggregator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"dashgen-backend/internal/model"
)

const (
	// Count as a metric column counts rows instead of summing a column.
	Count = "count"
	// MaxPoints bounds every series.
	MaxPoints = 30
)

type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Series is ordered by value descending and holds at most MaxPoints entries.
type Series []Point

func IsCount(metric string) bool {
	return metric == "" || strings.EqualFold(metric, Count)
}

// Aggregate groups rows by the dimension column and sums the metric column
// (or counts rows). Ties keep the order in which groups were first seen.
func Aggregate(rows []model.Row, dimension, metric string) Series {
	counting := IsCount(metric)
	index := make(map[string]int)
	series := make(Series, 0)

	for _, row := range rows {
		key := Stringify(Lookup(row, dimension))
		value := 1.0
		if !counting {
			value = ToNumber(Lookup(row, metric))
		}
		if i, ok := index[key]; ok {
			series[i].Value += value
			continue
		}
		index[key] = len(series)
		series = append(series, Point{Name: key, Value: value})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Value > series[j].Value
	})
	if len(series) > MaxPoints {
		series = series[:MaxPoints]
	}
	return series
}

// Total sums the values of the series.
func (s Series) Total() float64 {
	total := 0.0
	for _, p := range s {
		total += p.Value
	}
	return total
}

type reduceOp string

const (
	opCount reduceOp = "count"
	opSum   reduceOp = "sum"
	opAvg   reduceOp = "avg"
	opMin   reduceOp = "min"
	opMax   reduceOp = "max"
)

// Reducer is a parsed KPI expression: "count", "sum:col", "avg:col",
// "min:col", "max:col" or a bare column name, which sums.
type Reducer struct {
	op     reduceOp
	column string
}

func ParseReducer(expr string) (Reducer, error) {
	expr = strings.TrimSpace(expr)
	if IsCount(expr) {
		return Reducer{op: opCount}, nil
	}
	name, column, hasOp := strings.Cut(expr, ":")
	if !hasOp {
		return Reducer{op: opSum, column: expr}, nil
	}
	column = strings.TrimSpace(column)
	if column == "" {
		return Reducer{}, fmt.Errorf("expression %q has no column", expr)
	}
	switch op := reduceOp(strings.ToLower(strings.TrimSpace(name))); op {
	case opSum, opAvg, opMin, opMax:
		return Reducer{op: op, column: column}, nil
	case "mean", "average":
		return Reducer{op: opAvg, column: column}, nil
	case opCount:
		return Reducer{op: opCount}, nil
	default:
		return Reducer{}, fmt.Errorf("unsupported operation %q in expression %q", name, expr)
	}
}

// Reduce evaluates the expression over rows. Averages, minima and maxima of
// zero rows are nil.
func (r Reducer) Reduce(rows []model.Row) any {
	if r.op == opCount {
		return float64(len(rows))
	}
	if len(rows) == 0 {
		if r.op == opSum {
			return 0.0
		}
		return nil
	}

	acc := 0.0
	switch r.op {
	case opMin:
		acc = math.Inf(1)
	case opMax:
		acc = math.Inf(-1)
	}
	for _, row := range rows {
		v := ToNumber(Lookup(row, r.column))
		switch r.op {
		case opSum, opAvg:
			acc += v
		case opMin:
			acc = math.Min(acc, v)
		case opMax:
			acc = math.Max(acc, v)
		}
	}
	if r.op == opAvg {
		acc /= float64(len(rows))
	}
	return acc
}

// Evaluate parses and reduces in one step.
func Evaluate(rows []model.Row, expr string) (any, error) {
	r, err := ParseReducer(expr)
	if err != nil {
		return nil, err
	}
	return r.Reduce(rows), nil
}
