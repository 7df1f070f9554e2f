package aggregator_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
)

func TestAggregate_SumsByCategory(t *testing.T) {
	rows := []model.Row{
		{"cat": "a", "val": "10"},
		{"cat": "a", "val": "5"},
		{"cat": "b", "val": "3"},
	}

	series := aggregator.Aggregate(rows, "cat", "val")

	assert.Equal(t, aggregator.Series{
		{Name: "a", Value: 15},
		{Name: "b", Value: 3},
	}, series)
}

func TestAggregate_CaseInsensitiveColumn(t *testing.T) {
	rows := []model.Row{{"Name": "A"}}

	series := aggregator.Aggregate(rows, "name", aggregator.Count)

	require.Len(t, series, 1)
	assert.Equal(t, "A", series[0].Name)
	assert.Equal(t, 1.0, series[0].Value)
}

func TestAggregate_MissingColumnFallsIntoNA(t *testing.T) {
	rows := []model.Row{{"x": 1}, {"x": 2}, {"region": nil}}

	series := aggregator.Aggregate(rows, "region", "")

	assert.Equal(t, aggregator.Series{{Name: aggregator.MissingKey, Value: 3}}, series)
}

func TestAggregate_StableOnTies(t *testing.T) {
	rows := []model.Row{
		{"k": "z"}, {"k": "y"}, {"k": "x"}, {"k": "y"}, {"k": "z"}, {"k": "x"},
	}

	series := aggregator.Aggregate(rows, "k", aggregator.Count)

	names := make([]string, 0, len(series))
	for _, p := range series {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"z", "y", "x"}, names)
}

func TestAggregate_NumericKeysAndEmptyInput(t *testing.T) {
	assert.Empty(t, aggregator.Aggregate(nil, "a", "b"))

	rows := []model.Row{{"year": int64(2020), "v": 1.5}, {"year": 2021.0, "v": 2.5}}
	series := aggregator.Aggregate(rows, "year", "v")
	assert.Equal(t, aggregator.Series{{Name: "2021", Value: 2.5}, {Name: "2020", Value: 1.5}}, series)
}

func TestAggregate_BoundedAndNonIncreasing(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		rows := make([]model.Row, 0, 500)
		for i := 0; i < 500; i++ {
			rows = append(rows, model.Row{
				"group": fmt.Sprintf("g%d", r.Intn(80)),
				"value": r.Float64() * 100,
			})
		}

		series := aggregator.Aggregate(rows, "group", "value")
		assert.LessOrEqual(t, len(series), aggregator.MaxPoints)
		for i := 1; i < len(series); i++ {
			assert.GreaterOrEqual(t, series[i-1].Value, series[i].Value)
		}

		counted := aggregator.Aggregate(rows[:40], "group", aggregator.Count)
		if len(counted) < aggregator.MaxPoints {
			assert.Equal(t, 40.0, counted.Total())
		}
	}
}

func TestAggregate_CountTotalEqualsRowCount(t *testing.T) {
	rows := []model.Row{{"c": "a"}, {"c": "b"}, {"c": nil}, {"c": "a"}, {}}

	series := aggregator.Aggregate(rows, "c", "COUNT")

	assert.Equal(t, float64(len(rows)), series.Total())
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{name: "currency text", input: "$1,234.50", want: 1234.5},
		{name: "letters", input: "abc", want: 0},
		{name: "null", input: nil, want: 0},
		{name: "empty", input: "", want: 0},
		{name: "negative", input: "-42", want: -42},
		{name: "leading prefix", input: "1.2.3", want: 1.2},
		{name: "lone dash", input: "-", want: 0},
		{name: "fraction only", input: ".5", want: 0.5},
		{name: "float", input: 2.25, want: 2.25},
		{name: "int64", input: int64(7), want: 7},
		{name: "bool", input: true, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, aggregator.ToNumber(tt.input), 1e-9)
		})
	}
}

func TestLookup_PrefersExactKey(t *testing.T) {
	row := model.Row{"region": "eu", "REGION": "us", "Region": "apac"}

	assert.Equal(t, "eu", aggregator.Lookup(row, "region"))
	assert.Equal(t, "us", aggregator.Lookup(row, "REGION"))
	assert.Equal(t, "us", aggregator.Lookup(row, "rEgIoN"))
	assert.Nil(t, aggregator.Lookup(row, "country"))
}

func TestEvaluate(t *testing.T) {
	rows := []model.Row{{"Sales": "10"}, {"Sales": 30.0}, {"Sales": nil}}

	tests := []struct {
		expr string
		want any
	}{
		{expr: "count", want: 3.0},
		{expr: "", want: 3.0},
		{expr: "sales", want: 40.0},
		{expr: "sum:sales", want: 40.0},
		{expr: "avg:Sales", want: 40.0 / 3},
		{expr: "min:sales", want: 0.0},
		{expr: "max:sales", want: 30.0},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := aggregator.Evaluate(rows, tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := aggregator.Evaluate(rows, "median:sales")
	assert.Error(t, err)

	avg, err := aggregator.Evaluate(nil, "avg:sales")
	require.NoError(t, err)
	assert.Nil(t, avg)
}
