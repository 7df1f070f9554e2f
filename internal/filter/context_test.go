package filter_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/filter"
	"dashgen-backend/internal/model"
)

func TestToggle_SetReplaceRemove(t *testing.T) {
	var ctx filter.Context

	ctx = ctx.Toggle("region", "EU")
	v, ok := ctx.Get("region")
	require.True(t, ok)
	assert.Equal(t, "EU", v)

	ctx = ctx.Toggle("region", "US")
	v, _ = ctx.Get("region")
	assert.Equal(t, "US", v)
	assert.Equal(t, 1, ctx.Len())

	ctx = ctx.Toggle("region", "US")
	assert.True(t, ctx.IsEmpty())
}

func TestToggle_DoesNotMutateReceiver(t *testing.T) {
	base := filter.FromMap(map[string]string{"a": "1"})

	_ = base.Toggle("b", "2")
	_ = base.Toggle("a", "1")

	assert.Equal(t, map[string]string{"a": "1"}, base.Map())
}

func TestToggle_Involutive(t *testing.T) {
	contexts := []filter.Context{
		{},
		filter.FromMap(map[string]string{"a": "1"}),
		filter.FromMap(map[string]string{"a": "1", "b": "2"}),
		filter.FromMap(map[string]string{"c": "x", "b": "2"}),
	}
	toggles := [][2]string{{"a", "1"}, {"b", "2"}, {"c", "x"}, {"d", "new"}}

	for _, ctx := range contexts {
		for _, tg := range toggles {
			if current, ok := ctx.Get(tg[0]); ok && current != tg[1] {
				// replacing a different value is a one-way step
				continue
			}
			twice := ctx.Toggle(tg[0], tg[1]).Toggle(tg[0], tg[1])
			assert.True(t, twice.Equal(ctx), "toggle %v twice on %v", tg, ctx.Map())
		}
	}
}

func TestApply_AndSemantics(t *testing.T) {
	rows := []model.Row{
		{"region": "EU", "x": 1},
		{"region": "US", "x": 2},
	}

	got := filter.Apply(rows, filter.FromMap(map[string]string{"region": "EU"}))

	assert.Equal(t, []model.Row{{"region": "EU", "x": 1}}, got)
}

func TestApply_MultiplePredicates(t *testing.T) {
	rows := []model.Row{
		{"Region": "EU", "Year": int64(2023)},
		{"Region": "EU", "Year": int64(2024)},
		{"Region": "US", "Year": int64(2024)},
		{"Region": nil, "Year": int64(2024)},
	}

	ctx := filter.Context{}.Toggle("region", "EU").Toggle("year", "2024")
	assert.Equal(t, []model.Row{rows[1]}, ctx.Apply(rows))

	assert.Len(t, filter.Context{}.Apply(rows), 4)

	na := filter.Context{}.Toggle("region", aggregator.MissingKey)
	assert.Equal(t, []model.Row{rows[3]}, na.Apply(rows))
}

func TestTags_InsertionOrder(t *testing.T) {
	ctx := filter.Context{}.Toggle("zone", "north").Toggle("cat", "a")

	assert.Equal(t, []filter.Tag{
		{Column: "zone", Value: "north", Label: "zone: north"},
		{Column: "cat", Value: "a", Label: "cat: a"},
	}, ctx.Tags())
}

func TestContext_JSON(t *testing.T) {
	ctx := filter.Context{}.Toggle("cat", "a")

	raw, err := json.Marshal(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cat":"a"}`, string(raw))

	var decoded filter.Context
	require.NoError(t, json.Unmarshal([]byte(`{"b":"2","a":"1"}`), &decoded))
	assert.Equal(t, "a", decoded.Tags()[0].Column)
}

func TestCrossFilterScenario(t *testing.T) {
	rows := []model.Row{
		{"cat": "a", "val": "10"},
		{"cat": "a", "val": "5"},
		{"cat": "b", "val": "3"},
	}

	ctx := filter.Context{}.Toggle("cat", "a")
	assert.Equal(t, aggregator.Series{{Name: "a", Value: 15}}, aggregator.Aggregate(ctx.Apply(rows), "cat", "val"))

	ctx = ctx.Toggle("cat", "a")
	assert.Equal(t, aggregator.Series{{Name: "a", Value: 15}, {Name: "b", Value: 3}}, aggregator.Aggregate(ctx.Apply(rows), "cat", "val"))
}
