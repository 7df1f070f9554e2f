package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardConfig_Validate(t *testing.T) {
	cfg := DashboardConfig{Components: []Component{
		{Type: ComponentChart, Chart: &ChartConfig{X: "region"}},
		{ID: "k", Type: ComponentKPI},
	}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "c0", cfg.Components[0].ID)
	assert.Equal(t, ChartBar, cfg.Components[0].Chart.Kind)
	assert.NotNil(t, cfg.Components[1].KPI)

	tests := []struct {
		name string
		cfg  DashboardConfig
	}{
		{"empty", DashboardConfig{}},
		{"duplicate ids", DashboardConfig{Components: []Component{
			{ID: "a", Type: ComponentKPI}, {ID: "a", Type: ComponentKPI},
		}}},
		{"chart without x", DashboardConfig{Components: []Component{
			{ID: "a", Type: ComponentChart, Chart: &ChartConfig{Y: "amount"}},
		}}},
		{"bad chart type", DashboardConfig{Components: []Component{
			{ID: "a", Type: ComponentChart, Chart: &ChartConfig{Kind: "radar", X: "x"}},
		}}},
		{"map without lon", DashboardConfig{Components: []Component{
			{ID: "a", Type: ComponentMap, Map: &MapConfig{Lat: "lat"}},
		}}},
		{"unknown type", DashboardConfig{Components: []Component{{ID: "a", Type: "table"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestComponent_JSON(t *testing.T) {
	in := Component{
		ID:    "c1",
		Type:  ComponentChart,
		Title: "Sales by region",
		Chart: &ChartConfig{Kind: ChartPie, X: "region", Y: "amount"},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c1","type":"chart","title":"Sales by region","chart_type":"pie","config":{"x":"region","y":"amount"}}`, string(raw))

	var out Component
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestComponent_UnmarshalVariants(t *testing.T) {
	var chart Component
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","type":"Line","config":{"x_column":"day","y_column":"count"}}`), &chart))
	assert.Equal(t, ComponentChart, chart.Type)
	assert.Equal(t, &ChartConfig{Kind: ChartLine, X: "day", Y: "count"}, chart.Chart)

	var kpi Component
	require.NoError(t, json.Unmarshal([]byte(`{"id":"k","type":"kpi","config":{"valueExpr":"sum:amount"}}`), &kpi))
	require.NotNil(t, kpi.KPI)
	assert.Equal(t, "sum:amount", kpi.KPI.ValueExpr)

	var mapChart Component
	require.NoError(t, json.Unmarshal([]byte(`{"id":"m1","type":"chart","chart_type":"Map","config":{"lat":"latitude","lon":"longitude"}}`), &mapChart))
	assert.Equal(t, ComponentMap, mapChart.Type)
	assert.Nil(t, mapChart.Chart)
	assert.Equal(t, &MapConfig{Lat: "latitude", Lon: "longitude"}, mapChart.Map)
	cfg := DashboardConfig{Components: []Component{mapChart}}
	assert.NoError(t, cfg.Validate())

	var bare Component
	require.NoError(t, json.Unmarshal([]byte(`{"id":"m","type":"map"}`), &bare))
	assert.Equal(t, &MapConfig{}, bare.Map)
}

func TestDashboardConfig_UnmarshalLegacy(t *testing.T) {
	data := `{"dashboard_title":"Old","charts":[{"id":"x","title":"T","type":"BAR","x_column":"region","y_column":"amount"}]}`
	var cfg DashboardConfig
	require.NoError(t, json.Unmarshal([]byte(data), &cfg))

	assert.Equal(t, "Old", cfg.Title)
	require.Len(t, cfg.Components, 1)
	assert.Equal(t, ComponentChart, cfg.Components[0].Type)
	assert.Equal(t, &ChartConfig{Kind: ChartBar, X: "region", Y: "amount"}, cfg.Components[0].Chart)
	require.NoError(t, cfg.Validate())
}
