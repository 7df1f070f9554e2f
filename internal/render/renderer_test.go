package render_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/render"
)

func salesTable() *model.Table {
	return &model.Table{
		Columns: []string{"cat", "val", "lat", "lon", "city"},
		Rows: []model.Row{
			{"cat": "a", "val": "10", "lat": 40.4, "lon": -3.7, "city": "Madrid"},
			{"cat": "a", "val": "5", "lat": "41.38", "lon": "2.17", "city": "Barcelona"},
			{"cat": "b", "val": "3", "lat": "north", "lon": 0.0, "city": "Nowhere"},
		},
	}
}

func chart(id string, kind model.ChartType) model.Component {
	return model.Component{
		ID:    id,
		Type:  model.ComponentChart,
		Title: "Sales by category",
		Chart: &model.ChartConfig{Kind: kind, X: "cat", Y: "val"},
	}
}

func TestRender_BarChartScenario(t *testing.T) {
	r := render.NewRenderer(render.Options{})

	v, err := r.Render(0, 2, chart("sales", model.ChartBar), salesTable())
	require.NoError(t, err)

	require.NotNil(t, v.Chart)
	assert.Equal(t, aggregator.Series{{Name: "a", Value: 15}, {Name: "b", Value: 3}}, v.Chart.Series)
	assert.Equal(t, "cat", v.Chart.ClickColumn)
	assert.False(t, v.Empty)
	assert.Equal(t, [][]any{{"a", 15.0}, {"b", 3.0}}, v.Chart.Option.Dataset.Source)
	assert.Equal(t, "axis", v.Chart.Option.Tooltip.Trigger)
	assert.Equal(t, []int{4, 4, 0, 0}, v.Chart.Option.Series[0].ItemStyle.BorderRadius)
	assert.Equal(t, render.Layout{ColSpan: 1, Size: render.SizeRegular}, v.Layout)
}

func TestRender_ChartColors(t *testing.T) {
	r := render.NewRenderer(render.Options{})

	for i := 0; i < 10; i++ {
		v, err := r.Render(i, 10, chart("c", model.ChartLine), salesTable())
		require.NoError(t, err)
		want := render.Palette[i%len(render.Palette)]
		assert.Equal(t, []string{want}, v.Chart.Option.Color)
		assert.Equal(t, want, v.Chart.Option.Series[0].ItemStyle.Color)
	}

	pie, err := r.Render(3, 10, chart("p", model.ChartPie), salesTable())
	require.NoError(t, err)
	assert.Equal(t, render.Palette, pie.Chart.Option.Color)
	assert.Equal(t, "item", pie.Chart.Option.Tooltip.Trigger)
	assert.Nil(t, pie.Chart.Option.XAxis)
	assert.Equal(t, []string{"40%", "70%"}, pie.Chart.Option.Series[0].Radius)
}

func TestRender_EmptySeriesShowsMessage(t *testing.T) {
	r := render.NewRenderer(render.Options{})

	v, err := r.Render(0, 2, chart("c", model.ChartBar), &model.Table{})
	require.NoError(t, err)

	assert.True(t, v.Empty)
	assert.Equal(t, render.EmptyChartMessage, v.EmptyMessage)
	assert.NotNil(t, v.Chart.Series)
	assert.Empty(t, v.Chart.Series)
}

func TestRender_KPI(t *testing.T) {
	r := render.NewRenderer(render.Options{Locale: "en"})
	table := &model.Table{Rows: []model.Row{{"amount": 1200000.0}, {"amount": "34,567"}}}

	v, err := r.Render(0, 3, model.Component{
		ID: "k", Type: model.ComponentKPI, KPI: &model.KPIConfig{ValueExpr: "sum:amount"},
	}, table)
	require.NoError(t, err)
	assert.Equal(t, "1.23M", v.KPI.Display)
	assert.Equal(t, render.Layout{ColSpan: 1, Size: render.SizeCompact}, v.Layout)

	fixed, err := r.Render(0, 3, model.Component{
		ID: "f", Type: model.ComponentKPI, KPI: &model.KPIConfig{Value: "Q3 2024"},
	}, table)
	require.NoError(t, err)
	assert.Equal(t, "Q3 2024", fixed.KPI.Display)

	_, err = r.Render(0, 3, model.Component{
		ID: "bad", Type: model.ComponentKPI, KPI: &model.KPIConfig{ValueExpr: "p99:amount"},
	}, table)
	assert.Error(t, err)
}

func TestRender_Map(t *testing.T) {
	r := render.NewRenderer(render.Options{})
	comp := model.Component{
		ID: "m", Type: model.ComponentMap, Title: "Stores",
		Map: &model.MapConfig{Lat: "lat", Lon: "lon"},
	}

	v, err := r.Render(1, 3, comp, salesTable())
	require.NoError(t, err)

	require.NotNil(t, v.Map)
	require.Len(t, v.Map.Features, 2)
	assert.Equal(t, [2]float64{-3.7, 40.4}, v.Map.Features[0].Geometry.Coordinates)
	assert.Equal(t, render.Bounds{MinLon: -3.7, MinLat: 40.4, MaxLon: 2.17, MaxLat: 41.38}, *v.Map.Bounds)
	assert.Equal(t, render.FitOptions{Padding: 50, MaxZoom: 15}, v.Map.Fit)
	assert.Equal(t, render.DefaultTileURL, v.Map.TileURL)
	assert.Equal(t, render.Layout{ColSpan: 2, Size: render.SizeWide}, v.Layout)

	popup := v.Map.Features[0].Properties.PopupHTML
	assert.Contains(t, popup, "<strong>Stores</strong>")
	assert.Contains(t, popup, "<b>city:</b> Madrid")
	assert.NotContains(t, popup, "lat:")
	assert.NotContains(t, popup, "lon:")
}

func TestRender_MapWithoutValidCoordinates(t *testing.T) {
	r := render.NewRenderer(render.Options{})
	table := &model.Table{
		Columns: []string{"lat", "lon"},
		Rows:    []model.Row{{"lat": "not a number", "lon": "2.1"}},
	}

	v, err := r.Render(0, 1, model.Component{
		ID: "m", Type: model.ComponentMap, Map: &model.MapConfig{Lat: "lat", Lon: "lon"},
	}, table)
	require.NoError(t, err)

	assert.True(t, v.Empty)
	assert.Equal(t, render.EmptyMapMessage, v.EmptyMessage)
	assert.Empty(t, v.Map.Features)
	assert.Nil(t, v.Map.Bounds)
}

func TestRender_PopupEscapesHTML(t *testing.T) {
	table := &model.Table{
		Columns: []string{"lat", "lon", "note"},
		Rows:    []model.Row{{"lat": 1.0, "lon": 2.0, "note": "<script>x</script>"}},
	}

	features, _ := render.BuildFeatures(table, model.MapConfig{Lat: "lat", Lon: "lon"}, "")
	require.Len(t, features, 1)
	assert.Contains(t, features[0].Properties.PopupHTML, "&lt;script&gt;")
}

func TestRender_SingleComponentSpansWide(t *testing.T) {
	r := render.NewRenderer(render.Options{})
	cfg := &model.DashboardConfig{Components: []model.Component{chart("only", model.ChartBar)}}

	views, err := r.RenderAll(cfg, salesTable())
	require.NoError(t, err)

	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].Layout.ColSpan)
}

func TestRender_UnknownTypeRejected(t *testing.T) {
	r := render.NewRenderer(render.Options{})

	_, err := r.Render(0, 1, model.Component{ID: "x", Type: "table"}, salesTable())
	assert.ErrorIs(t, err, render.ErrUnknownComponentType)

	_, err = r.Render(0, 1, model.Component{ID: "y", Type: model.ComponentChart}, salesTable())
	assert.ErrorIs(t, err, render.ErrMissingConfig)
}

func TestComputeAll_EmptyTableIsExplicit(t *testing.T) {
	cfg := &model.DashboardConfig{Components: []model.Component{
		chart("c", model.ChartBar),
		{ID: "m", Type: model.ComponentMap, Title: "Stores", Map: &model.MapConfig{Lat: "lat", Lon: "lon"}},
		{ID: "k", Type: model.ComponentKPI, KPI: &model.KPIConfig{ValueExpr: "count"}},
	}}
	data, err := render.NewRenderer(render.Options{}).ComputeAll(cfg, &model.Table{})
	require.NoError(t, err)

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":"c","type":"chart","empty":true,"empty_message":"No data for the current selection","data":{"source":[],"series":[]}},
		{"id":"m","type":"map","empty":true,"empty_message":"No rows with valid coordinates to display","data":{"features":[]}},
		{"id":"k","type":"kpi","empty":false,"data":{"value":0,"display":"0"}}
	]`, string(raw))
}
