package render

import (
	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
)

const (
	EmptyChartMessage = "No data for the current selection"
	EmptyMapMessage   = "No rows with valid coordinates to display"
)

// View is the render descriptor of one component instance.
type View struct {
	ComponentID  string              `json:"component_id"`
	InstanceID   string              `json:"instance_id"`
	Revision     int                 `json:"revision"`
	Type         model.ComponentType `json:"type"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Layout       Layout              `json:"layout"`
	Empty        bool                `json:"empty"`
	EmptyMessage string              `json:"empty_message,omitempty"`

	KPI   *KPIView   `json:"kpi,omitempty"`
	Chart *ChartView `json:"chart,omitempty"`
	Map   *MapView   `json:"map,omitempty"`
}

type KPIView struct {
	Value   any    `json:"value"`
	Display string `json:"display"`
}

// ChartView carries the drawing option plus the column a click filters on.
type ChartView struct {
	ChartType   model.ChartType   `json:"chart_type"`
	ClickColumn string            `json:"click_column"`
	Series      aggregator.Series `json:"series"`
	Option      *ChartOption      `json:"option"`
}

type MarkerStyle struct {
	Radius      int     `json:"radius"`
	FillColor   string  `json:"fill_color"`
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	FillOpacity float64 `json:"fill_opacity"`
}

type MapView struct {
	TileURL  string       `json:"tile_url"`
	Features []GeoFeature `json:"features"`
	Bounds   *Bounds      `json:"bounds,omitempty"`
	Fit      FitOptions   `json:"fit"`
	Marker   MarkerStyle  `json:"marker"`
}

// ComponentData is the recomputed data of one component, without layout.
// Data is a *ChartData, *KPIData or *MapData matching Type.
type ComponentData struct {
	ID           string              `json:"id"`
	Type         model.ComponentType `json:"type"`
	Empty        bool                `json:"empty"`
	EmptyMessage string              `json:"empty_message,omitempty"`
	Data         any                 `json:"data"`
}

// ChartData holds the series both as points and as an ECharts dataset
// source of [name, value] rows.
type ChartData struct {
	Source [][]any           `json:"source"`
	Series aggregator.Series `json:"series"`
}

type KPIData struct {
	Value   any    `json:"value"`
	Display string `json:"display"`
}

type MapData struct {
	Features []GeoFeature `json:"features"`
	Bounds   *Bounds      `json:"bounds,omitempty"`
}

var defaultMarker = MarkerStyle{
	Radius:      6,
	FillColor:   "#ef4444",
	Color:       "#ffffff",
	Weight:      2,
	FillOpacity: 0.8,
}
