package render

import (
	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
)

// ChartOption is the subset of an ECharts option the dashboard uses.
type ChartOption struct {
	Color   []string       `json:"color"`
	Tooltip Tooltip        `json:"tooltip"`
	Grid    *Grid          `json:"grid,omitempty"`
	Dataset Dataset        `json:"dataset"`
	XAxis   *Axis          `json:"xAxis,omitempty"`
	YAxis   *Axis          `json:"yAxis,omitempty"`
	Series  []SeriesOption `json:"series"`
}

type Tooltip struct {
	Trigger string `json:"trigger"`
}

type Grid struct {
	Left         string `json:"left"`
	Right        string `json:"right"`
	Bottom       string `json:"bottom"`
	ContainLabel bool   `json:"containLabel"`
}

type Dataset struct {
	Dimensions []string `json:"dimensions"`
	Source     [][]any  `json:"source"`
}

type Axis struct {
	Type string `json:"type"`
}

type ItemStyle struct {
	Color        string `json:"color,omitempty"`
	BorderRadius []int  `json:"borderRadius,omitempty"`
}

type SeriesOption struct {
	Type      model.ChartType `json:"type"`
	Radius    []string        `json:"radius,omitempty"`
	Smooth    bool            `json:"smooth,omitempty"`
	ItemStyle *ItemStyle      `json:"itemStyle,omitempty"`
}

func datasetSource(series aggregator.Series) [][]any {
	source := make([][]any, 0, len(series))
	for _, p := range series {
		source = append(source, []any{p.Name, p.Value})
	}
	return source
}

// buildChartOption encodes pies with the full palette and bars/lines with a
// single theme color chosen by position.
func buildChartOption(kind model.ChartType, index int, series aggregator.Series) *ChartOption {
	opt := &ChartOption{
		Dataset: Dataset{
			Dimensions: []string{"name", "value"},
			Source:     datasetSource(series),
		},
	}

	if kind == model.ChartPie {
		opt.Color = append([]string(nil), Palette...)
		opt.Tooltip = Tooltip{Trigger: "item"}
		opt.Series = []SeriesOption{{
			Type:   model.ChartPie,
			Radius: []string{"40%", "70%"},
		}}
		return opt
	}

	color := ThemeColor(index)
	opt.Color = []string{color}
	opt.Tooltip = Tooltip{Trigger: "axis"}
	opt.Grid = &Grid{Left: "3%", Right: "4%", Bottom: "3%", ContainLabel: true}
	opt.XAxis = &Axis{Type: "category"}
	opt.YAxis = &Axis{Type: "value"}

	s := SeriesOption{Type: kind, ItemStyle: &ItemStyle{Color: color}}
	switch kind {
	case model.ChartBar:
		s.ItemStyle.BorderRadius = []int{4, 4, 0, 0}
	case model.ChartLine:
		s.Smooth = true
	}
	opt.Series = []SeriesOption{s}
	return opt
}
