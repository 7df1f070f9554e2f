// Package render turns dashboard components and tabular data into render
// descriptors: ECharts options, KPI strings and point features.
package render

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
)

const DefaultTileURL = "https://a.tile.openstreetmap.org/{z}/{x}/{y}.png"

var (
	ErrUnknownComponentType = errors.New("unknown component type")
	ErrMissingConfig        = errors.New("component config does not match its type")
)

type Options struct {
	Locale  string
	TileURL string
}

type Renderer struct {
	locale  string
	tileURL string
}

func NewRenderer(opts Options) *Renderer {
	if opts.Locale == "" {
		opts.Locale = "en"
	}
	if opts.TileURL == "" {
		opts.TileURL = DefaultTileURL
	}
	return &Renderer{locale: opts.Locale, tileURL: opts.TileURL}
}

// Compute derives the data of comp from the working table.
func (r *Renderer) Compute(comp model.Component, table *model.Table) (ComponentData, error) {
	data := ComponentData{ID: comp.ID, Type: comp.Type}
	var rows []model.Row
	if table != nil {
		rows = table.Rows
	}

	switch comp.Type {
	case model.ComponentKPI:
		if comp.KPI == nil {
			return data, fmt.Errorf("%w: kpi %q", ErrMissingConfig, comp.ID)
		}
		value := comp.KPI.Value
		if comp.KPI.ValueExpr != "" || comp.KPI.Value == nil {
			v, err := aggregator.Evaluate(rows, comp.KPI.ValueExpr)
			if err != nil {
				return data, fmt.Errorf("kpi %q: %w", comp.ID, err)
			}
			value = v
		}
		data.Data = &KPIData{Value: value, Display: FormatValue(value, r.locale)}
	case model.ComponentChart:
		if comp.Chart == nil {
			return data, fmt.Errorf("%w: chart %q", ErrMissingConfig, comp.ID)
		}
		series := aggregator.Aggregate(rows, comp.Chart.X, comp.Chart.Y)
		data.Data = &ChartData{Source: datasetSource(series), Series: series}
		if len(series) == 0 {
			data.Empty = true
			data.EmptyMessage = EmptyChartMessage
		}
	case model.ComponentMap:
		if comp.Map == nil {
			return data, fmt.Errorf("%w: map %q", ErrMissingConfig, comp.ID)
		}
		features, bounds := BuildFeatures(table, *comp.Map, comp.Title)
		if features == nil {
			features = []GeoFeature{}
		}
		data.Data = &MapData{Features: features, Bounds: bounds}
		if len(features) == 0 {
			data.Empty = true
			data.EmptyMessage = EmptyMapMessage
		}
	default:
		return data, fmt.Errorf("%w: %q", ErrUnknownComponentType, comp.Type)
	}
	return data, nil
}

// Build lays out a view for comp at position index of total components.
func (r *Renderer) Build(index, total int, comp model.Component, data ComponentData) (View, error) {
	v := View{
		ComponentID: comp.ID,
		Type:        comp.Type,
		Title:       comp.Title,
		Description: comp.Description,
		Layout:      LayoutFor(comp, total),
	}

	v.Empty = data.Empty
	v.EmptyMessage = data.EmptyMessage

	switch d := data.Data.(type) {
	case *KPIData:
		v.KPI = &KPIView{Value: d.Value, Display: d.Display}
	case *ChartData:
		if comp.Chart == nil {
			return v, fmt.Errorf("%w: chart %q", ErrMissingConfig, comp.ID)
		}
		v.Chart = &ChartView{
			ChartType:   comp.Chart.Kind,
			ClickColumn: comp.Chart.X,
			Series:      d.Series,
			Option:      buildChartOption(comp.Chart.Kind, index, d.Series),
		}
	case *MapData:
		v.Map = &MapView{
			TileURL:  r.tileURL,
			Features: d.Features,
			Bounds:   d.Bounds,
			Fit:      FitOptions{Padding: FitPadding, MaxZoom: FitMaxZoom},
			Marker:   defaultMarker,
		}
	default:
		return v, fmt.Errorf("%w: %q", ErrUnknownComponentType, comp.Type)
	}
	return v, nil
}

func (r *Renderer) Render(index, total int, comp model.Component, table *model.Table) (View, error) {
	data, err := r.Compute(comp, table)
	if err != nil {
		return View{}, err
	}
	return r.Build(index, total, comp, data)
}

// RenderAll renders every component of cfg in order.
func (r *Renderer) RenderAll(cfg *model.DashboardConfig, table *model.Table) ([]View, error) {
	views := make([]View, 0, len(cfg.Components))
	for i, comp := range cfg.Components {
		v, err := r.Render(i, len(cfg.Components), comp, table)
		if err != nil {
			log.Error().Err(err).Str("component_id", comp.ID).Msg("Failed to render component")
			return nil, err
		}
		views = append(views, v)
	}
	log.Debug().Int("components", len(views)).Int("rows", table.Len()).Msg("Rendered dashboard")
	return views, nil
}

// ComputeAll returns per-component data without layout.
func (r *Renderer) ComputeAll(cfg *model.DashboardConfig, table *model.Table) ([]ComponentData, error) {
	out := make([]ComponentData, 0, len(cfg.Components))
	for _, comp := range cfg.Components {
		data, err := r.Compute(comp, table)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
