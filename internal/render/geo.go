package render

import (
	"html"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
)

const (
	FitPadding = 50
	FitMaxZoom = 15
)

type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type FeatureProperties struct {
	PopupHTML string `json:"popup_html"`
}

// GeoFeature is a GeoJSON point; coordinates are [lon, lat].
type GeoFeature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

type Bounds struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

type FitOptions struct {
	Padding int `json:"padding"`
	MaxZoom int `json:"max_zoom"`
}

// BuildFeatures turns every row with parseable coordinates into a point
// feature. Rows whose lat or lon does not parse are skipped. Bounds is nil
// when no feature survives.
func BuildFeatures(table *model.Table, cfg model.MapConfig, title string) ([]GeoFeature, *Bounds) {
	if table == nil {
		return []GeoFeature{}, nil
	}
	features := make([]GeoFeature, 0, len(table.Rows))
	var bounds *Bounds

	for _, row := range table.Rows {
		lat, okLat := parseCoordinate(aggregator.Lookup(row, cfg.Lat))
		lon, okLon := parseCoordinate(aggregator.Lookup(row, cfg.Lon))
		if !okLat || !okLon {
			continue
		}

		features = append(features, GeoFeature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: [2]float64{lon, lat}},
			Properties: FeatureProperties{
				PopupHTML: popupHTML(table.Columns, row, cfg, title),
			},
		})

		if bounds == nil {
			bounds = &Bounds{MinLon: lon, MaxLon: lon, MinLat: lat, MaxLat: lat}
			continue
		}
		bounds.MinLon = math.Min(bounds.MinLon, lon)
		bounds.MaxLon = math.Max(bounds.MaxLon, lon)
		bounds.MinLat = math.Min(bounds.MinLat, lat)
		bounds.MaxLat = math.Max(bounds.MaxLat, lat)
	}
	return features, bounds
}

func parseCoordinate(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		return 0, false
	default:
		parsed, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func popupHTML(columns []string, row model.Row, cfg model.MapConfig, title string) string {
	var b strings.Builder
	heading := title
	if cfg.Label != "" {
		if v := aggregator.Lookup(row, cfg.Label); v != nil {
			heading = aggregator.Stringify(v)
		}
	}
	if heading != "" {
		b.WriteString("<strong>")
		b.WriteString(html.EscapeString(heading))
		b.WriteString("</strong><br/>")
	}
	for _, col := range popupColumns(columns, row) {
		if strings.EqualFold(col, cfg.Lat) || strings.EqualFold(col, cfg.Lon) {
			continue
		}
		b.WriteString("<b>")
		b.WriteString(html.EscapeString(col))
		b.WriteString(":</b> ")
		b.WriteString(html.EscapeString(aggregator.Stringify(row[col])))
		b.WriteString("<br/>")
	}
	return b.String()
}

// popupColumns falls back to the row keys when the table has no schema.
func popupColumns(columns []string, row model.Row) []string {
	if len(columns) > 0 {
		return columns
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
