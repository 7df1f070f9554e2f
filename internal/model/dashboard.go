package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type ComponentType string

const (
	ComponentKPI   ComponentType = "kpi"
	ComponentChart ComponentType = "chart"
	ComponentMap   ComponentType = "map"
)

type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

var (
	ErrNoComponents = errors.New("dashboard has no components")
)

// ChartConfig groups rows by X and sums Y, or counts rows when Y is "count" or empty.
type ChartConfig struct {
	Kind ChartType
	X    string
	Y    string
}

type MapConfig struct {
	Lat   string
	Lon   string
	Label string
}

// KPIConfig carries either an expression evaluated over the working rows
// or a value computed once by the planner.
type KPIConfig struct {
	ValueExpr string
	Value     any
}

// Component is a tagged union: exactly one of Chart, Map or KPI is set,
// matching Type.
type Component struct {
	ID          string
	Type        ComponentType
	Title       string
	Description string

	Chart *ChartConfig
	Map   *MapConfig
	KPI   *KPIConfig
}

type DashboardConfig struct {
	Title      string      `json:"title"`
	Components []Component `json:"components"`
}

// DashboardRecord is what the history store keeps per generated dashboard.
type DashboardRecord struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	CreatedAt time.Time       `json:"created_at"`
	Title     string          `json:"title"`
	Config    DashboardConfig `json:"config"`
	FilePath  string          `json:"file_path"`
}

type HistoryItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *DashboardRecord) HistoryItem() HistoryItem {
	return HistoryItem{ID: r.ID, Title: r.Title, CreatedAt: r.CreatedAt}
}

// Validate normalizes the config in place: missing ids become c<index>,
// chart kinds default to bar. It rejects duplicate ids, unknown types and
// components missing the columns their variant needs.
func (c *DashboardConfig) Validate() error {
	if len(c.Components) == 0 {
		return ErrNoComponents
	}
	seen := make(map[string]bool, len(c.Components))
	for i := range c.Components {
		comp := &c.Components[i]
		if strings.TrimSpace(comp.ID) == "" {
			comp.ID = fmt.Sprintf("c%d", i)
		}
		if seen[comp.ID] {
			return fmt.Errorf("duplicate component id %q", comp.ID)
		}
		seen[comp.ID] = true

		switch comp.Type {
		case ComponentChart:
			if comp.Chart == nil || comp.Chart.X == "" {
				return fmt.Errorf("chart %q needs an x column", comp.ID)
			}
			switch comp.Chart.Kind {
			case ChartBar, ChartLine, ChartPie:
			case "":
				comp.Chart.Kind = ChartBar
			default:
				return fmt.Errorf("chart %q has unsupported chart type %q", comp.ID, comp.Chart.Kind)
			}
		case ComponentMap:
			if comp.Map == nil || comp.Map.Lat == "" || comp.Map.Lon == "" {
				return fmt.Errorf("map %q needs lat and lon columns", comp.ID)
			}
		case ComponentKPI:
			if comp.KPI == nil {
				comp.KPI = &KPIConfig{}
			}
		default:
			return fmt.Errorf("component %q has unknown type %q", comp.ID, comp.Type)
		}
	}
	return nil
}

type wireComponent struct {
	ID          string          `json:"id"`
	Type        ComponentType   `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	ChartType   ChartType       `json:"chart_type,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

type wireChartConfig struct {
	X       string `json:"x,omitempty"`
	Y       string `json:"y,omitempty"`
	XColumn string `json:"x_column,omitempty"`
	YColumn string `json:"y_column,omitempty"`
}

type wireMapConfig struct {
	Lat   string `json:"lat"`
	Lon   string `json:"lon"`
	Label string `json:"label,omitempty"`
}

type wireKPIConfig struct {
	ValueExpr      string `json:"value_expr,omitempty"`
	ValueExprCamel string `json:"valueExpr,omitempty"`
	Value          any    `json:"value,omitempty"`
}

func (c Component) MarshalJSON() ([]byte, error) {
	w := wireComponent{
		ID:          c.ID,
		Type:        c.Type,
		Title:       c.Title,
		Description: c.Description,
	}
	var cfg any
	switch {
	case c.Chart != nil:
		w.ChartType = c.Chart.Kind
		cfg = wireChartConfig{X: c.Chart.X, Y: c.Chart.Y}
	case c.Map != nil:
		cfg = wireMapConfig{Lat: c.Map.Lat, Lon: c.Map.Lon, Label: c.Map.Label}
	case c.KPI != nil:
		cfg = wireKPIConfig{ValueExpr: c.KPI.ValueExpr, Value: c.KPI.Value}
	}
	if cfg != nil {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, err
		}
		w.Config = raw
	}
	return json.Marshal(w)
}

func (c *Component) UnmarshalJSON(data []byte) error {
	var w wireComponent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	// planners sometimes put the chart kind in "type"
	switch ChartType(strings.ToLower(string(w.Type))) {
	case ChartBar, ChartLine, ChartPie:
		w.ChartType = ChartType(strings.ToLower(string(w.Type)))
		w.Type = ComponentChart
	}
	// and maps sometimes arrive as charts with chart_type "map"
	if strings.EqualFold(string(w.ChartType), string(ComponentMap)) {
		w.Type = ComponentMap
		w.ChartType = ""
	}
	*c = Component{
		ID:          w.ID,
		Type:        ComponentType(strings.ToLower(string(w.Type))),
		Title:       w.Title,
		Description: w.Description,
	}
	cfg := w.Config
	if len(cfg) == 0 || string(cfg) == "null" {
		cfg = []byte("{}")
	}

	switch c.Type {
	case ComponentChart:
		var cc wireChartConfig
		if err := json.Unmarshal(cfg, &cc); err != nil {
			return fmt.Errorf("component %q: %w", w.ID, err)
		}
		c.Chart = &ChartConfig{
			Kind: ChartType(strings.ToLower(string(w.ChartType))),
			X:    firstNonEmpty(cc.X, cc.XColumn),
			Y:    firstNonEmpty(cc.Y, cc.YColumn),
		}
	case ComponentMap:
		var mc wireMapConfig
		if err := json.Unmarshal(cfg, &mc); err != nil {
			return fmt.Errorf("component %q: %w", w.ID, err)
		}
		c.Map = &MapConfig{Lat: mc.Lat, Lon: mc.Lon, Label: mc.Label}
	case ComponentKPI:
		var kc wireKPIConfig
		if err := json.Unmarshal(cfg, &kc); err != nil {
			return fmt.Errorf("component %q: %w", w.ID, err)
		}
		c.KPI = &KPIConfig{ValueExpr: firstNonEmpty(kc.ValueExpr, kc.ValueExprCamel), Value: kc.Value}
	}
	return nil
}

type legacyChart struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	XColumn     string `json:"x_column"`
	YColumn     string `json:"y_column"`
	Description string `json:"description"`
}

// UnmarshalJSON accepts both the component layout and the older
// {dashboard_title, charts:[{x_column, y_column}]} layout.
func (c *DashboardConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title          string        `json:"title"`
		DashboardTitle string        `json:"dashboard_title"`
		Components     []Component   `json:"components"`
		Charts         []legacyChart `json:"charts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Title = firstNonEmpty(raw.Title, raw.DashboardTitle)
	c.Components = raw.Components
	for _, lc := range raw.Charts {
		kind := ChartType(strings.ToLower(lc.Type))
		c.Components = append(c.Components, Component{
			ID:          lc.ID,
			Type:        ComponentChart,
			Title:       lc.Title,
			Description: lc.Description,
			Chart:       &ChartConfig{Kind: kind, X: lc.XColumn, Y: lc.YColumn},
		})
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
