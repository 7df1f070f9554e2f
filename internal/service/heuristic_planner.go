package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
)

const pieMaxCategories = 8

var (
	latPattern  = regexp.MustCompile(`(?i)^(lat|latitude|latitud)$`)
	lonPattern  = regexp.MustCompile(`(?i)^(lon|lng|long|longitude|longitud)$`)
	timePattern = regexp.MustCompile(`(?i)(date|time|year|month|day|fecha|period)`)
)

// heuristicPlanner builds a dashboard from column types alone.
type heuristicPlanner struct{}

func NewHeuristicPlanner() Planner {
	return heuristicPlanner{}
}

func (heuristicPlanner) Plan(ctx context.Context, req PlanRequest) (*model.DashboardConfig, error) {
	if len(req.Columns) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}
	var categorical, numeric []string
	var lat, lon, timeCol string
	for _, col := range req.Columns {
		switch {
		case latPattern.MatchString(col):
			lat = col
			continue
		case lonPattern.MatchString(col):
			lon = col
			continue
		}
		if timeCol == "" && timePattern.MatchString(col) {
			timeCol = col
			continue
		}
		switch req.ColTypes[col] {
		case "int64", "float64":
			numeric = append(numeric, col)
		default:
			categorical = append(categorical, col)
		}
	}

	metric := aggregator.Count
	if len(numeric) > 0 {
		metric = numeric[0]
	}

	cfg := &model.DashboardConfig{Title: titleFor(req.Instruction)}
	add := func(c model.Component) {
		c.ID = fmt.Sprintf("c%d", len(cfg.Components))
		cfg.Components = append(cfg.Components, c)
	}

	add(model.Component{
		Type:  model.ComponentKPI,
		Title: "Total records",
		KPI:   &model.KPIConfig{ValueExpr: aggregator.Count},
	})
	if metric != aggregator.Count {
		add(model.Component{
			Type:  model.ComponentKPI,
			Title: "Total " + metric,
			KPI:   &model.KPIConfig{ValueExpr: "sum:" + metric},
		})
	}

	var pieCol string
	for _, col := range categorical {
		if n := distinctValues(req.Table, col); n > 1 && n <= pieMaxCategories {
			pieCol = col
			break
		}
	}
	for _, col := range categorical {
		if col == pieCol {
			continue
		}
		add(chart(model.ChartBar, col, metric))
		break
	}
	if timeCol != "" {
		add(chart(model.ChartLine, timeCol, metric))
	} else if len(numeric) > 1 && len(categorical) > 0 {
		add(chart(model.ChartBar, categorical[0], numeric[1]))
	}
	if pieCol != "" {
		add(chart(model.ChartPie, pieCol, aggregator.Count))
	}
	if lat != "" && lon != "" {
		add(model.Component{
			Type:  model.ComponentMap,
			Title: "Locations",
			Map:   &model.MapConfig{Lat: lat, Lon: lon},
		})
	}

	log.Info().Str("title", cfg.Title).Int("components", len(cfg.Components)).Msg("Heuristic planner: dashboard planned")
	return cfg, nil
}

func chart(kind model.ChartType, x, y string) model.Component {
	title := "Records by " + x
	if !aggregator.IsCount(y) {
		title = fmt.Sprintf("%s by %s", y, x)
	}
	return model.Component{
		Type:  model.ComponentChart,
		Title: title,
		Chart: &model.ChartConfig{Kind: kind, X: x, Y: y},
	}
}

func titleFor(instruction string) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "Data overview"
	}
	if len([]rune(instruction)) > 60 {
		instruction = string([]rune(instruction)[:60]) + "..."
	}
	return instruction
}

func distinctValues(table *model.Table, column string) int {
	if table == nil {
		return 0
	}
	seen := make(map[string]struct{})
	for _, row := range table.Rows {
		seen[aggregator.Stringify(aggregator.Lookup(row, column))] = struct{}{}
		if len(seen) > pieMaxCategories {
			break
		}
	}
	return len(seen)
}
