package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"dashgen-backend/internal/model"
)

var ErrNotExportable = errors.New("component cannot be exported as an image")

// PNGExporter draws chart views server-side with go-chart, using the same
// color rules as the browser.
type PNGExporter struct {
	Width  int
	Height int
}

func NewPNGExporter() *PNGExporter {
	return &PNGExporter{Width: 800, Height: 480}
}

func (e *PNGExporter) Export(w io.Writer, v View, index int) error {
	if v.Type != model.ComponentChart || v.Chart == nil {
		return fmt.Errorf("%w: %s is a %s", ErrNotExportable, v.ComponentID, v.Type)
	}
	series := v.Chart.Series
	if len(series) == 0 || series.Total() == 0 {
		return fmt.Errorf("%w: %s", ErrNotExportable, EmptyChartMessage)
	}

	switch v.Chart.ChartType {
	case model.ChartPie:
		values := make([]chart.Value, 0, len(series))
		for i, p := range series {
			values = append(values, chart.Value{
				Label: p.Name,
				Value: p.Value,
				Style: chart.Style{FillColor: hexColor(Palette[i%len(Palette)])},
			})
		}
		pie := chart.PieChart{
			Title:  v.Title,
			Width:  e.Width,
			Height: e.Height,
			Values: values,
		}
		return pie.Render(chart.PNG, w)
	case model.ChartLine:
		if len(series) > 1 {
			return e.renderLine(w, v, hexColor(ThemeColor(index)))
		}
	}

	color := hexColor(ThemeColor(index))
	bars := make([]chart.Value, 0, len(series))
	for _, p := range series {
		bars = append(bars, chart.Value{
			Label: p.Name,
			Value: p.Value,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}
	bar := chart.BarChart{
		Title:    v.Title,
		Width:    e.Width,
		Height:   e.Height,
		BarWidth: 40,
		Bars:     bars,
	}
	return bar.Render(chart.PNG, w)
}

func (e *PNGExporter) renderLine(w io.Writer, v View, color drawing.Color) error {
	series := v.Chart.Series
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	ticks := make([]chart.Tick, len(series))
	for i, p := range series {
		xs[i] = float64(i)
		ys[i] = p.Value
		ticks[i] = chart.Tick{Value: float64(i), Label: p.Name}
	}
	graph := chart.Chart{
		Title:  v.Title,
		Width:  e.Width,
		Height: e.Height,
		XAxis:  chart.XAxis{Ticks: ticks},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style:   chart.Style{StrokeColor: color, StrokeWidth: 2},
				XValues: xs,
				YValues: ys,
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
