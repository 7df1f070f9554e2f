package render_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/model"
	"dashgen-backend/internal/render"
)

func TestPNGExporter_Charts(t *testing.T) {
	r := render.NewRenderer(render.Options{})
	exporter := render.NewPNGExporter()

	for _, kind := range []model.ChartType{model.ChartBar, model.ChartLine, model.ChartPie} {
		t.Run(string(kind), func(t *testing.T) {
			v, err := r.Render(0, 2, chart("c", kind), salesTable())
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, exporter.Export(&buf, v, 0))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
		})
	}
}

func TestPNGExporter_RejectsEmptyAndNonCharts(t *testing.T) {
	r := render.NewRenderer(render.Options{})
	exporter := render.NewPNGExporter()

	empty, err := r.Render(0, 2, chart("c", model.ChartBar), &model.Table{})
	require.NoError(t, err)
	assert.ErrorIs(t, exporter.Export(&bytes.Buffer{}, empty, 0), render.ErrNotExportable)

	kpi, err := r.Render(0, 2, model.Component{ID: "k", Type: model.ComponentKPI, KPI: &model.KPIConfig{}}, salesTable())
	require.NoError(t, err)
	assert.ErrorIs(t, exporter.Export(&bytes.Buffer{}, kpi, 0), render.ErrNotExportable)
}
