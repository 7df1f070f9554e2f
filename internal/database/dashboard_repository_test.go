package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/config"
	"dashgen-backend/internal/model"
)

func TestDashboardRow_RoundTrip(t *testing.T) {
	rec := &model.DashboardRecord{
		ID:        "d1",
		Owner:     "alice",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600)),
		Title:     "Sales",
		FilePath:  "alice/abcd1234_sales.csv",
		Config: model.DashboardConfig{
			Title: "Sales",
			Components: []model.Component{
				{ID: "k", Type: model.ComponentKPI, Title: "Rows", KPI: &model.KPIConfig{ValueExpr: "count"}},
				{ID: "m", Type: model.ComponentMap, Title: "Stores", Map: &model.MapConfig{Lat: "lat", Lon: "lng"}},
			},
		},
	}

	row, err := toRow(rec)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, row.CreatedAt.Location())
	assert.Equal(t, "dashboards", row.TableName())

	back, err := row.record()
	require.NoError(t, err)
	assert.True(t, rec.CreatedAt.Equal(back.CreatedAt))
	require.Len(t, back.Config.Components, 2)
	assert.Equal(t, "count", back.Config.Components[0].KPI.ValueExpr)
	assert.Equal(t, "lng", back.Config.Components[1].Map.Lon)

	row.Config = "{"
	_, err = row.record()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: "3306", User: "u", Password: "p", Name: "dash"})
	assert.Equal(t, "u:p@tcp(db:3306)/dash?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}
