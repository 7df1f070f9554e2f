package dto

import (
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/render"
)

type UploadResponse struct {
	Summary  string            `json:"summary"`
	FilePath string            `json:"file_path"`
	ColTypes map[string]string `json:"col_types"`
	RowCount int               `json:"row_count"`
}

type DashboardDataResponse struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Config   model.DashboardConfig `json:"config"`
	Data     []model.Row           `json:"data"`
	ColTypes map[string]string     `json:"col_types"`
}

type FilterDashboardRequest struct {
	Filters map[string]string `json:"filters"`
}

type FilterDashboardResponse struct {
	ID         string                 `json:"id"`
	RowCount   int                    `json:"row_count"`
	Components []render.ComponentData `json:"components"`
}

type DeleteDashboardResponse struct {
	ID           string `json:"id"`
	SessionReset bool   `json:"session_reset"`
}
