package dto

import (
	"dashgen-backend/internal/filter"
	"dashgen-backend/internal/render"
	"dashgen-backend/internal/session"
)

type CreateSessionRequest struct {
	Owner string `json:"owner"`
}

type CreateSessionResponse struct {
	SessionID string        `json:"session_id"`
	Owner     string        `json:"owner"`
	State     session.State `json:"state"`
}

type GenerateRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

type FilterToggleRequest struct {
	Column string `json:"column" binding:"required"`
	Value  string `json:"value"`
}

type ClickRequest struct {
	ComponentID string `json:"component_id" binding:"required"`
	Name        string `json:"name"`
}

// DashboardView is a freshly mounted dashboard.
type DashboardView struct {
	SessionID   string         `json:"session_id"`
	State       session.State  `json:"state"`
	DashboardID string         `json:"dashboard_id"`
	Title       string         `json:"title"`
	Seq         uint64         `json:"seq"`
	RowCount    int            `json:"row_count"`
	Components  []render.View  `json:"components"`
	Filters     filter.Context `json:"filters"`
	Tags        []filter.Tag   `json:"tags"`
}

// FilterResponse carries in-place patches for every mounted component.
// Clients drop responses whose Seq is lower than one already applied.
type FilterResponse struct {
	SessionID string         `json:"session_id"`
	State     session.State  `json:"state"`
	Seq       uint64         `json:"seq"`
	Column    string         `json:"column"`
	Value     string         `json:"value"`
	RowCount  int            `json:"row_count"`
	Filters   filter.Context `json:"filters"`
	Tags      []filter.Tag   `json:"tags"`
	Patches   []render.Patch `json:"patches"`
}
