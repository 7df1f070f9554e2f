package controller

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/service"
)

type SessionController struct {
	dashboardService service.DashboardService
}

func NewSessionController(dashboardService service.DashboardService) *SessionController {
	return &SessionController{
		dashboardService: dashboardService,
	}
}

func RegisterSessionRoutes(router *gin.Engine, controller *SessionController) {
	v1 := router.Group("/api/v1/sessions")
	{
		v1.POST("", controller.CreateSession)
		v1.GET("/:sid", controller.GetSession)
		v1.DELETE("/:sid", controller.EndSession)
		v1.POST("/:sid/upload", controller.Upload)
		v1.POST("/:sid/generate", controller.Generate)
		v1.GET("/:sid/history", controller.ListHistory)
		v1.POST("/:sid/open/:id", controller.Open)
		v1.DELETE("/:sid/dashboards/:id", controller.DeleteDashboard)
		v1.POST("/:sid/reset", controller.Reset)
		v1.POST("/:sid/filters/toggle", controller.ToggleFilter)
		v1.POST("/:sid/click", controller.Click)
		v1.GET("/:sid/components/:cid/png", controller.ExportPNG)
	}
}

// CreateSession godoc
// @Summary      Start a dashboard session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateSessionRequest false "Owner of the session (defaults to anonymous)"
// @Success      201 {object} dto.CreateSessionResponse
// @Failure      400 {object} model.Response
// @Router       /api/v1/sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	var req dto.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	resp, err := c.dashboardService.CreateSession(ctx.Request.Context(), req.Owner)
	if err != nil {
		writeError(ctx, err, "Failed to create session")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetSession godoc
// @Summary      Session snapshot
// @Description  Returns the state, upload, open dashboard, active filters and mounted components of a session.
// @Tags         sessions
// @Produce      json
// @Param        sid path string true "Session ID"
// @Success      200 {object} session.Snapshot
// @Failure      404 {object} model.Response
// @Router       /api/v1/sessions/{sid} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	snap, err := c.dashboardService.Snapshot(ctx.Request.Context(), ctx.Param("sid"))
	if err != nil {
		writeError(ctx, err, "Failed to get session")
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

// EndSession godoc
// @Summary      Log out
// @Description  Drops the session and everything it holds.
// @Tags         sessions
// @Produce      json
// @Param        sid path string true "Session ID"
// @Success      200 {object} model.Response
// @Failure      404 {object} model.Response
// @Router       /api/v1/sessions/{sid} [delete]
func (c *SessionController) EndSession(ctx *gin.Context) {
	if err := c.dashboardService.EndSession(ctx.Request.Context(), ctx.Param("sid")); err != nil {
		writeError(ctx, err, "Failed to end session")
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("Session ended", nil))
}

// Upload godoc
// @Summary      Upload a dataset
// @Description  Accepts a CSV or XLSX file, stores it and returns a summary for the planner. Any open dashboard is closed.
// @Tags         sessions
// @Accept       multipart/form-data
// @Produce      json
// @Param        sid  path     string true "Session ID"
// @Param        file formData  file   true "Dataset file"
// @Success      200 {object} dto.UploadResponse
// @Failure      400 {object} model.Response
// @Failure      413 {object} model.Response
// @Router       /api/v1/sessions/{sid}/upload [post]
func (c *SessionController) Upload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Missing file field", nil))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("file", fileHeader.Filename).Msg("Failed to open multipart file")
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Could not read uploaded file", nil))
		return
	}
	defer file.Close()

	resp, err := c.dashboardService.Upload(ctx.Request.Context(), ctx.Param("sid"), fileHeader.Filename, file)
	if err != nil {
		writeError(ctx, err, "Failed to upload dataset")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Generate godoc
// @Summary      Generate a dashboard
// @Description  Asks the planner for a dashboard over the uploaded dataset, renders it and saves it to history.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        sid     path string              true "Session ID"
// @Param        request body dto.GenerateRequest true "Instruction for the planner"
// @Success      200 {object} dto.DashboardView
// @Failure      400 {object} model.Response
// @Failure      409 {object} model.Response "No upload, or a load is in progress"
// @Failure      502 {object} model.Response "Planner failure"
// @Router       /api/v1/sessions/{sid}/generate [post]
func (c *SessionController) Generate(ctx *gin.Context) {
	var req dto.GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	view, err := c.dashboardService.Generate(ctx.Request.Context(), ctx.Param("sid"), req.Instruction)
	if err != nil {
		writeError(ctx, err, "Failed to generate dashboard")
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// ListHistory godoc
// @Summary      Saved dashboards of the session owner
// @Tags         sessions
// @Produce      json
// @Param        sid path string true "Session ID"
// @Success      200 {array} model.HistoryItem
// @Failure      404 {object} model.Response
// @Router       /api/v1/sessions/{sid}/history [get]
func (c *SessionController) ListHistory(ctx *gin.Context) {
	items, err := c.dashboardService.ListHistory(ctx.Request.Context(), ctx.Param("sid"))
	if err != nil {
		writeError(ctx, err, "Failed to list dashboards")
		return
	}
	if items == nil {
		items = []model.HistoryItem{}
	}
	ctx.JSON(http.StatusOK, items)
}

// Open godoc
// @Summary      Open a saved dashboard
// @Tags         sessions
// @Produce      json
// @Param        sid path string true "Session ID"
// @Param        id  path string true "Dashboard ID"
// @Success      200 {object} dto.DashboardView
// @Failure      404 {object} model.Response
// @Failure      409 {object} model.Response "Superseded by a newer load"
// @Router       /api/v1/sessions/{sid}/open/{id} [post]
func (c *SessionController) Open(ctx *gin.Context) {
	view, err := c.dashboardService.Open(ctx.Request.Context(), ctx.Param("sid"), ctx.Param("id"))
	if err != nil {
		writeError(ctx, err, "Failed to open dashboard")
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// DeleteDashboard godoc
// @Summary      Delete a saved dashboard
// @Description  Resets the session when it had the dashboard open.
// @Tags         sessions
// @Produce      json
// @Param        sid path string true "Session ID"
// @Param        id  path string true "Dashboard ID"
// @Success      200 {object} dto.DeleteDashboardResponse
// @Failure      404 {object} model.Response
// @Router       /api/v1/sessions/{sid}/dashboards/{id} [delete]
func (c *SessionController) DeleteDashboard(ctx *gin.Context) {
	id := ctx.Param("id")
	reset, err := c.dashboardService.DeleteDashboard(ctx.Request.Context(), ctx.Param("sid"), id)
	if err != nil {
		writeError(ctx, err, "Failed to delete dashboard")
		return
	}
	ctx.JSON(http.StatusOK, dto.DeleteDashboardResponse{ID: id, SessionReset: reset})
}

// Reset godoc
// @Summary      Start a new analysis
// @Description  Clears the upload, dashboard and filters of the session.
// @Tags         sessions
// @Produce      json
// @Param        sid path string true "Session ID"
// @Success      200 {object} session.Snapshot
// @Failure      404 {object} model.Response
// @Router       /api/v1/sessions/{sid}/reset [post]
func (c *SessionController) Reset(ctx *gin.Context) {
	snap, err := c.dashboardService.Reset(ctx.Request.Context(), ctx.Param("sid"))
	if err != nil {
		writeError(ctx, err, "Failed to reset session")
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

// ToggleFilter godoc
// @Summary      Toggle a filter
// @Description  Adds column=value to the filter context, or removes it when already active, and returns patches for every mounted component.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        sid     path string                  true "Session ID"
// @Param        request body dto.FilterToggleRequest true "Filter column and value"
// @Success      200 {object} dto.FilterResponse
// @Failure      409 {object} model.Response "No dashboard open, or superseded by a newer request"
// @Router       /api/v1/sessions/{sid}/filters/toggle [post]
func (c *SessionController) ToggleFilter(ctx *gin.Context) {
	var req dto.FilterToggleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	resp, err := c.dashboardService.ToggleFilter(ctx.Request.Context(), ctx.Param("sid"), req.Column, req.Value)
	if err != nil {
		writeError(ctx, err, "Failed to apply filter")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Click godoc
// @Summary      Click a chart category
// @Description  Toggles the filter on the clicked component's category column.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        sid     path string           true "Session ID"
// @Param        request body dto.ClickRequest true "Component and category name"
// @Success      200 {object} dto.FilterResponse
// @Failure      400 {object} model.Response "Component does not emit clicks"
// @Failure      404 {object} model.Response
// @Router       /api/v1/sessions/{sid}/click [post]
func (c *SessionController) Click(ctx *gin.Context) {
	var req dto.ClickRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	resp, err := c.dashboardService.Click(ctx.Request.Context(), ctx.Param("sid"), req.ComponentID, req.Name)
	if err != nil {
		writeError(ctx, err, "Failed to apply click")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ExportPNG godoc
// @Summary      Export a chart as PNG
// @Tags         sessions
// @Produce      png
// @Param        sid path string true "Session ID"
// @Param        cid path string true "Component ID"
// @Success      200 {file} binary
// @Failure      404 {object} model.Response
// @Failure      422 {object} model.Response "Maps, KPIs and empty charts cannot be exported"
// @Router       /api/v1/sessions/{sid}/components/{cid}/png [get]
func (c *SessionController) ExportPNG(ctx *gin.Context) {
	var buf bytes.Buffer
	if err := c.dashboardService.ExportPNG(ctx.Request.Context(), ctx.Param("sid"), ctx.Param("cid"), &buf); err != nil {
		writeError(ctx, err, "Failed to export component")
		return
	}
	ctx.Header("Content-Disposition", `attachment; filename="`+ctx.Param("cid")+`.png"`)
	ctx.Data(http.StatusOK, "image/png", buf.Bytes())
}
