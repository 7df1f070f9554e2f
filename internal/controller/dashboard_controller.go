package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/service"
)

type DashboardController struct {
	historyService   service.HistoryService
	dashboardService service.DashboardService
}

func NewDashboardController(historyService service.HistoryService, dashboardService service.DashboardService) *DashboardController {
	return &DashboardController{
		historyService:   historyService,
		dashboardService: dashboardService,
	}
}

func RegisterDashboardRoutes(router *gin.Engine, controller *DashboardController) {
	v1 := router.Group("/api/v1/dashboards")
	{
		v1.GET("", controller.ListDashboards)
		v1.GET("/:id", controller.GetDashboard)
		v1.DELETE("/:id", controller.DeleteDashboard)
		v1.POST("/:id/filter", controller.FilterDashboard)
	}
}

// ListDashboards godoc
// @Summary      List saved dashboards
// @Tags         dashboards
// @Produce      json
// @Param        owner query string false "Owner (defaults to anonymous)"
// @Success      200 {array} model.HistoryItem
// @Failure      500 {object} model.Response
// @Router       /api/v1/dashboards [get]
func (c *DashboardController) ListDashboards(ctx *gin.Context) {
	items, err := c.historyService.List(ctx.Request.Context(), ctx.Query("owner"))
	if err != nil {
		writeError(ctx, err, "Failed to list dashboards")
		return
	}
	if items == nil {
		items = []model.HistoryItem{}
	}
	ctx.JSON(http.StatusOK, items)
}

// GetDashboard godoc
// @Summary      Get a saved dashboard with its rows
// @Tags         dashboards
// @Produce      json
// @Param        id    path  string true  "Dashboard ID"
// @Param        owner query string false "Owner (defaults to anonymous)"
// @Success      200 {object} dto.DashboardDataResponse
// @Failure      404 {object} model.Response
// @Router       /api/v1/dashboards/{id} [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	resp, err := c.historyService.Get(ctx.Request.Context(), ctx.Query("owner"), ctx.Param("id"))
	if err != nil {
		writeError(ctx, err, "Failed to load dashboard")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteDashboard godoc
// @Summary      Delete a saved dashboard
// @Description  With a session, deletes from that session's owner and reports whether the session was reset. Without one, deletes from the given owner and resets every session showing it.
// @Tags         dashboards
// @Produce      json
// @Param        id      path  string true  "Dashboard ID"
// @Param        owner   query string false "Owner (defaults to anonymous)"
// @Param        session query string false "Session ID"
// @Success      200 {object} dto.DeleteDashboardResponse
// @Failure      404 {object} model.Response
// @Router       /api/v1/dashboards/{id} [delete]
func (c *DashboardController) DeleteDashboard(ctx *gin.Context) {
	id := ctx.Param("id")
	if sid := ctx.Query("session"); sid != "" {
		reset, err := c.dashboardService.DeleteDashboard(ctx.Request.Context(), sid, id)
		if err != nil {
			writeError(ctx, err, "Failed to delete dashboard")
			return
		}
		ctx.JSON(http.StatusOK, dto.DeleteDashboardResponse{ID: id, SessionReset: reset})
		return
	}
	if err := c.historyService.Delete(ctx.Request.Context(), ctx.Query("owner"), id); err != nil {
		writeError(ctx, err, "Failed to delete dashboard")
		return
	}
	ctx.JSON(http.StatusOK, dto.DeleteDashboardResponse{ID: id})
}

// FilterDashboard godoc
// @Summary      Recompute a saved dashboard under filters
// @Tags         dashboards
// @Accept       json
// @Produce      json
// @Param        id      path  string                     true  "Dashboard ID"
// @Param        owner   query string                     false "Owner (defaults to anonymous)"
// @Param        request body  dto.FilterDashboardRequest false "Column to value filters"
// @Success      200 {object} dto.FilterDashboardResponse
// @Failure      404 {object} model.Response
// @Router       /api/v1/dashboards/{id}/filter [post]
func (c *DashboardController) FilterDashboard(ctx *gin.Context) {
	var req dto.FilterDashboardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	resp, err := c.historyService.Filter(ctx.Request.Context(), ctx.Query("owner"), ctx.Param("id"), req.Filters)
	if err != nil {
		writeError(ctx, err, "Failed to filter dashboard")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
