package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/service"
	"dashgen-backend/internal/util"
)

type ActivityController struct {
	activityQueryService service.ActivityQueryService
}

func NewActivityController(activityQueryService service.ActivityQueryService) *ActivityController {
	if activityQueryService == nil {
		return nil
	}
	return &ActivityController{
		activityQueryService: activityQueryService,
	}
}

func RegisterActivityRoutes(router *gin.Engine, controller *ActivityController) {
	v1 := router.Group("/api/v1/activity")
	{
		v1.GET("", controller.SearchActivity)
		v1.GET("/summary", controller.GetSummary)
		v1.GET("/distribution", controller.GetDistribution)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBaseQueryParams(ctx *gin.Context) (time.Time, time.Time, []string, error) {
	startTimeStr := ctx.Query("startTime")
	endTimeStr := ctx.Query("endTime")
	if startTimeStr == "" || endTimeStr == "" {
		return time.Time{}, time.Time{}, nil, errors.New("startTime and endTime are required query parameters")
	}

	startTime, errStart := util.ParseTimeFlexible(startTimeStr)
	endTime, errEnd := util.ParseTimeFlexible(endTimeStr)
	if errStart != nil || errEnd != nil {
		return time.Time{}, time.Time{}, nil, errors.New("invalid startTime or endTime format. Use ISO 8601 or epoch milliseconds")
	}
	if endTime.Before(startTime) {
		return time.Time{}, time.Time{}, nil, errors.New("endTime cannot be before startTime")
	}
	return startTime, endTime, splitList(ctx.Query("owners")), nil
}

// SearchActivity godoc
// @Summary      Search dashboard activity
// @Description  Searches activity events by time range, free text, actions, owners and dashboard.
// @Tags         activity
// @Produce      json
// @Param        startTime   query string true  "Start time in ISO 8601 format or epoch milliseconds"
// @Param        endTime     query string true  "End time in ISO 8601 format or epoch milliseconds"
// @Param        query       query string false "Free text search query"
// @Param        actions     query string false "Comma-separated actions (e.g., filter,open)"
// @Param        owners      query string false "Comma-separated owners"
// @Param        dashboardId query string false "Dashboard ID"
// @Param        sortOrder   query string false "Sort order (asc or desc, default: desc)" Enums(asc, desc)
// @Param        page        query int    false "Page number (default: 1)" minimum(1)
// @Param        size        query int    false "Events per page (default: 100, max: 1000)" minimum(1) maximum(1000)
// @Success      200 {object} dto.ActivitySearchResponse
// @Failure      400 {object} model.Response
// @Failure      503 {object} model.Response "Activity pipeline disabled"
// @Router       /api/v1/activity [get]
func (c *ActivityController) SearchActivity(ctx *gin.Context) {
	startTime, endTime, owners, err := parseBaseQueryParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(ctx.DefaultQuery("size", "100"))
	if err != nil || size <= 0 || size > 1000 {
		size = 100
	}
	req := dto.ActivitySearchRequest{
		StartTime:   startTime,
		EndTime:     endTime,
		Query:       ctx.Query("query"),
		Actions:     splitList(ctx.Query("actions")),
		Owners:      owners,
		DashboardID: ctx.Query("dashboardId"),
		SortOrder:   ctx.DefaultQuery("sortOrder", "desc"),
		Page:        page,
		Size:        size,
	}
	result, err := c.activityQueryService.Search(ctx.Request.Context(), req)
	if err != nil {
		writeError(ctx, err, "Failed to search activity")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetSummary godoc
// @Summary      Activity summary
// @Description  Counts actions and failures in a time range.
// @Tags         activity
// @Produce      json
// @Param        startTime query string true  "Start time in ISO 8601 format or epoch milliseconds"
// @Param        endTime   query string true  "End time in ISO 8601 format or epoch milliseconds"
// @Param        owners    query string false "Comma-separated owners"
// @Success      200 {object} dto.ActivitySummaryResponse
// @Failure      400 {object} model.Response
// @Failure      503 {object} model.Response "Activity pipeline disabled"
// @Router       /api/v1/activity/summary [get]
func (c *ActivityController) GetSummary(ctx *gin.Context) {
	startTime, endTime, owners, err := parseBaseQueryParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	result, err := c.activityQueryService.Summary(ctx.Request.Context(), dto.ActivitySummaryRequest{
		StartTime: startTime,
		EndTime:   endTime,
		Owners:    owners,
	})
	if err != nil {
		writeError(ctx, err, "Failed to get activity summary")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetDistribution godoc
// @Summary      Activity distribution
// @Description  Counts actions grouped by action, owner, dashboard or outcome.
// @Tags         activity
// @Produce      json
// @Param        startTime query string true  "Start time in ISO 8601 format or epoch milliseconds"
// @Param        endTime   query string true  "End time in ISO 8601 format or epoch milliseconds"
// @Param        owners    query string false "Comma-separated owners"
// @Param        groupBy   query string false "Dimension (default: action)" Enums(action, owner, dashboard, outcome)
// @Param        limit     query int    false "Maximum buckets (default: 10, max: 100)" minimum(1) maximum(100)
// @Success      200 {object} dto.ActivityDistributionResponse
// @Failure      400 {object} model.Response
// @Failure      503 {object} model.Response "Activity pipeline disabled"
// @Router       /api/v1/activity/distribution [get]
func (c *ActivityController) GetDistribution(ctx *gin.Context) {
	startTime, endTime, owners, err := parseBaseQueryParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil {
		limit = 10
	}
	result, err := c.activityQueryService.Distribution(ctx.Request.Context(), dto.ActivityDistributionRequest{
		StartTime: startTime,
		EndTime:   endTime,
		Owners:    owners,
		GroupBy:   ctx.DefaultQuery("groupBy", "action"),
		Limit:     limit,
	})
	if err != nil {
		writeError(ctx, err, "Failed to get activity distribution")
		return
	}
	ctx.JSON(http.StatusOK, result)
}
