package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboard}
}

// GetStats returns every dashboard view for the filter in the query.
// GET /api/admin/dashboard
func (h *DashboardHandler) GetStats(c *gin.Context) {
	var f feedback.FilterState
	if err := c.ShouldBindQuery(&f); err != nil {
		badInput(c, err)
		return
	}
	resp, err := h.dashboardService.Get(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}
