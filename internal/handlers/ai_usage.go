package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

// AIUsageHandler serves the AI call statistics.
type AIUsageHandler struct {
	usageService *services.AIUsageService
}

func NewAIUsageHandler(usage *services.AIUsageService) *AIUsageHandler {
	return &AIUsageHandler{usageService: usage}
}

func bindUsageFilter(c *gin.Context) (services.UsageFilter, bool) {
	var f services.UsageFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badInput(c, err)
		return f, false
	}
	return f, true
}

func (h *AIUsageHandler) GetStats(c *gin.Context) {
	f, ok := bindUsageFilter(c)
	if !ok {
		return
	}
	stats, err := h.usageService.GetStats(f)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *AIUsageHandler) GetDailyTrend(c *gin.Context) {
	f, ok := bindUsageFilter(c)
	if !ok {
		return
	}
	trend, err := h.usageService.GetDailyTrend(f)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, trend)
}

func (h *AIUsageHandler) GetProviderBreakdown(c *gin.Context) {
	f, ok := bindUsageFilter(c)
	if !ok {
		return
	}
	providers, err := h.usageService.GetProviderBreakdown(f)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, providers)
}

// List returns the latest calls, 50 by default.
func (h *AIUsageHandler) List(c *gin.Context) {
	f, ok := bindUsageFilter(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		response.BadRequest(c, "limit debe estar entre 1 y 500")
		return
	}
	logs, err := h.usageService.Recent(f, limit)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, logs)
}
