package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

type SystemLogHandler struct {
	systemLogService *services.SystemLogService
}

func NewSystemLogHandler(logs *services.SystemLogService) *SystemLogHandler {
	return &SystemLogHandler{systemLogService: logs}
}

func (h *SystemLogHandler) List(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badInput(c, err)
		return
	}
	resp, err := h.systemLogService.List(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *SystemLogHandler) GetModules(c *gin.Context) {
	modules, err := h.systemLogService.GetModules()
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"modules": modules})
}
