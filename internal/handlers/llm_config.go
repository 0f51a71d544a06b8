package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

type LLMConfigHandler struct {
	llmConfigService *services.LLMConfigService
	aiService        *services.AIService
}

func NewLLMConfigHandler(configs *services.LLMConfigService, ai *services.AIService) *LLMConfigHandler {
	return &LLMConfigHandler{llmConfigService: configs, aiService: ai}
}

func (h *LLMConfigHandler) List(c *gin.Context) {
	var req services.LLMConfigListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badInput(c, err)
		return
	}
	resp, err := h.llmConfigService.List(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *LLMConfigHandler) GetByID(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	cfg, err := h.llmConfigService.GetByID(id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, cfg)
}

func (h *LLMConfigHandler) Create(c *gin.Context) {
	var req services.CreateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	cfg, err := h.llmConfigService.Create(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, cfg)
}

func (h *LLMConfigHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	cfg, err := h.llmConfigService.Update(id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, cfg)
}

func (h *LLMConfigHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.llmConfigService.Delete(id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "configuración eliminada"})
}

func (h *LLMConfigHandler) GetActive(c *gin.Context) {
	configs, err := h.llmConfigService.GetActive()
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, configs)
}

// Test sends a short test prompt through a stored config.
// POST /api/admin/llm-configs/:id/test
func (h *LLMConfigHandler) Test(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	cfg, err := h.llmConfigService.GetByID(id)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := h.aiService.TestConfig(c.Request.Context(), cfg)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, out)
}
