package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

// Rescheduler is told when the report schedule changes.
type Rescheduler interface {
	Reschedule() error
}

type SystemConfigHandler struct {
	configService *services.SystemConfigService
	holidays      *services.HolidayService
	scheduler     Rescheduler
}

func NewSystemConfigHandler(configs *services.SystemConfigService, holidays *services.HolidayService, scheduler Rescheduler) *SystemConfigHandler {
	return &SystemConfigHandler{configService: configs, holidays: holidays, scheduler: scheduler}
}

type reportScheduleResponse struct {
	services.ReportSchedule
	Countries []services.CountryInfo `json:"countries"`
}

func (h *SystemConfigHandler) scheduleResponse() reportScheduleResponse {
	return reportScheduleResponse{
		ReportSchedule: h.configService.GetReportSchedule(),
		Countries:      h.holidays.SupportedCountries(),
	}
}

// GET /api/admin/system-config/report-schedule
func (h *SystemConfigHandler) GetReportSchedule(c *gin.Context) {
	response.Success(c, h.scheduleResponse())
}

// PUT /api/admin/system-config/report-schedule
func (h *SystemConfigHandler) UpdateReportSchedule(c *gin.Context) {
	var req services.UpdateReportScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	if req.HolidayCountry != nil && !h.knownCountry(*req.HolidayCountry) {
		response.BadRequest(c, "calendario de festivos no soportado: "+*req.HolidayCountry)
		return
	}
	if err := h.configService.UpdateReportSchedule(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if h.scheduler != nil {
		if err := h.scheduler.Reschedule(); err != nil {
			logger.Errorf("[SystemConfig] Failed to reschedule report: %v", err)
			fail(c, err)
			return
		}
	}
	response.Success(c, h.scheduleResponse())
}

func (h *SystemConfigHandler) knownCountry(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, ci := range h.holidays.SupportedCountries() {
		if ci.Code == code {
			return true
		}
	}
	return false
}

func (h *SystemConfigHandler) GetLDAPConfig(c *gin.Context) {
	response.Success(c, h.configService.GetLDAPConfig())
}

type generalSettings struct {
	ActiveCorpusCriteria int `json:"active_corpus_criteria"`
	LogRetentionDays     int `json:"log_retention_days"`
}

type updateGeneralRequest struct {
	ActiveCorpusCriteria *int `json:"active_corpus_criteria" binding:"omitempty,min=1,max=11"`
	LogRetentionDays     *int `json:"log_retention_days" binding:"omitempty,min=0,max=3650"`
}

func (h *SystemConfigHandler) general() generalSettings {
	return generalSettings{
		ActiveCorpusCriteria: h.configService.ActiveCorpusCriteria(),
		LogRetentionDays:     h.configService.GetInt(services.KeyLogRetentionDays, 30),
	}
}

// GET /api/admin/system-config/general
func (h *SystemConfigHandler) GetGeneral(c *gin.Context) {
	response.Success(c, h.general())
}

// PUT /api/admin/system-config/general
func (h *SystemConfigHandler) UpdateGeneral(c *gin.Context) {
	var req updateGeneralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	if req.ActiveCorpusCriteria != nil {
		if err := h.configService.Set(services.KeyCorpusActiveCriteria, strconv.Itoa(*req.ActiveCorpusCriteria)); err != nil {
			fail(c, err)
			return
		}
	}
	if req.LogRetentionDays != nil {
		if err := h.configService.Set(services.KeyLogRetentionDays, strconv.Itoa(*req.LogRetentionDays)); err != nil {
			fail(c, err)
			return
		}
	}
	response.Success(c, h.general())
}
