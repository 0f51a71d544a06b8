package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

type ReportHandler struct {
	reportService *services.ReportService
	jobs          *services.JobRunner
}

func NewReportHandler(reports *services.ReportService, jobs *services.JobRunner) *ReportHandler {
	return &ReportHandler{reportService: reports, jobs: jobs}
}

// Generate builds and saves a report for a tab and filter. With async set
// it is queued and announced on the jobs stream.
// POST /api/admin/reports
func (h *ReportHandler) Generate(c *gin.Context) {
	var req services.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	tab, _ := feedback.ParseTab(req.Tab)

	if req.Async && h.jobs != nil {
		jobID, err := h.jobs.EnqueueReport(tab, req.Filter, services.TriggerManual)
		if err != nil {
			fail(c, err)
			return
		}
		response.Accepted(c, gin.H{"job_id": jobID, "tab": tab})
		return
	}

	saved, err := h.reportService.Generate(c.Request.Context(), tab, req.Filter, services.TriggerManual)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, saved)
}

// List returns saved reports, newest first.
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.reportService.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if reports == nil {
		reports = []feedback.Report{}
	}
	response.Success(c, reports)
}

func (h *ReportHandler) Get(c *gin.Context) {
	r, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, r)
}

// Document downloads the report as a standalone HTML page.
// GET /api/admin/reports/:id/document
func (h *ReportHandler) Document(c *gin.Context) {
	filename, data, err := h.reportService.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	attachment(c, filename, "text/html; charset=utf-8", data)
}

func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.reportService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "informe eliminado"})
}
