package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

const maxImportBytes = 20 << 20

type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	assistService   *services.ReviewAssistService
	jobs            *services.JobRunner
}

func NewFeedbackHandler(fb *services.FeedbackService, assist *services.ReviewAssistService, jobs *services.JobRunner) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: fb, assistService: assist, jobs: jobs}
}

// Options returns the form enumerations.
// GET /api/feedback/options
func (h *FeedbackHandler) Options(c *gin.Context) {
	response.Success(c, h.feedbackService.Options())
}

// Preview validates a submission and returns the confirmation summary.
// POST /api/feedback/preview
func (h *FeedbackHandler) Preview(c *gin.Context) {
	var sub feedback.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badInput(c, err)
		return
	}
	summary, err := h.feedbackService.Preview(sub)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"summary": summary})
}

// Submit stores a confirmed submission.
// POST /api/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	id, summary, err := h.feedbackService.Submit(c.Request.Context(), &req)
	if errors.Is(err, services.ErrConfirmationRequired) {
		response.Error(c, response.NewBadRequest("confirma el envío tras revisar el resumen").WithData(gin.H{
			"confirmation_required": true,
			"summary":               summary,
		}))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{
		"id":      id,
		"message": services.SubmitAcknowledgment,
		"summary": summary,
	})
}

// List returns a filtered page of records.
// GET /api/admin/feedback
func (h *FeedbackHandler) List(c *gin.Context) {
	var req services.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badInput(c, err)
		return
	}
	page, err := h.feedbackService.List(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

func (h *FeedbackHandler) Get(c *gin.Context) {
	r, err := h.feedbackService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, r)
}

// UpdateReview sets status and result text of one record.
// PUT /api/admin/feedback/:id/review
func (h *FeedbackHandler) UpdateReview(c *gin.Context) {
	var req services.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	r, err := h.feedbackService.UpdateReview(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, r)
}

// Assist asks the AI for a review synthesis. With ?async=true the job is
// queued and its outcome arrives on the jobs stream.
// POST /api/admin/feedback/:id/assist
func (h *FeedbackHandler) Assist(c *gin.Context) {
	id := c.Param("id")
	if c.Query("async") == "true" && h.jobs != nil {
		if _, err := h.feedbackService.Get(c.Request.Context(), id); err != nil {
			fail(c, err)
			return
		}
		jobID, err := h.jobs.EnqueueAssist(id)
		if err != nil {
			fail(c, err)
			return
		}
		response.Accepted(c, gin.H{"job_id": jobID, "feedback_id": id})
		return
	}

	res, err := h.assistService.Suggest(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	if err := h.feedbackService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "registro eliminado"})
}

// BulkStatus applies one status to every selected record.
// POST /api/admin/feedback/bulk/status
func (h *FeedbackHandler) BulkStatus(c *gin.Context) {
	var req services.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	res, err := h.feedbackService.BulkUpdateStatus(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

// POST /api/admin/feedback/bulk/delete
func (h *FeedbackHandler) BulkDelete(c *gin.Context) {
	var req services.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	res, err := h.feedbackService.BulkDelete(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

// Import loads legacy documents, either as a JSON array body or as an
// uploaded JSON file in the "file" field.
// POST /api/admin/feedback/import
func (h *FeedbackHandler) Import(c *gin.Context) {
	var src io.Reader = c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			response.BadRequest(c, "no se pudo leer el fichero")
			return
		}
		defer f.Close()
		src = f
	}

	raw, err := io.ReadAll(io.LimitReader(src, maxImportBytes+1))
	if err != nil {
		response.BadRequest(c, "no se pudo leer el contenido")
		return
	}
	if len(raw) > maxImportBytes {
		response.Error(c, &response.AppError{HTTPStatus: http.StatusRequestEntityTooLarge, Code: 413, Message: "el fichero es demasiado grande"})
		return
	}

	var docs []feedback.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		response.BadRequest(c, "se esperaba una lista JSON de registros")
		return
	}
	if len(docs) == 0 {
		response.BadRequest(c, "no hay registros que importar")
		return
	}

	n, err := h.feedbackService.Import(c.Request.Context(), docs)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{"imported": n})
}

// Export downloads the filtered records as CSV.
// GET /api/admin/feedback/export
func (h *FeedbackHandler) Export(c *gin.Context) {
	var f feedback.FilterState
	if err := c.ShouldBindQuery(&f); err != nil {
		badInput(c, err)
		return
	}
	filename, data, err := h.feedbackService.Export(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	attachment(c, filename, "text/csv; charset=utf-8", data)
}
