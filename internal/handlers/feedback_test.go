package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/internal/store"
)

func newFeedbackRouter(st store.Store, sum services.Summarizer) *gin.Engine {
	fb := services.NewFeedbackService(st, nil)
	assist := services.NewReviewAssistService(st, sum, nil)
	h := NewFeedbackHandler(fb, assist, nil)

	r := gin.New()
	r.GET("/api/feedback/options", h.Options)
	r.POST("/api/feedback/preview", h.Preview)
	r.POST("/api/feedback", h.Submit)
	admin := r.Group("/api/admin/feedback")
	admin.GET("", h.List)
	admin.GET("/export", h.Export)
	admin.POST("/import", h.Import)
	admin.POST("/bulk/status", h.BulkStatus)
	admin.POST("/bulk/delete", h.BulkDelete)
	admin.GET("/:id", h.Get)
	admin.PUT("/:id/review", h.UpdateReview)
	admin.POST("/:id/assist", h.Assist)
	admin.DELETE("/:id", h.Delete)
	return r
}

func mockStore(n int) *store.MemoryStore {
	return store.NewMemoryStore(store.MockRecords(n, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))
}

func incidentBody(confirmed bool) map[string]interface{} {
	return map[string]interface{}{
		"nombre_evaluador":   "Ana",
		"dispositivo":        "Ordenador",
		"escenario_keywords": "secreto profesional",
		"tipo_feedback":      "Error o Fallo",
		"descripcion":        "Cita un código deontológico antiguo.",
		"confirmed":          confirmed,
	}
}

func TestSubmit_ConfirmationFlow(t *testing.T) {
	st := store.NewMemoryStore(nil)
	router := newFeedbackRouter(st, nil)

	w, env := doJSON(t, router, "POST", "/api/feedback", incidentBody(false))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed: status %d, body %s", w.Code, w.Body.String())
	}
	var pending struct {
		ConfirmationRequired bool                   `json:"confirmation_required"`
		Summary              []feedback.SummaryLine `json:"summary"`
	}
	json.Unmarshal(env.Data, &pending)
	if !pending.ConfirmationRequired || len(pending.Summary) == 0 {
		t.Errorf("data = %s", env.Data)
	}

	w, env = doJSON(t, router, "POST", "/api/feedback", incidentBody(true))
	if w.Code != http.StatusCreated {
		t.Fatalf("confirmed: status %d, body %s", w.Code, w.Body.String())
	}
	var created struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	json.Unmarshal(env.Data, &created)
	if created.ID == "" || created.Message != services.SubmitAcknowledgment {
		t.Errorf("data = %s", env.Data)
	}
}

func TestSubmit_ValidationEnvelope(t *testing.T) {
	router := newFeedbackRouter(store.NewMemoryStore(nil), nil)
	body := incidentBody(true)
	body["descripcion"] = ""

	w, env := doJSON(t, router, "POST", "/api/feedback/preview", body)
	if w.Code != http.StatusBadRequest || env.Code != 400 {
		t.Fatalf("status %d, code %d", w.Code, env.Code)
	}
	var data struct {
		FirstField string            `json:"first_field"`
		Fields     map[string]string `json:"fields"`
	}
	json.Unmarshal(env.Data, &data)
	if data.FirstField != "descripcion" || data.Fields["descripcion"] == "" {
		t.Errorf("data = %s", env.Data)
	}
}

func TestSubmit_MalformedBody(t *testing.T) {
	router := newFeedbackRouter(store.NewMemoryStore(nil), nil)
	w, _ := doJSON(t, router, "POST", "/api/feedback", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d", w.Code)
	}
}

func TestOptions(t *testing.T) {
	router := newFeedbackRouter(store.NewMemoryStore(nil), nil)
	w, env := doJSON(t, router, "GET", "/api/feedback/options", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var opts services.FormOptions
	json.Unmarshal(env.Data, &opts)
	if opts.ActiveCriteria != feedback.CorpusCriteriaCount || len(opts.Devices) != 3 {
		t.Errorf("options = %+v", opts)
	}
}

func TestGetAndReview(t *testing.T) {
	st := mockStore(3)
	router := newFeedbackRouter(st, nil)

	w, _ := doJSON(t, router, "GET", "/api/admin/feedback/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing record: status %d", w.Code)
	}

	w, env := doJSON(t, router, "PUT", "/api/admin/feedback/mock2/review", map[string]string{
		"review_status": "En Revisión",
		"review_result": "Pendiente de consultar con la comisión.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("review: status %d, body %s", w.Code, w.Body.String())
	}
	var r feedback.Record
	json.Unmarshal(env.Data, &r)
	if r.Status != feedback.StatusInReview || r.Result != "Pendiente de consultar con la comisión." {
		t.Errorf("record = %+v", r)
	}

	w, _ = doJSON(t, router, "PUT", "/api/admin/feedback/mock2/review", map[string]string{"review_status": "Archivado"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown status: %d", w.Code)
	}
}

func TestList(t *testing.T) {
	router := newFeedbackRouter(mockStore(12), nil)

	w, env := doJSON(t, router, "GET", "/api/admin/feedback?page=2&page_size=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	var page feedback.Page
	json.Unmarshal(env.Data, &page)
	if page.Total != 12 || page.Page != 2 || len(page.Items) != 5 {
		t.Errorf("page = total %d, page %d, items %d", page.Total, page.Page, len(page.Items))
	}

	w, _ = doJSON(t, router, "GET", "/api/admin/feedback?page_size=1000", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized page: status %d", w.Code)
	}
}

func TestBulkEndpoints(t *testing.T) {
	st := mockStore(4)
	router := newFeedbackRouter(st, nil)

	w, _ := doJSON(t, router, "POST", "/api/admin/feedback/bulk/status", map[string]interface{}{"ids": []string{}, "review_status": "Cerrado"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty ids: status %d", w.Code)
	}

	w, _ = doJSON(t, router, "POST", "/api/admin/feedback/bulk/status", map[string]interface{}{"ids": []string{"mock1", "ghost"}, "review_status": "Cerrado"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing id: status %d", w.Code)
	}

	w, env := doJSON(t, router, "POST", "/api/admin/feedback/bulk/status", map[string]interface{}{"ids": []string{"mock1", "mock2"}, "review_status": "Cerrado"})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk status: %d, body %s", w.Code, w.Body.String())
	}
	var res services.BulkResult
	json.Unmarshal(env.Data, &res)
	if res.Affected != 2 {
		t.Errorf("affected = %d", res.Affected)
	}

	w, _ = doJSON(t, router, "POST", "/api/admin/feedback/bulk/delete", map[string]interface{}{"ids": []string{"mock3"}})
	if w.Code != http.StatusOK {
		t.Errorf("bulk delete: %d", w.Code)
	}
	w, _ = doJSON(t, router, "DELETE", "/api/admin/feedback/mock3", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete twice: %d", w.Code)
	}
}

func TestBulkSelectAllScope(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]interface{}
		want     int
		affected int
	}{
		{"visible page", map[string]interface{}{
			"select_all": true, "review_status": "Revisado",
			"scope": map[string]interface{}{"page": 1, "page_size": 2, "total": 5},
		}, http.StatusOK, 2},
		{"stale total", map[string]interface{}{
			"select_all": true, "review_status": "Revisado",
			"scope": map[string]interface{}{"page": 1, "page_size": 2, "total": 4},
		}, http.StatusConflict, 0},
		{"bad scope filter", map[string]interface{}{
			"select_all": true, "review_status": "Revisado",
			"scope": map[string]interface{}{"filter": map[string]interface{}{"status": "Archivado"}},
		}, http.StatusBadRequest, 0},
		{"select all without scope", map[string]interface{}{
			"select_all": true, "review_status": "Revisado",
		}, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newFeedbackRouter(mockStore(5), nil)
			w, env := doJSON(t, router, "POST", "/api/admin/feedback/bulk/status", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status %d, want %d, body %s", w.Code, tt.want, w.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			var res services.BulkResult
			json.Unmarshal(env.Data, &res)
			if res.Affected != tt.affected || !res.AllVisible {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestExport(t *testing.T) {
	router := newFeedbackRouter(mockStore(3), nil)

	w, _ := doJSON(t, router, "GET", "/api/admin/feedback/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %s", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="feedback-export-`) || !strings.HasSuffix(cd, `.csv"`) {
		t.Errorf("Content-Disposition = %s", cd)
	}
}

func TestImport(t *testing.T) {
	st := store.NewMemoryStore(nil)
	router := newFeedbackRouter(st, nil)

	docs := `[{"tipo_feedback":"Sugerencia de Mejora","descripcion":"Añadir ejemplos.","timestamp":"2024-05-01T10:00:00Z"},{"tipo_feedback":"Validación de Corpus","corpus_c1_fuentes_pertinentes":4}]`
	w, env := doJSON(t, router, "POST", "/api/admin/feedback/import", docs)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	var res struct {
		Imported int `json:"imported"`
	}
	json.Unmarshal(env.Data, &res)
	if res.Imported != 2 {
		t.Errorf("imported = %d", res.Imported)
	}

	for _, body := range []string{"[]", `{"a":1}`} {
		w, _ = doJSON(t, router, "POST", "/api/admin/feedback/import", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status %d", body, w.Code)
		}
	}
}

func TestAssist(t *testing.T) {
	tests := []struct {
		name       string
		sum        services.Summarizer
		id         string
		wantStatus int
	}{
		{"suggestion", stubSummarizer{content: "Problema: ..."}, "mock1", http.StatusOK},
		{"no credential", stubSummarizer{err: services.ErrCredentialMissing}, "mock1", http.StatusServiceUnavailable},
		{"provider down", stubSummarizer{err: services.ErrSummarizerUnavailable}, "mock1", http.StatusBadGateway},
		{"missing record", stubSummarizer{content: "x"}, "ghost", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newFeedbackRouter(mockStore(2), tt.sum)
			w, _ := doJSON(t, router, "POST", "/api/admin/feedback/"+tt.id+"/assist", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
