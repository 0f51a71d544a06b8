package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/metrics"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/internal/report"
	"github.com/lisho/deontolog-ia-feedback/internal/store"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
)

// SummaryPlaceholder replaces the executive summary when the summarizer
// cannot be reached.
const SummaryPlaceholder = "No se ha podido generar el resumen ejecutivo con IA. " +
	"Compruebe que hay una clave de API configurada para el servicio de resumen y vuelva a generar el informe. " +
	"Los datos del informe se han calculado con normalidad."

// ErrReportSave marks a failure to persist a built report.
var ErrReportSave = errors.New("report could not be saved")

// Report triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

const defaultReportSampleSize = 20

// ReportService builds, persists and serves analysis reports.
type ReportService struct {
	feedback   *FeedbackService
	store      store.Store
	summarizer Summarizer
	configs    *SystemConfigService
	sampleSize int
}

func NewReportService(fb *FeedbackService, st store.Store, summarizer Summarizer, configs *SystemConfigService, sampleSize int) *ReportService {
	if sampleSize <= 0 {
		sampleSize = defaultReportSampleSize
	}
	return &ReportService{
		feedback:   fb,
		store:      st,
		summarizer: summarizer,
		configs:    configs,
		sampleSize: sampleSize,
	}
}

type GenerateReportRequest struct {
	Tab    string               `json:"tab" binding:"required,oneof=general incident iteration conversation corpus"`
	Filter feedback.FilterState `json:"filter"`
	Async  bool                 `json:"async"`
}

// Build assembles an unsaved report over subset. A summarizer failure
// yields SummaryPlaceholder and never fails the build.
func (s *ReportService) Build(ctx context.Context, tab feedback.Tab, subset []feedback.Record) (feedback.Report, error) {
	infographic, err := report.Infographic(tab, subset)
	if err != nil {
		return feedback.Report{}, fmt.Errorf("render infographic: %w", err)
	}
	table, err := report.Table(tab, subset)
	if err != nil {
		return feedback.Report{}, fmt.Errorf("render table: %w", err)
	}

	summary, model := s.summarize(ctx, tab, subset)
	return feedback.Report{
		Title:           report.Title(tab),
		Tab:             tab,
		AISummary:       summary,
		InfographicHTML: infographic,
		TableHTML:       table,
		RecordCount:     len(subset),
		AIModelUsed:     model,
	}, nil
}

func (s *ReportService) summarize(ctx context.Context, tab feedback.Tab, subset []feedback.Record) (string, string) {
	if s.summarizer == nil {
		return SummaryPlaceholder, ""
	}
	prompt, err := s.prompt(tab, subset)
	if err != nil {
		logger.Warnf("[Report] Failed to build prompt: %v", err)
		return SummaryPlaceholder, ""
	}

	var llmID uint
	if s.configs != nil {
		llmID = s.configs.GetUint(KeyReportLLMConfigID)
	}
	out, err := s.summarizer.Summarize(ctx, SummaryRequest{
		Purpose:     models.AIPurposeReport,
		LLMConfigID: llmID,
		Prompt:      prompt,
	})
	if err != nil {
		logger.Warnf("[Report] AI summary failed, using placeholder: %v", err)
		return SummaryPlaceholder, ""
	}
	return strings.TrimSpace(out.Content), out.Model
}

var tabFraming = map[feedback.Tab]string{
	feedback.TabGeneral:      "una visión general de todo el feedback recibido (incidencias, valoraciones de conversación y validaciones de corpus)",
	feedback.TabIncident:     "las incidencias notificadas (errores, sugerencias de mejora, valoraciones positivas e inquietudes éticas)",
	feedback.TabConversation: "las valoraciones de conversaciones completas con el chatbot, atendiendo a claridad, utilidad y valoración deontológica",
	feedback.TabCorpus:       "la validación experta del corpus ético que alimenta la IA, criterio por criterio",
}

// sampleRow is the compact record shape sent to the summarizer.
type sampleRow struct {
	Kind     feedback.Kind   `json:"tipo"`
	Status   feedback.Status `json:"estado"`
	Scenario string          `json:"escenario,omitempty"`
	Text     string          `json:"descripcion,omitempty"`
	Rating   float64         `json:"valoracion,omitempty"`
	Comments string          `json:"comentarios,omitempty"`
}

func (s *ReportService) prompt(tab feedback.Tab, subset []feedback.Record) (string, error) {
	sample := subset
	if len(sample) > s.sampleSize {
		sample = sample[:s.sampleSize]
	}
	rows := make([]sampleRow, 0, len(sample))
	for _, r := range sample {
		comments := r.FinalComments
		if r.Corpus != nil && r.Corpus.Comments != "" {
			comments = r.Corpus.Comments
		}
		rows = append(rows, sampleRow{
			Kind:     r.Kind,
			Status:   r.Status,
			Scenario: r.Scenario,
			Text:     r.Description(),
			Rating:   r.PrimaryRating(),
			Comments: comments,
		})
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}

	framing, ok := tabFraming[tab]
	if !ok {
		framing = tabFraming[feedback.TabGeneral]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Actúa como analista del Colegio Oficial de Trabajo Social. Redacta en español un resumen ejecutivo sobre %s ", framing)
	sb.WriteString("recibido para Deontolog-IA, un chatbot de consulta deontológica. ")
	fmt.Fprintf(&sb, "Hay %d registros en total; se adjunta una muestra de %d en JSON. ", len(subset), len(sample))
	sb.WriteString("Identifica tendencias, problemas recurrentes y recomendaciones concretas. Usa párrafos breves y texto plano, sin Markdown.\n\n")
	sb.Write(data)
	return sb.String(), nil
}

// Generate builds a report over the non-closed records matching filter in
// the tab's scope and persists it. A save failure wraps ErrReportSave.
func (s *ReportService) Generate(ctx context.Context, tab feedback.Tab, filter feedback.FilterState, trigger string) (*feedback.Report, error) {
	records, err := s.feedback.Filtered(ctx, filter)
	if err != nil {
		return nil, err
	}
	subset := feedback.ByTab(feedback.ExcludeClosed(records), tab)

	built, err := s.Build(ctx, tab, subset)
	if err != nil {
		return nil, err
	}

	id, err := s.store.CreateReport(ctx, built)
	if err != nil {
		logger.Errorf("[Report] Failed to save %s report: %v", tab, err)
		return nil, fmt.Errorf("%w: %v", ErrReportSave, err)
	}
	saved, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportSave, err)
	}

	metrics.ReportsGenerated.WithLabelValues(string(tab), trigger).Inc()
	logger.Info().Str("id", id).Str("tab", string(tab)).Int("records", built.RecordCount).Str("trigger", trigger).Msg("[Report] Report saved")
	return &saved, nil
}

func (s *ReportService) List(ctx context.Context) ([]feedback.Report, error) {
	return s.store.ListReports(ctx)
}

func (s *ReportService) Get(ctx context.Context, id string) (feedback.Report, error) {
	return s.store.GetReport(ctx, id)
}

func (s *ReportService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteReport(ctx, id)
}

// Document renders a stored report as a standalone HTML file.
func (s *ReportService) Document(ctx context.Context, id string) (filename string, data []byte, err error) {
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := report.WriteDocument(&buf, r); err != nil {
		return "", nil, fmt.Errorf("render report document: %w", err)
	}
	return report.DocumentFilename(r), buf.Bytes(), nil
}
