package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/metrics"
	"github.com/lisho/deontolog-ia-feedback/internal/store"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
)

// ErrConfirmationRequired is returned by Submit for a valid submission that
// has not been confirmed yet.
var ErrConfirmationRequired = errors.New("submission must be confirmed")

// SubmitAcknowledgment is shown to the evaluator after a confirmed create.
const SubmitAcknowledgment = "¡Gracias! Tu feedback ha sido enviado correctamente."

// FeedbackService runs the form and review workflows on top of a Store.
type FeedbackService struct {
	store   store.Store
	configs *SystemConfigService
	now     func() time.Time
}

func NewFeedbackService(st store.Store, configs *SystemConfigService) *FeedbackService {
	return &FeedbackService{store: st, configs: configs, now: time.Now}
}

func (s *FeedbackService) activeCriteria() int {
	if s.configs == nil {
		return feedback.CorpusCriteriaCount
	}
	return s.configs.ActiveCorpusCriteria()
}

type TabOption struct {
	Value feedback.Tab `json:"value"`
	Label string       `json:"label"`
}

// FormOptions are the enumerations the evaluator forms are built from.
type FormOptions struct {
	IncidentKinds  []feedback.Kind      `json:"incident_kinds"`
	Kinds          []feedback.Kind      `json:"kinds"`
	Statuses       []feedback.Status    `json:"statuses"`
	Devices        []feedback.Device    `json:"devices"`
	Answers        []string             `json:"answers"`
	Criteria       []feedback.Criterion `json:"criteria"`
	ActiveCriteria int                  `json:"active_criteria"`
	Tabs           []TabOption          `json:"tabs"`
}

func (s *FeedbackService) Options() FormOptions {
	kinds := append([]feedback.Kind{}, feedback.IncidentKinds...)
	kinds = append(kinds, feedback.KindConversation, feedback.KindCorpus)

	n := s.activeCriteria()
	tabs := make([]TabOption, 0, 4)
	for _, t := range []feedback.Tab{feedback.TabGeneral, feedback.TabIncident, feedback.TabConversation, feedback.TabCorpus} {
		tabs = append(tabs, TabOption{Value: t, Label: t.Label()})
	}
	return FormOptions{
		IncidentKinds:  feedback.IncidentKinds,
		Kinds:          kinds,
		Statuses:       feedback.Statuses,
		Devices:        []feedback.Device{feedback.DeviceMobile, feedback.DeviceTablet, feedback.DeviceDesktop},
		Answers:        []string{feedback.AnswerYes, feedback.AnswerNo, feedback.AnswerUnsure, feedback.AnswerDepends},
		Criteria:       feedback.CorpusCriteria[:n],
		ActiveCriteria: n,
		Tabs:           tabs,
	}
}

// SubmitRequest is the body of a form submission.
type SubmitRequest struct {
	feedback.Submission
	Confirmed bool `json:"confirmed"`
}

// Preview validates a submission and returns its confirmation summary.
// Validation failures are feedback.ValidationErrors.
func (s *FeedbackService) Preview(sub feedback.Submission) ([]feedback.SummaryLine, error) {
	if err := feedback.Validate(sub, s.activeCriteria()); err != nil {
		metrics.FeedbackRejected.Inc()
		return nil, err
	}
	return feedback.Summary(sub.Record()), nil
}

// Submit stores a validated, confirmed submission. An unconfirmed one
// returns its summary with ErrConfirmationRequired and writes nothing.
func (s *FeedbackService) Submit(ctx context.Context, req *SubmitRequest) (string, []feedback.SummaryLine, error) {
	summary, err := s.Preview(req.Submission)
	if err != nil {
		return "", nil, err
	}
	if !req.Confirmed {
		return "", summary, ErrConfirmationRequired
	}

	r := req.Record()
	id, err := s.store.Create(ctx, r)
	if err != nil {
		logger.Errorf("[Feedback] Failed to create %s record: %v", r.Kind, err)
		return "", summary, fmt.Errorf("create feedback: %w", err)
	}
	metrics.FeedbackCreated.WithLabelValues(string(r.Kind)).Inc()
	logger.Info().Str("id", id).Str("kind", string(r.Kind)).Msg("[Feedback] Record created")
	return id, summary, nil
}

// ListRequest is a filtered, paginated listing query.
type ListRequest struct {
	feedback.FilterState
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List filters every stored record and returns the requested page. Closed
// records are listed.
func (s *FeedbackService) List(ctx context.Context, req *ListRequest) (*feedback.Page, error) {
	subset, err := s.Filtered(ctx, req.FilterState)
	if err != nil {
		return nil, err
	}
	page := feedback.Paginate(subset, req.Page, req.PageSize)
	return &page, nil
}

// Filtered returns the subset matching f, newest first.
func (s *FeedbackService) Filtered(ctx context.Context, f feedback.FilterState) ([]feedback.Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return feedback.Filter(records, f), nil
}

func (s *FeedbackService) Get(ctx context.Context, id string) (feedback.Record, error) {
	return s.store.Get(ctx, id)
}

type UpdateReviewRequest struct {
	Status feedback.Status `json:"review_status" binding:"required,oneof=Pendiente 'En Revisión' Revisado Cerrado"`
	Result string          `json:"review_result"`
}

// UpdateReview overwrites status and result text together.
func (s *FeedbackService) UpdateReview(ctx context.Context, id string, req *UpdateReviewRequest) (feedback.Record, error) {
	if !req.Status.Valid() {
		return feedback.Record{}, fmt.Errorf("unknown review status %q", req.Status)
	}
	status, result := req.Status, req.Result
	if err := s.store.Update(ctx, id, feedback.Patch{Status: &status, Result: &result}); err != nil {
		return feedback.Record{}, err
	}
	metrics.ReviewUpdates.WithLabelValues(string(status)).Inc()
	return s.store.Get(ctx, id)
}

var (
	// ErrEmptySelection is returned when a bulk request resolves to no ids.
	ErrEmptySelection = errors.New("no records selected")
	// ErrSelectionStale is returned when the filtered set changed since the
	// page the selection was made on was shown.
	ErrSelectionStale = errors.New("selection is out of date")
)

// BulkScope names the visible page a selection was made on. Total is the
// filtered total the client was shown; when set and no longer current the
// selection is discarded.
type BulkScope struct {
	Filter   feedback.FilterState `json:"filter"`
	Page     int                  `json:"page" binding:"omitempty,min=1"`
	PageSize int                  `json:"page_size" binding:"omitempty,min=1,max=100"`
	Total    *int                 `json:"total" binding:"omitempty,min=0"`
}

// Without a scope, IDs are applied as given. With a scope, only ids on the
// scoped page count; SelectAll picks the whole page and IDs then deselect.
type BulkStatusRequest struct {
	IDs       []string        `json:"ids" binding:"omitempty,dive,required"`
	SelectAll bool            `json:"select_all"`
	Scope     *BulkScope      `json:"scope"`
	Status    feedback.Status `json:"review_status" binding:"required,oneof=Pendiente 'En Revisión' Revisado Cerrado"`
}

type BulkDeleteRequest struct {
	IDs       []string   `json:"ids" binding:"omitempty,dive,required"`
	SelectAll bool       `json:"select_all"`
	Scope     *BulkScope `json:"scope"`
}

// BulkResult is the aggregate outcome of a bulk operation. AllVisible is
// set when the selection covered the whole scoped page.
type BulkResult struct {
	Requested  int  `json:"requested"`
	Affected   int  `json:"affected"`
	AllVisible bool `json:"all_visible,omitempty"`
}

// resolveSelection turns a bulk request into the ids to apply.
func (s *FeedbackService) resolveSelection(ctx context.Context, ids []string, selectAll bool, scope *BulkScope) ([]string, bool, error) {
	if scope == nil {
		if selectAll {
			return nil, false, fmt.Errorf("select_all needs a scope: %w", ErrEmptySelection)
		}
		if len(ids) == 0 {
			return nil, false, ErrEmptySelection
		}
		return ids, false, nil
	}

	subset, err := s.Filtered(ctx, scope.Filter)
	if err != nil {
		return nil, false, err
	}
	visible := feedback.Paginate(subset, scope.Page, scope.PageSize).Items

	sel := feedback.NewSelection()
	if selectAll {
		sel.SelectAll(visible)
	}
	for _, id := range ids {
		if sel.Has(id) == selectAll {
			sel.Toggle(id)
		}
	}
	changed := scope.Total != nil && *scope.Total != len(subset)
	sel.Reset(changed)

	picked := sel.IDs(visible)
	if len(picked) == 0 {
		if changed {
			return nil, false, ErrSelectionStale
		}
		return nil, false, ErrEmptySelection
	}
	return picked, sel.AllSelected(visible), nil
}

// BulkUpdateStatus sets one status on every selected id and leaves result
// text untouched. Nothing is applied when any id is missing.
func (s *FeedbackService) BulkUpdateStatus(ctx context.Context, req *BulkStatusRequest) (*BulkResult, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown review status %q", req.Status)
	}
	ids, all, err := s.resolveSelection(ctx, req.IDs, req.SelectAll, req.Scope)
	if err != nil {
		return nil, err
	}
	status := req.Status
	n, err := s.store.BulkUpdate(ctx, ids, feedback.Patch{Status: &status})
	metrics.RecordBulk("status", err)
	if err != nil {
		logger.Warnf("[Feedback] Bulk status change of %d records failed: %v", len(ids), err)
		return nil, err
	}
	metrics.ReviewUpdates.WithLabelValues(string(status)).Add(float64(n))
	return &BulkResult{Requested: len(ids), Affected: n, AllVisible: all}, nil
}

func (s *FeedbackService) BulkDelete(ctx context.Context, req *BulkDeleteRequest) (*BulkResult, error) {
	ids, all, err := s.resolveSelection(ctx, req.IDs, req.SelectAll, req.Scope)
	if err != nil {
		return nil, err
	}
	n, err := s.store.BulkDelete(ctx, ids)
	metrics.RecordBulk("delete", err)
	if err != nil {
		logger.Warnf("[Feedback] Bulk delete of %d records failed: %v", len(ids), err)
		return nil, err
	}
	return &BulkResult{Requested: len(ids), Affected: n, AllVisible: all}, nil
}

func (s *FeedbackService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info().Str("id", id).Msg("[Feedback] Record deleted")
	return nil
}

// Import stores legacy documents of any shape.
func (s *FeedbackService) Import(ctx context.Context, docs []feedback.Document) (int, error) {
	n, err := s.store.Import(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("import feedback: %w", err)
	}
	logger.Infof("[Feedback] Imported %d documents", n)
	return n, nil
}

// Export serializes the subset matching f as CSV. Closed records are
// included unless f excludes them.
func (s *FeedbackService) Export(ctx context.Context, f feedback.FilterState) (filename string, data []byte, err error) {
	subset, err := s.Filtered(ctx, f)
	if err != nil {
		return "", nil, err
	}
	data, err = feedback.ExportCSV(subset)
	if err != nil {
		return "", nil, fmt.Errorf("export feedback: %w", err)
	}
	return feedback.ExportFilename(s.now()), data, nil
}

// Watch streams the full record set: once now and again after every write.
func (s *FeedbackService) Watch(onData func([]feedback.Record), onError func(error)) (unsubscribe func()) {
	return s.store.Subscribe(onData, onError)
}
