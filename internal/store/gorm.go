package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps each feedback document as JSON next to indexed envelope
// columns. Envelope columns win over the document on read.
type GormStore struct {
	db      *gorm.DB
	records *listeners[[]feedback.Record]
	reports *listeners[[]feedback.Report]
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:      db,
		records: newListeners[[]feedback.Record](),
		reports: newListeners[[]feedback.Report](),
	}
}

func decodeRow(row models.Feedback) feedback.Record {
	doc := feedback.Document{}
	if row.Document != "" {
		if err := json.Unmarshal([]byte(row.Document), &doc); err != nil {
			logger.Warn().Str("id", row.ID).Err(err).Msg("[Store] undecodable feedback document")
			doc = feedback.Document{}
		}
	}
	doc["id"] = row.ID
	if row.Kind != "" {
		doc["tipo_feedback"] = row.Kind
	}
	doc["review_status"] = row.ReviewStatus
	doc["review_result"] = row.ReviewResult
	if !row.CreatedAt.IsZero() {
		doc["timestamp"] = row.CreatedAt.UTC()
	}
	return feedback.Normalize(doc)
}

func encodeDocument(doc feedback.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode feedback document: %w", err)
	}
	return string(data), nil
}

func (s *GormStore) load(ctx context.Context) ([]feedback.Record, error) {
	var rows []models.Feedback
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	out := make([]feedback.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, decodeRow(row))
	}
	return out, nil
}

func (s *GormStore) changed() {
	broadcast(s.records, func() ([]feedback.Record, error) { return s.load(context.Background()) })
}

func (s *GormStore) Subscribe(onData func([]feedback.Record), onError func(error)) func() {
	return subscribe(s.records, func() ([]feedback.Record, error) { return s.load(context.Background()) }, onData, onError)
}

func (s *GormStore) List(ctx context.Context) ([]feedback.Record, error) {
	return s.load(ctx)
}

func (s *GormStore) Get(ctx context.Context, id string) (feedback.Record, error) {
	var row models.Feedback
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return feedback.Record{}, notFound("feedback", id)
		}
		return feedback.Record{}, fmt.Errorf("get feedback: %w", err)
	}
	return decodeRow(row), nil
}

func (s *GormStore) Create(ctx context.Context, r feedback.Record) (string, error) {
	now := nowFunc()
	r.ID = uuid.NewString()
	r.Timestamp = &now
	r.Status = feedback.StatusPending

	doc, err := encodeDocument(feedback.ToDocument(r))
	if err != nil {
		return "", err
	}
	row := models.Feedback{
		ID:           r.ID,
		Kind:         string(r.Kind),
		ReviewStatus: string(r.Status),
		ReviewResult: r.Result,
		Document:     doc,
		CreatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create feedback: %w", err)
	}
	s.changed()
	return r.ID, nil
}

func (s *GormStore) Import(ctx context.Context, docs []feedback.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	rows := make([]models.Feedback, 0, len(docs))
	seen := make(map[string]int, len(docs))
	for _, d := range docs {
		r := feedback.Normalize(d)
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		created := nowFunc()
		if r.Timestamp != nil {
			created = r.Timestamp.UTC()
		}
		raw, err := encodeDocument(d)
		if err != nil {
			return 0, err
		}
		row := models.Feedback{
			ID:           r.ID,
			Kind:         string(r.Kind),
			ReviewStatus: string(r.Status),
			ReviewResult: r.Result,
			Document:     raw,
			CreatedAt:    created,
		}
		// a repeated id within one batch keeps the last document
		if i, ok := seen[row.ID]; ok {
			rows[i] = row
			continue
		}
		seen[row.ID] = len(rows)
		rows = append(rows, row)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		CreateInBatches(rows, 100).Error
	if err != nil {
		return 0, fmt.Errorf("import feedback: %w", err)
	}
	s.changed()
	return len(docs), nil
}

func patchColumns(p feedback.Patch) map[string]interface{} {
	cols := map[string]interface{}{"updated_at": nowFunc()}
	if p.Status != nil {
		cols["review_status"] = string(*p.Status)
	}
	if p.Result != nil {
		cols["review_result"] = *p.Result
	}
	return cols
}

func (s *GormStore) Update(ctx context.Context, id string, patch feedback.Patch) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAll(tx, &models.Feedback{}, []string{id}); err != nil {
			return err
		}
		return tx.Model(&models.Feedback{}).Where("id = ?", id).Updates(patchColumns(patch)).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("update feedback: %w", err)
	}
	s.changed()
	return nil
}

// requireAll fails with ErrNotFound unless every id exists in tx.
func requireAll(tx *gorm.DB, model interface{}, ids []string) error {
	var found []string
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}
	have := make(map[string]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			return notFound("feedback", id)
		}
	}
	return nil
}

func (s *GormStore) BulkUpdate(ctx context.Context, ids []string, patch feedback.Patch) (int, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAll(tx, &models.Feedback{}, ids); err != nil {
			return err
		}
		res := tx.Model(&models.Feedback{}).Where("id IN ?", ids).Updates(patchColumns(patch))
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("bulk update feedback: %w", err)
	}
	s.changed()
	return int(affected), nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Feedback{})
	if res.Error != nil {
		return fmt.Errorf("delete feedback: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("feedback", id)
	}
	s.changed()
	return nil
}

func (s *GormStore) BulkDelete(ctx context.Context, ids []string) (int, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAll(tx, &models.Feedback{}, ids); err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Feedback{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("bulk delete feedback: %w", err)
	}
	s.changed()
	return int(affected), nil
}

func reportFromRow(row models.Report) feedback.Report {
	return feedback.Report{
		ID:              row.ID,
		Title:           row.Title,
		Tab:             feedback.Tab(row.Tab),
		AISummary:       row.AISummary,
		InfographicHTML: row.InfographicHTML,
		TableHTML:       row.TableHTML,
		RecordCount:     row.RecordCount,
		AIModelUsed:     row.AIModelUsed,
		CreatedAt:       row.CreatedAt.UTC(),
	}
}

func (s *GormStore) loadReports(ctx context.Context) ([]feedback.Report, error) {
	var rows []models.Report
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]feedback.Report, 0, len(rows))
	for _, row := range rows {
		out = append(out, reportFromRow(row))
	}
	return out, nil
}

func (s *GormStore) reportsChanged() {
	broadcast(s.reports, func() ([]feedback.Report, error) { return s.loadReports(context.Background()) })
}

func (s *GormStore) CreateReport(ctx context.Context, r feedback.Report) (string, error) {
	row := models.Report{
		ID:              uuid.NewString(),
		Title:           r.Title,
		Tab:             string(r.Tab),
		AISummary:       r.AISummary,
		InfographicHTML: r.InfographicHTML,
		TableHTML:       r.TableHTML,
		RecordCount:     r.RecordCount,
		AIModelUsed:     r.AIModelUsed,
		CreatedAt:       nowFunc(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	s.reportsChanged()
	return row.ID, nil
}

func (s *GormStore) ListReports(ctx context.Context) ([]feedback.Report, error) {
	return s.loadReports(ctx)
}

func (s *GormStore) SubscribeReports(onData func([]feedback.Report), onError func(error)) func() {
	return subscribe(s.reports, func() ([]feedback.Report, error) { return s.loadReports(context.Background()) }, onData, onError)
}

func (s *GormStore) GetReport(ctx context.Context, id string) (feedback.Report, error) {
	var row models.Report
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return feedback.Report{}, notFound("report", id)
		}
		return feedback.Report{}, fmt.Errorf("get report: %w", err)
	}
	return reportFromRow(row), nil
}

func (s *GormStore) DeleteReport(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Report{})
	if res.Error != nil {
		return fmt.Errorf("delete report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("report", id)
	}
	s.reportsChanged()
	return nil
}

var _ Store = (*GormStore)(nil)
