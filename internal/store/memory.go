package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
)

// MemoryStore keeps records in process. It backs demos and tests and
// applies every write to its local list immediately.
type MemoryStore struct {
	mu      sync.RWMutex
	items   []feedback.Record
	reps    []feedback.Report
	records *listeners[[]feedback.Record]
	reports *listeners[[]feedback.Report]
}

// NewMemoryStore returns a store holding seed, reordered newest first.
func NewMemoryStore(seed []feedback.Record) *MemoryStore {
	items := make([]feedback.Record, len(seed))
	for i, r := range seed {
		items[i] = r.Clone()
	}
	s := &MemoryStore{
		items:   items,
		records: newListeners[[]feedback.Record](),
		reports: newListeners[[]feedback.Report](),
	}
	sortNewestFirst(s.items)
	return s
}

func sortNewestFirst(records []feedback.Record) {
	slices.SortStableFunc(records, func(a, b feedback.Record) int {
		var ta, tb int64
		if a.Timestamp != nil {
			ta = a.Timestamp.UnixNano()
		}
		if b.Timestamp != nil {
			tb = b.Timestamp.UnixNano()
		}
		switch {
		case ta > tb:
			return -1
		case ta < tb:
			return 1
		}
		return 0
	})
}

func (s *MemoryStore) snapshot() ([]feedback.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]feedback.Record, len(s.items))
	for i, r := range s.items {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *MemoryStore) reportSnapshot() ([]feedback.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reps), nil
}

func (s *MemoryStore) changed()        { broadcast(s.records, s.snapshot) }
func (s *MemoryStore) reportsChanged() { broadcast(s.reports, s.reportSnapshot) }

func (s *MemoryStore) Subscribe(onData func([]feedback.Record), onError func(error)) func() {
	return subscribe(s.records, s.snapshot, onData, onError)
}

func (s *MemoryStore) List(ctx context.Context) ([]feedback.Record, error) {
	return s.snapshot()
}

func (s *MemoryStore) indexOf(id string) int {
	for i, r := range s.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) Get(ctx context.Context, id string) (feedback.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), nil
	}
	return feedback.Record{}, notFound("feedback", id)
}

func (s *MemoryStore) Create(ctx context.Context, r feedback.Record) (string, error) {
	now := nowFunc()
	r = r.Clone()
	r.ID = uuid.NewString()
	r.Timestamp = &now
	r.Status = feedback.StatusPending

	s.mu.Lock()
	s.items = append([]feedback.Record{r}, s.items...)
	sortNewestFirst(s.items)
	s.mu.Unlock()

	s.changed()
	return r.ID, nil
}

func (s *MemoryStore) Import(ctx context.Context, docs []feedback.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	for _, d := range docs {
		r := feedback.Normalize(d)
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Timestamp == nil {
			now := nowFunc()
			r.Timestamp = &now
		}
		if i := s.indexOf(r.ID); i >= 0 {
			s.items[i] = r
		} else {
			s.items = append(s.items, r)
		}
	}
	sortNewestFirst(s.items)
	s.mu.Unlock()

	s.changed()
	return len(docs), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch feedback.Patch) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return notFound("feedback", id)
	}
	s.items[i] = patch.Apply(s.items[i])
	s.mu.Unlock()

	s.changed()
	return nil
}

// positions resolves every id, failing on the first missing one.
func (s *MemoryStore) positions(ids []string) ([]int, error) {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		i := s.indexOf(id)
		if i < 0 {
			return nil, notFound("feedback", id)
		}
		out = append(out, i)
	}
	return out, nil
}

func (s *MemoryStore) BulkUpdate(ctx context.Context, ids []string, patch feedback.Patch) (int, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	pos, err := s.positions(ids)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	for _, i := range pos {
		s.items[i] = patch.Apply(s.items[i])
	}
	s.mu.Unlock()

	s.changed()
	return len(pos), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.BulkDelete(ctx, []string{id})
	return err
}

func (s *MemoryStore) BulkDelete(ctx context.Context, ids []string) (int, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	if _, err := s.positions(ids); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.items = slices.DeleteFunc(s.items, func(r feedback.Record) bool {
		_, ok := drop[r.ID]
		return ok
	})
	s.mu.Unlock()

	s.changed()
	return len(ids), nil
}

func (s *MemoryStore) CreateReport(ctx context.Context, r feedback.Report) (string, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = nowFunc()

	s.mu.Lock()
	s.reps = append([]feedback.Report{r}, s.reps...)
	s.mu.Unlock()

	s.reportsChanged()
	return r.ID, nil
}

func (s *MemoryStore) ListReports(ctx context.Context) ([]feedback.Report, error) {
	return s.reportSnapshot()
}

func (s *MemoryStore) SubscribeReports(onData func([]feedback.Report), onError func(error)) func() {
	return subscribe(s.reports, s.reportSnapshot, onData, onError)
}

func (s *MemoryStore) GetReport(ctx context.Context, id string) (feedback.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reps {
		if r.ID == id {
			return r, nil
		}
	}
	return feedback.Report{}, notFound("report", id)
}

func (s *MemoryStore) DeleteReport(ctx context.Context, id string) error {
	s.mu.Lock()
	n := len(s.reps)
	s.reps = slices.DeleteFunc(s.reps, func(r feedback.Report) bool { return r.ID == id })
	removed := len(s.reps) < n
	s.mu.Unlock()

	if !removed {
		return notFound("report", id)
	}
	s.reportsChanged()
	return nil
}

var _ Store = (*MemoryStore)(nil)
