package feedback

import (
	"slices"
)

// DefaultPageSize matches the evaluator results grid.
const DefaultPageSize = 9

// MaxPageSize bounds one listing page.
const MaxPageSize = 100

// Page is one page of a record listing.
type Page struct {
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	Items      []Record `json:"items"`
}

// Paginate slices records into the requested 1-based page. Page numbers
// past the end yield an empty page; non-positive values fall back to
// page 1 and DefaultPageSize.
func Paginate(records []Record, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	total := len(records)
	p := Page{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
		Items:      []Record{},
	}
	start := (page - 1) * pageSize
	if start >= total {
		return p
	}
	end := min(start+pageSize, total)
	p.Items = slices.Clone(records[start:end])
	return p
}

// Selection is the set of record ids picked on the visible page. It is
// not safe for concurrent use.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle adds id if absent and removes it otherwise.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// SelectAll replaces the selection with every visible record.
func (s *Selection) SelectAll(visible []Record) {
	s.Clear()
	for _, r := range visible {
		s.ids[r.ID] = struct{}{}
	}
}

// AllSelected reports whether every visible record is selected.
func (s *Selection) AllSelected(visible []Record) bool {
	if len(visible) == 0 {
		return false
	}
	for _, r := range visible {
		if !s.Has(r.ID) {
			return false
		}
	}
	return len(s.ids) == len(visible)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	clear(s.ids)
}

// Reset clears the selection when the filtered set changed.
func (s *Selection) Reset(filterChanged bool) {
	if filterChanged {
		s.Clear()
	}
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in visible order. Ids no longer visible
// are dropped.
func (s *Selection) IDs(visible []Record) []string {
	out := make([]string, 0, len(s.ids))
	for _, r := range visible {
		if s.Has(r.ID) {
			out = append(out, r.ID)
		}
	}
	return out
}
