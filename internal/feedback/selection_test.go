package feedback

import (
	"fmt"
	"strings"
	"testing"
)

func numbered(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = incident(fmt.Sprintf("r%d", i+1), KindError, StatusPending)
	}
	return out
}

func TestPaginate(t *testing.T) {
	records := numbered(20)
	tests := []struct {
		page, size int
		wantItems  int
		wantPages  int
		wantFirst  string
	}{
		{1, 0, 9, 3, "r1"},
		{3, 9, 2, 3, "r19"},
		{4, 9, 0, 3, ""},
		{0, 5, 5, 4, "r1"},
		{1, 500, 20, 1, "r1"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d size %d", tt.page, tt.size), func(t *testing.T) {
			p := Paginate(records, tt.page, tt.size)
			if len(p.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(p.Items), tt.wantItems)
			}
			if p.TotalPages != tt.wantPages {
				t.Errorf("total pages = %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.Total != 20 {
				t.Errorf("total = %d", p.Total)
			}
			if tt.wantFirst != "" && p.Items[0].ID != tt.wantFirst {
				t.Errorf("first item = %s, want %s", p.Items[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestSelection(t *testing.T) {
	visible := numbered(3)
	s := NewSelection()

	s.SelectAll(visible)
	if !s.AllSelected(visible) || s.Len() != 3 {
		t.Errorf("SelectAll should select every visible record, got %d", s.Len())
	}

	s.Toggle("r2")
	if s.Has("r2") || s.AllSelected(visible) {
		t.Error("Toggle should deselect r2")
	}
	if got := strings.Join(s.IDs(visible), ","); got != "r1,r3" {
		t.Errorf("IDs = %s", got)
	}

	s.Reset(false)
	if s.Len() != 2 {
		t.Error("Reset(false) should keep the selection")
	}
	s.Reset(true)
	if s.Len() != 0 {
		t.Error("filter change should clear the selection")
	}
}

func TestSummary_NonEmptyFields(t *testing.T) {
	r := New(KindConversation)
	r.Device = DeviceDesktop
	r.Scenario = "Tranvía"
	r.Conversation.Clarity = AnswerYes
	r.Conversation.DeontologicalRating = 4

	lines := Summary(r)
	labels := map[string]string{}
	for _, l := range lines {
		labels[l.Label] = l.Value
	}
	if labels["Valoración Deontológica"] != "4 ★" {
		t.Errorf("rating line = %q", labels["Valoración Deontológica"])
	}
	if _, ok := labels["Utilidad"]; ok {
		t.Error("empty usefulness should be omitted")
	}
	if _, ok := labels["Pertinencia Respuestas"]; ok {
		t.Error("zero rating should be omitted")
	}
	if lines[0].Key != "dispositivo" {
		t.Errorf("first line = %s", lines[0].Key)
	}
}
