package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
)

func sampleRecords() []feedback.Record {
	ts := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	inc := feedback.New(feedback.KindError)
	inc.ID = "i1"
	inc.Scenario = "Secreto <profesional>"
	inc.Timestamp = &ts
	inc.Incident.LegacyRating = 4

	conv := feedback.New(feedback.KindConversation)
	conv.ID = "c1"
	conv.Status = feedback.StatusReviewed
	conv.Timestamp = &ts
	conv.Conversation.DeontologicalRating = 5
	conv.Conversation.Clarity = "Sí"

	corpus := feedback.New(feedback.KindCorpus)
	corpus.ID = "k1"
	corpus.EvaluatorName = "Ana"
	corpus.Corpus.Criteria[0] = 5
	corpus.Corpus.Criteria[2] = 4

	return []feedback.Record{inc, conv, corpus}
}

func TestTitle(t *testing.T) {
	if got := Title(feedback.TabCorpus); got != "Informe de Feedback: Validación Corpus" {
		t.Errorf("Title = %q", got)
	}
}

func TestInfographic(t *testing.T) {
	records := sampleRecords()
	tests := []struct {
		tab  feedback.Tab
		want []string
	}{
		{feedback.TabGeneral, []string{"Total Feedback", "Distribución por Estado", "Distribución por Tipo", "#F59E0B"}},
		{feedback.TabIncident, []string{"Incidencias", "Pendientes"}},
		{feedback.TabConversation, []string{"Evaluaciones", "Valoraciones medias", "5.00 / 5"}},
		{feedback.TabCorpus, []string{"Valoración global", "4.50 / 5", "C1. Fuentes pertinentes", "C11."}},
	}
	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			subset := feedback.ByTab(records, tt.tab)
			html, err := Infographic(tt.tab, subset)
			if err != nil {
				t.Fatalf("Infographic: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(html, w) {
					t.Errorf("infographic missing %q", w)
				}
			}
		})
	}
}

func TestTable(t *testing.T) {
	records := sampleRecords()

	html, err := Table(feedback.TabGeneral, records)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(html, "<tr>") != 4 {
		t.Errorf("general table should have a header and 3 rows:\n%s", html)
	}
	if !strings.Contains(html, "Secreto &lt;profesional&gt;") {
		t.Error("cell text must be escaped")
	}
	if !strings.Contains(html, "04/03/2024 09:30") {
		t.Error("missing formatted date")
	}

	corpus, _ := Table(feedback.TabCorpus, feedback.ByTab(records, feedback.TabCorpus))
	for _, col := range []string{"<th>C1</th>", "<th>C11</th>", "<td>Ana</td>"} {
		if !strings.Contains(corpus, col) {
			t.Errorf("corpus table missing %s", col)
		}
	}

	empty, _ := Table(feedback.TabConversation, nil)
	if !strings.Contains(empty, "No hay registros.") || !strings.Contains(empty, `colspan="8"`) {
		t.Errorf("empty table = %s", empty)
	}
}

func TestParagraphs(t *testing.T) {
	got := string(Paragraphs("Primera línea\nsegunda <b>\n\n\nOtro párrafo"))
	want := "<p>Primera línea<br>segunda &lt;b&gt;</p><p>Otro párrafo</p>"
	if got != want {
		t.Errorf("Paragraphs = %q, want %q", got, want)
	}
	if Paragraphs("  \n ") != "" {
		t.Error("blank text should render nothing")
	}
}

func TestWriteDocument(t *testing.T) {
	r := feedback.Report{
		Title:           "Informe de Feedback: Visión General",
		Tab:             feedback.TabGeneral,
		AISummary:       "Resumen breve",
		InfographicHTML: `<div class="kpis"></div>`,
		TableHTML:       "<thead></thead>",
		CreatedAt:       time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	var buf bytes.Buffer
	if err := WriteDocument(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, w := range []string{
		"<title>Informe de Feedback: Visión General</title>",
		"Resumen Ejecutivo (IA)",
		"Infografía de Datos Clave",
		"Datos Detallados",
		`<div class="kpis"></div>`,
		"<table><thead></thead></table>",
		"<p>Resumen breve</p>",
		"&copy; 2024",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("document missing %q", w)
		}
	}

	if got := DocumentFilename(r); got != "informe-general-2024-03-04.html" {
		t.Errorf("DocumentFilename = %q", got)
	}
}
