// Package report renders the markup stored with a generated report: the
// key-figure infographic, the detailed data table and the standalone
// document that wraps both with the executive summary.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
)

const dateLayout = "02/01/2006 15:04"

// Title returns the report title for a tab.
func Title(tab feedback.Tab) string {
	return "Informe de Feedback: " + tab.Label()
}

type kpi struct {
	Label string
	Value string
	Color string
}

type bar struct {
	Label string
	Value string
	Width string
	Color string
}

type barGroup struct {
	Title string
	Bars  []bar
}

type infographicData struct {
	KPIs   []kpi
	Groups []barGroup
}

var ratingLabels = map[feedback.RatingField]string{
	feedback.RatingDeontological: "Valoración Deontológica",
	feedback.RatingPertinence:    "Pertinencia Respuestas",
	feedback.RatingInteraction:   "Calidad Interacción",
	feedback.RatingImpact:        "Impacto en Dilemas",
	feedback.RatingCoherence:     "Coherencia",
	feedback.RatingEase:          "Facilidad de Avance",
}

func width(part, whole float64) string {
	if whole <= 0 || part <= 0 {
		return "0"
	}
	pct := part / whole * 100
	if pct > 100 {
		pct = 100
	}
	return fmt.Sprintf("%.1f", pct)
}

func bucketBars(buckets []feedback.Bucket, total int) []bar {
	out := make([]bar, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bar{
			Label: b.Label,
			Value: fmt.Sprintf("%d (%s%%)", b.Count, width(float64(b.Count), float64(total))),
			Width: width(float64(b.Count), float64(total)),
			Color: b.Color,
		})
	}
	return out
}

func averageBar(label string, avg float64, color string) bar {
	return bar{
		Label: label,
		Value: feedback.FormatAverage(avg) + " / 5",
		Width: width(avg, 5),
		Color: color,
	}
}

func buildInfographic(tab feedback.Tab, subset []feedback.Record) infographicData {
	d := feedback.BuildDashboard(subset)
	switch tab {
	case feedback.TabConversation:
		v := d.Conversation
		data := infographicData{KPIs: []kpi{
			{Label: "Evaluaciones", Value: fmt.Sprint(v.Total), Color: feedback.PaletteColor(0)},
		}}
		ratings := barGroup{Title: "Valoraciones medias"}
		for i, r := range v.Ratings {
			if r.Field == feedback.RatingDeontological {
				data.KPIs = append(data.KPIs, kpi{Label: "Valoración Deontológica media", Value: r.Display, Color: feedback.PaletteColor(1)})
			}
			ratings.Bars = append(ratings.Bars, averageBar(ratingLabels[r.Field], r.Average, feedback.PaletteColor(i)))
		}
		data.Groups = append(data.Groups, ratings,
			barGroup{Title: "Claridad", Bars: bucketBars(v.Clarity, v.Total)},
			barGroup{Title: "Utilidad", Bars: bucketBars(v.Usefulness, v.Total)},
		)
		return data
	case feedback.TabCorpus:
		v := d.Corpus
		group := barGroup{Title: "Valoración media por criterio"}
		for i, c := range v.Criteria {
			group.Bars = append(group.Bars, averageBar(c.Code+". "+c.Label, c.Average, feedback.PaletteColor(i)))
		}
		return infographicData{
			KPIs: []kpi{
				{Label: "Validaciones", Value: fmt.Sprint(v.Total), Color: feedback.PaletteColor(0)},
				{Label: "Valoración global", Value: v.OverallDisplay + " / 5", Color: feedback.PaletteColor(4)},
			},
			Groups: []barGroup{group},
		}
	}

	v := d.General
	total := "Total Feedback"
	if tab == feedback.TabIncident {
		total = "Incidencias"
	}
	return infographicData{
		KPIs: []kpi{
			{Label: total, Value: fmt.Sprint(v.Total), Color: feedback.PaletteColor(0)},
			{Label: "Pendientes", Value: fmt.Sprint(v.Pending), Color: feedback.StatusColor(string(feedback.StatusPending))},
			{Label: "En Revisión", Value: fmt.Sprint(v.InReview), Color: feedback.StatusColor(string(feedback.StatusInReview))},
			{Label: "Revisados", Value: fmt.Sprint(v.Reviewed), Color: feedback.StatusColor(string(feedback.StatusReviewed))},
		},
		Groups: []barGroup{
			{Title: "Distribución por Estado", Bars: bucketBars(v.ByStatus, v.Total)},
			{Title: "Distribución por Tipo", Bars: bucketBars(v.ByKind, v.Total)},
		},
	}
}

var infographicTmpl = template.Must(template.New("infographic").Parse(`<div class="kpis">
{{- range .KPIs}}
<div class="kpi" style="border-top-color: {{.Color}}"><span class="kpi-value">{{.Value}}</span><span class="kpi-label">{{.Label}}</span></div>
{{- end}}
</div>
{{- range .Groups}}
<div class="card bars"><h3>{{.Title}}</h3>
{{- range .Bars}}
<div class="bar-row"><span class="bar-label">{{.Label}}</span><div class="bar-track"><div class="bar-fill" style="width: {{.Width}}%; background-color: {{.Color}}"></div></div><span class="bar-value">{{.Value}}</span></div>
{{- else}}
<p class="empty">Sin datos.</p>
{{- end}}
</div>
{{- end}}`))

// Infographic renders the key-figure markup for subset under tab.
func Infographic(tab feedback.Tab, subset []feedback.Record) (string, error) {
	var buf bytes.Buffer
	if err := infographicTmpl.Execute(&buf, buildInfographic(tab, subset)); err != nil {
		return "", fmt.Errorf("render infographic: %w", err)
	}
	return buf.String(), nil
}

type tableData struct {
	Headers []string
	Rows    [][]string
}

func formatDate(r feedback.Record) string {
	if r.Timestamp == nil {
		return "-"
	}
	return r.Timestamp.UTC().Format(dateLayout)
}

func formatRating(v int) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprint(v)
}

func buildTable(tab feedback.Tab, subset []feedback.Record) tableData {
	switch tab {
	case feedback.TabConversation:
		t := tableData{Headers: []string{"Fecha", "Escenario", "Deontológica", "Pertinencia", "Interacción", "Claridad", "Utilidad", "Estado"}}
		for _, r := range subset {
			t.Rows = append(t.Rows, []string{
				formatDate(r), r.Scenario,
				formatRating(r.Rating(feedback.RatingDeontological)),
				formatRating(r.Rating(feedback.RatingPertinence)),
				formatRating(r.Rating(feedback.RatingInteraction)),
				r.Category(feedback.CategoryClarity),
				r.Category(feedback.CategoryUsefulness),
				string(r.Status),
			})
		}
		return t
	case feedback.TabCorpus:
		t := tableData{Headers: []string{"Fecha", "Evaluador"}}
		for _, c := range feedback.CorpusCriteria {
			t.Headers = append(t.Headers, c.Code)
		}
		t.Headers = append(t.Headers, "Estado")
		for _, r := range subset {
			row := []string{formatDate(r), r.EvaluatorName}
			for i := range feedback.CorpusCriteria {
				row = append(row, formatRating(r.Rating(feedback.CriterionField(i))))
			}
			t.Rows = append(t.Rows, append(row, string(r.Status)))
		}
		return t
	}

	t := tableData{Headers: []string{"Fecha", "Tipo", "Escenario", "Valoración", "Estado"}}
	for _, r := range subset {
		rating := "-"
		if p := r.PrimaryRating(); p > 0 {
			rating = feedback.FormatAverage(p)
		}
		t.Rows = append(t.Rows, []string{formatDate(r), string(r.Kind), r.Scenario, rating, string(r.Status)})
	}
	return t
}

var tableTmpl = template.Must(template.New("table").Parse(`<thead><tr>
{{- range .Headers}}<th>{{.}}</th>{{end -}}
</tr></thead><tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- else}}
<tr><td colspan="{{len .Headers}}">No hay registros.</td></tr>
{{- end}}
</tbody>`))

// Table renders the rows of the detailed data table, without the
// enclosing table element.
func Table(tab feedback.Tab, subset []feedback.Record) (string, error) {
	var buf bytes.Buffer
	if err := tableTmpl.Execute(&buf, buildTable(tab, subset)); err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return buf.String(), nil
}

// Paragraphs turns plain summary text into escaped paragraphs. Blank lines
// separate paragraphs and single newlines become line breaks.
func Paragraphs(text string) template.HTML {
	var sb strings.Builder
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i, l := range lines {
			lines[i] = template.HTMLEscapeString(strings.TrimSpace(l))
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.Join(lines, "<br>"))
		sb.WriteString("</p>")
	}
	return template.HTML(sb.String())
}

type documentData struct {
	Title       string
	Generated   string
	Category    string
	Summary     template.HTML
	Infographic template.HTML
	Table       template.HTML
	Year        int
}

var documentTmpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, -apple-system, "Segoe UI", Roboto, Arial, sans-serif; background-color: #f9fafb; color: #1f2937; margin: 0; }
.container { max-width: 1024px; margin: auto; padding: 2rem; }
header { text-align: center; margin-bottom: 2.5rem; }
h1 { font-size: 2.25rem; color: #1d4ed8; margin: 0; }
h2 { font-size: 1.5rem; border-bottom: 2px solid #93c5fd; padding-bottom: 0.5rem; margin: 2.5rem 0 1.5rem; }
.meta { color: #6b7280; }
.card { background-color: #fff; border-radius: 0.75rem; border: 1px solid #e5e7eb; padding: 1.5rem; margin-bottom: 1rem; }
.kpis { display: flex; flex-wrap: wrap; gap: 1rem; margin-bottom: 1rem; }
.kpi { flex: 1 1 10rem; background: #fff; border: 1px solid #e5e7eb; border-top: 4px solid #6b7280; border-radius: 0.75rem; padding: 1rem; text-align: center; }
.kpi-value { display: block; font-size: 2rem; font-weight: bold; }
.kpi-label { color: #4b5563; }
.bar-row { display: flex; align-items: center; gap: 0.75rem; margin: 0.5rem 0; }
.bar-label { flex: 0 0 14rem; font-size: 0.875rem; }
.bar-track { flex: 1; background: #f3f4f6; border-radius: 9999px; height: 0.75rem; }
.bar-fill { height: 100%; border-radius: 9999px; }
.bar-value { flex: 0 0 7rem; text-align: right; font-size: 0.875rem; }
table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
th, td { padding: 0.75rem 1rem; text-align: left; border-bottom: 1px solid #e5e7eb; }
th { background-color: #f3f4f6; color: #4b5563; }
tbody tr:nth-child(even) { background-color: #f9fafb; }
footer { text-align: center; margin-top: 2.5rem; font-size: 0.875rem; color: #6b7280; }
</style>
</head>
<body>
<div class="container">
<header>
<h1>{{.Title}}</h1>
<p class="meta">{{.Category}} · Generado el {{.Generated}}</p>
</header>
<main>
<section>
<h2>Resumen Ejecutivo (IA)</h2>
<div class="card">{{.Summary}}</div>
</section>
<section>
<h2>Infografía de Datos Clave</h2>
{{.Infographic}}
</section>
<section>
<h2>Datos Detallados</h2>
<div class="card"><table>{{.Table}}</table></div>
</section>
</main>
<footer><p>&copy; {{.Year}} Colegio Oficial de Trabajo Social de León.</p></footer>
</div>
</body>
</html>
`))

// WriteDocument writes the standalone HTML document for a stored report.
// The stored infographic and table markup was produced by this package and
// is embedded as is.
func WriteDocument(w io.Writer, r feedback.Report) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	data := documentData{
		Title:       r.Title,
		Generated:   created.UTC().Format(dateLayout),
		Category:    r.Tab.Label(),
		Summary:     Paragraphs(r.AISummary),
		Infographic: template.HTML(r.InfographicHTML),
		Table:       template.HTML(r.TableHTML),
		Year:        created.Year(),
	}
	if err := documentTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render report document: %w", err)
	}
	return nil
}

// DocumentFilename returns the download name of a report document.
func DocumentFilename(r feedback.Report) string {
	day := r.CreatedAt
	if day.IsZero() {
		day = time.Now().UTC()
	}
	return fmt.Sprintf("informe-%s-%s.html", r.Tab, day.UTC().Format("2006-01-02"))
}
