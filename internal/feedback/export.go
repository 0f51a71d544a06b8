package feedback

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// CSVHeaders is the fixed column order of the export.
var CSVHeaders = []string{
	"id", "nombre_evaluador", "fecha_hora", "timestamp", "dispositivo", "escenario_keywords",
	"tipo_feedback", "descripcion", "respuesta_chatbot", "claridad", "utilidad",
	"valoracion_deontologica", "comentarios_finales", "review_status", "review_result",
}

const utf8BOM = "\uFEFF"

// ExportFilename names an export produced on day now.
func ExportFilename(now time.Time) string {
	return "feedback-export-" + now.Format(dateLayout) + ".csv"
}

func csvRow(r Record) []string {
	ts := ""
	if r.Timestamp != nil {
		ts = r.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	var clarity, usefulness string
	if r.Conversation != nil {
		clarity, usefulness = r.Conversation.Clarity, r.Conversation.Usefulness
	}
	rating := ""
	if r.Conversation != nil || r.Incident != nil {
		rating = strconv.Itoa(r.DeontologicalRating())
	}
	return []string{
		r.ID, r.EvaluatorName, r.SubmittedAt, ts, string(r.Device), r.Scenario,
		string(r.Kind), r.Description(), r.ChatbotResponse(), clarity, usefulness,
		rating, r.FinalComments, string(r.Status), r.Result,
	}
}

// WriteCSV writes the records as UTF-8 CSV with a byte-order mark. Fields
// holding a comma, quote or newline are quoted with embedded quotes doubled.
func WriteCSV(w io.Writer, records []Record) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeaders); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV returns the CSV document for records.
func ExportCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
