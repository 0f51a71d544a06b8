package feedback

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func TestExportCSV_RoundTrip(t *testing.T) {
	a := incident("a", KindError, StatusPending)
	a.Scenario = "Sesgo, algorítmico"
	a.Incident.Description = "Dijo \"no\" y luego\nrectificó"
	b := conversation("b", StatusReviewed, 4)
	b.Conversation.Clarity = AnswerYes
	b.Result = "ok"
	b.Timestamp = ts("2024-01-02T03:04:05Z")
	records := []Record{a, b}

	data, err := ExportCSV(records)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\xEF\xBB\xBF")) {
		t.Fatal("export should start with a UTF-8 BOM")
	}

	rows, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	if err != nil {
		t.Fatalf("parse exported CSV: %v", err)
	}
	if len(rows) != len(records)+1 {
		t.Fatalf("got %d rows, want %d", len(rows), len(records)+1)
	}
	if strings.Join(rows[0], ",") != strings.Join(CSVHeaders, ",") {
		t.Errorf("header = %v", rows[0])
	}

	col := func(name string) int {
		for i, h := range CSVHeaders {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}
	if got := rows[1][col("escenario_keywords")]; got != a.Scenario {
		t.Errorf("scenario = %q, want %q", got, a.Scenario)
	}
	if got := rows[1][col("descripcion")]; got != a.Incident.Description {
		t.Errorf("description = %q, want %q", got, a.Incident.Description)
	}
	if got := rows[2][col("valoracion_deontologica")]; got != "4" {
		t.Errorf("rating = %q", got)
	}
	if got := rows[2][col("timestamp")]; got != "2024-01-02T03:04:05Z" {
		t.Errorf("timestamp = %q", got)
	}
	if got := rows[2][col("review_status")]; got != string(StatusReviewed) {
		t.Errorf("status = %q", got)
	}
}

func TestExportCSV_QuotesOnlyWhenNeeded(t *testing.T) {
	r := incident("plain", KindError, StatusPending)
	r.Scenario = "simple"
	data, err := ExportCSV([]Record{r})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "\"simple\"") {
		t.Error("plain fields should not be quoted")
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename(time.Date(2024, 7, 9, 12, 0, 0, 0, time.UTC))
	if got != "feedback-export-2024-07-09.csv" {
		t.Errorf("ExportFilename = %q", got)
	}
}
