package store

import (
	"fmt"
	"time"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
)

var mockScenarios = []string{
	"Confidencialidad", "Consentimiento", "Privacidad de datos", "Sesgo algorítmico",
	"Transparencia del modelo", "Dilema del tranvía", "Autonomía del usuario",
}

var mockStatuses = []feedback.Status{feedback.StatusPending, feedback.StatusInReview, feedback.StatusReviewed}

var mockDevices = []feedback.Device{feedback.DeviceMobile, feedback.DeviceTablet, feedback.DeviceDesktop}

// MockRecords generates n demo incident records spread over the days
// before now. Output is deterministic for a given now.
func MockRecords(n int, now time.Time) []feedback.Record {
	out := make([]feedback.Record, 0, n)
	for i := 0; i < n; i++ {
		kind := feedback.IncidentKinds[i%len(feedback.IncidentKinds)]
		status := mockStatuses[i%len(mockStatuses)]
		// roughly one entry every 36 hours, with a per-item jitter
		ts := now.Add(-time.Duration(i)*36*time.Hour - time.Duration(i%4)*time.Hour).UTC()

		r := feedback.New(kind)
		r.ID = fmt.Sprintf("mock%d", i+1)
		r.EvaluatorName = fmt.Sprintf("Usuario %d", i+1)
		r.SubmittedAt = ts.Format("2006-01-02T15:04")
		r.Device = mockDevices[i%len(mockDevices)]
		r.Scenario = fmt.Sprintf("%s #%d", mockScenarios[i%len(mockScenarios)], i+1)
		r.FinalComments = fmt.Sprintf("Comentario final %d.", i+1)
		r.Timestamp = &ts
		r.Status = status
		r.Incident.Description = fmt.Sprintf("Descripción detallada para el feedback número %d. Este es un texto de ejemplo para ilustrar el contenido que podría encontrarse aquí.", i+1)
		r.Incident.ChatbotResponse = "Respuesta del chatbot de ejemplo."
		r.Incident.LegacyRating = (i % 5) + 1
		if status == feedback.StatusReviewed {
			r.Result = fmt.Sprintf("Resultado de la revisión para el item %d.", i+1)
		}
		out = append(out, r)
	}
	return out
}
