package feedback

import (
	"strconv"
)

// SummaryLine is one labelled value of the confirmation summary.
type SummaryLine struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

func stars(n int) string {
	return strconv.Itoa(n) + " ★"
}

// Summary lists the non-empty fields of r in display order, as shown to the
// evaluator before they confirm the submission.
func Summary(r Record) []SummaryLine {
	var lines []SummaryLine
	add := func(key, label, value string) {
		if value != "" {
			lines = append(lines, SummaryLine{Key: key, Label: label, Value: value})
		}
	}
	addRating := func(key, label string, v int) {
		if v > 0 {
			add(key, label, stars(v))
		}
	}

	add("nombre_evaluador", "Evaluador", r.EvaluatorName)
	add("fecha_hora", "Fecha y Hora", r.SubmittedAt)
	add("dispositivo", "Dispositivo", string(r.Device))

	switch {
	case r.Corpus != nil:
		add("tipo_feedback", "Tipo de Feedback", string(r.Kind))
		for i, crit := range CorpusCriteria {
			addRating(crit.Key, crit.Code+". "+crit.Label, r.Corpus.Criteria[i])
		}
		add("corpus_comentarios", "Comentarios", r.Corpus.Comments)
		add("corpus_propuestas", "Propuestas de Mejora", r.Corpus.Proposals)
	default:
		add("escenario_keywords", "Escenario", r.Scenario)
		add("tipo_feedback", "Tipo de Feedback", string(r.Kind))
		add("descripcion", "Descripción Detallada", r.Description())
		add("respuesta_chatbot", "Respuesta del Chatbot", r.ChatbotResponse())
		if c := r.Conversation; c != nil {
			add("claridad", "Claridad", c.Clarity)
			add("utilidad", "Utilidad", c.Usefulness)
			addRating("valoracion_deontologica", "Valoración Deontológica", c.DeontologicalRating)
			addRating("valoracion_pertinencia", "Pertinencia Respuestas", c.PertinenceRating)
			addRating("valoracion_calidad_interaccion", "Calidad Interacción", c.InteractionRating)
			add("utilidad_experto_aplicabilidad", "Aplicabilidad para Expertos", c.ExpertApplicability)
			add("utilidad_experto_justificacion", "Justificación", c.ExpertJustification)
			addRating("impacto_resolucion_dilemas", "Impacto en Resolución de Dilemas", c.ImpactRating)
			addRating("coherencia_interacciones", "Coherencia entre Interacciones", c.CoherenceRating)
			if c.InteractionCount > 0 {
				add("numero_interacciones", "Número de Interacciones", strconv.Itoa(c.InteractionCount))
			}
			addRating("facilidad_avance_resolucion", "Facilidad de Avance", c.EaseOfResolutionScore)
		}
	}
	add("comentarios_finales", "Comentarios Finales", r.FinalComments)
	return lines
}
