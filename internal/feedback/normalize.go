package feedback

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Document is a raw stored record: whatever shape an older or newer client
// wrote. Keys follow the flat form field names.
type Document map[string]interface{}

// legacy aliases accepted for envelope fields
var fieldAliases = map[string][]string{
	"timestamp":               {"createdAt", "created_at"},
	"review_status":           {"status"},
	"review_result":           {"result", "notes"},
	"valoracion_deontologica": {"rating"},
}

func (d Document) lookup(key string) (interface{}, bool) {
	if v, ok := d[key]; ok && v != nil {
		return v, true
	}
	for _, alias := range fieldAliases[key] {
		if v, ok := d[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (d Document) str(key string) string {
	v, ok := d.lookup(key)
	if !ok {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// rating coerces a stored rating to 0..5. Values outside that range mean
// "not rated" and become 0.
func (d Document) rating(key string) int {
	n := d.integer(key)
	if n < 0 || n > 5 {
		return 0
	}
	return n
}

func (d Document) integer(key string) int {
	v, ok := d.lookup(key)
	if !ok {
		return 0
	}
	if s, isStr := v.(string); isStr {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return int(f)
}

// Normalize coerces a raw document into a canonical Record. It never fails:
// strings default to "", numbers to 0, and unknown enum values pass through.
func Normalize(d Document) Record {
	r := Record{
		ID:            d.str("id"),
		EvaluatorName: d.str("nombre_evaluador"),
		SubmittedAt:   d.str("fecha_hora"),
		Device:        Device(d.str("dispositivo")),
		Scenario:      d.str("escenario_keywords"),
		Kind:          Kind(d.str("tipo_feedback")),
		FinalComments: d.str("comentarios_finales"),
		Status:        Status(d.str("review_status")),
		Result:        d.str("review_result"),
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if raw, ok := d.lookup("timestamp"); ok {
		if ts, ok := parseTimestamp(raw); ok {
			r.Timestamp = &ts
		}
	}

	r.ensurePayload()
	switch {
	case r.Incident != nil:
		r.Incident.Description = d.str("descripcion")
		r.Incident.ChatbotResponse = d.str("respuesta_chatbot")
		r.Incident.LegacyRating = d.rating("valoracion_deontologica")
	case r.Conversation != nil:
		c := r.Conversation
		c.Description = d.str("descripcion")
		c.ChatbotResponse = d.str("respuesta_chatbot")
		c.Clarity = d.str("claridad")
		c.Usefulness = d.str("utilidad")
		c.DeontologicalRating = d.rating("valoracion_deontologica")
		c.PertinenceRating = d.rating("valoracion_pertinencia")
		c.InteractionRating = d.rating("valoracion_calidad_interaccion")
		c.ExpertApplicability = d.str("utilidad_experto_aplicabilidad")
		c.ExpertJustification = d.str("utilidad_experto_justificacion")
		c.ImpactRating = d.rating("impacto_resolucion_dilemas")
		c.CoherenceRating = d.rating("coherencia_interacciones")
		c.InteractionCount = d.integer("numero_interacciones")
		if c.InteractionCount < 0 {
			c.InteractionCount = 0
		}
		c.EaseOfResolutionScore = d.rating("facilidad_avance_resolucion")
	case r.Corpus != nil:
		for i, crit := range CorpusCriteria {
			r.Corpus.Criteria[i] = d.rating(crit.Key)
		}
		r.Corpus.Comments = d.str("corpus_comentarios")
		r.Corpus.Proposals = d.str("corpus_propuestas")
	}
	return r
}

// parseTimestamp understands time values, RFC3339-like strings, epoch
// numbers (seconds or milliseconds) and {seconds, nanoseconds} maps as
// written by document stores.
func parseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case map[string]interface{}:
		secs, ok := t["seconds"]
		if !ok {
			secs, ok = t["_seconds"]
		}
		if !ok {
			return time.Time{}, false
		}
		nanos := t["nanoseconds"]
		if nanos == nil {
			nanos = t["_nanoseconds"]
		}
		return time.Unix(cast.ToInt64(secs), cast.ToInt64(nanos)).UTC(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		ts, err := cast.ToTimeE(s)
		if err != nil || ts.IsZero() {
			return time.Time{}, false
		}
		return ts.UTC(), true
	case int, int32, int64, float32, float64, uint, uint32, uint64:
		n := cast.ToInt64(t)
		if n <= 0 {
			return time.Time{}, false
		}
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	return time.Time{}, false
}

// ToDocument flattens a record into its stored document shape. Only the
// fields meaningful for the record's kind are written.
func ToDocument(r Record) Document {
	d := Document{
		"nombre_evaluador":    r.EvaluatorName,
		"fecha_hora":          r.SubmittedAt,
		"dispositivo":         string(r.Device),
		"escenario_keywords":  r.Scenario,
		"tipo_feedback":       string(r.Kind),
		"comentarios_finales": r.FinalComments,
		"review_status":       string(r.Status),
		"review_result":       r.Result,
	}
	if r.ID != "" {
		d["id"] = r.ID
	}
	if r.Timestamp != nil {
		d["timestamp"] = r.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	switch {
	case r.Incident != nil:
		d["descripcion"] = r.Incident.Description
		d["respuesta_chatbot"] = r.Incident.ChatbotResponse
		if r.Incident.LegacyRating > 0 {
			d["valoracion_deontologica"] = r.Incident.LegacyRating
		}
	case r.Conversation != nil:
		c := r.Conversation
		d["descripcion"] = c.Description
		d["respuesta_chatbot"] = c.ChatbotResponse
		d["claridad"] = c.Clarity
		d["utilidad"] = c.Usefulness
		d["valoracion_deontologica"] = c.DeontologicalRating
		d["valoracion_pertinencia"] = c.PertinenceRating
		d["valoracion_calidad_interaccion"] = c.InteractionRating
		d["utilidad_experto_aplicabilidad"] = c.ExpertApplicability
		d["utilidad_experto_justificacion"] = c.ExpertJustification
		d["impacto_resolucion_dilemas"] = c.ImpactRating
		d["coherencia_interacciones"] = c.CoherenceRating
		d["numero_interacciones"] = c.InteractionCount
		d["facilidad_avance_resolucion"] = c.EaseOfResolutionScore
	case r.Corpus != nil:
		for i, crit := range CorpusCriteria {
			d[crit.Key] = r.Corpus.Criteria[i]
		}
		d["corpus_comentarios"] = r.Corpus.Comments
		d["corpus_propuestas"] = r.Corpus.Proposals
	}
	return d
}
